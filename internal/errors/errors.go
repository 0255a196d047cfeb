package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Common error types that can be used across the application
var (
	ErrNotFound          = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists     = new(ErrCodeAlreadyExists, "resource already exists")
	ErrVersionConflict   = new(ErrCodeVersionConflict, "version conflict")
	ErrValidation        = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation  = new(ErrCodeInvalidOperation, "invalid operation")
	ErrPhaseLimitReached = new(ErrCodePhaseLimitReached, "phase limit reached")
	ErrDatabase          = new(ErrCodeDatabase, "database error")
	ErrHTTPClient        = new(ErrCodeHTTPClient, "http client error")
	ErrPermissionDenied  = new(ErrCodePermissionDenied, "permission denied")
	ErrSystem            = new(ErrCodeSystemError, "system error")
	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:          http.StatusNotFound,
		ErrAlreadyExists:     http.StatusConflict,
		ErrVersionConflict:   http.StatusConflict,
		ErrValidation:        http.StatusBadRequest,
		ErrInvalidOperation:  http.StatusBadRequest,
		ErrPhaseLimitReached: http.StatusConflict,
		ErrDatabase:          http.StatusServiceUnavailable,
		ErrHTTPClient:        http.StatusBadGateway,
		ErrPermissionDenied:  http.StatusForbidden,
		ErrSystem:            http.StatusInternalServerError,
	}
	// lookup order for ErrorCode; most specific first. Conflicts raised
	// inside a transaction are also marked ErrDatabase and report as such.
	codeOrder = []*InternalError{
		ErrPhaseLimitReached,
		ErrValidation,
		ErrNotFound,
		ErrDatabase,
		ErrVersionConflict,
		ErrAlreadyExists,
		ErrInvalidOperation,
		ErrHTTPClient,
		ErrPermissionDenied,
		ErrSystem,
	}
)

const (
	ErrCodeSystemError       = "system_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeAlreadyExists     = "already_exists"
	ErrCodeVersionConflict   = "version_conflict"
	ErrCodeValidation        = "validation_error"
	ErrCodeInvalidOperation  = "invalid_operation"
	ErrCodePhaseLimitReached = "phase_limit_reached"
	ErrCodeDatabase          = "database_error"
	ErrCodeHTTPClient        = "http_client_error"
	ErrCodePermissionDenied  = "permission_denied"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError
func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsVersionConflict checks if an error is a version conflict error
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsPhaseLimitReached checks if an error is the terminal phase limit condition
func IsPhaseLimitReached(err error) bool {
	return errors.Is(err, ErrPhaseLimitReached)
}

// IsPermissionDenied checks if an error is a permission denied error
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsDatabase checks if an error came from the persistence layer
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// ErrorCode returns the machine readable code of the most specific sentinel
// err is marked with, or ErrCodeSystemError when it carries none.
func ErrorCode(err error) string {
	for _, sentinel := range codeOrder {
		if errors.Is(err, sentinel) {
			return sentinel.Code
		}
	}
	return ErrCodeSystemError
}

func HTTPStatusFromErr(err error) int {
	for _, sentinel := range codeOrder {
		if errors.Is(err, sentinel) {
			return statusCodeMap[sentinel]
		}
	}
	return http.StatusInternalServerError
}
