package httpclient

import (
	"fmt"

	ierr "github.com/branchschool/installments/internal/errors"
)

// Error is a non-2xx response from a remote endpoint
type Error struct {
	StatusCode int
	Response   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("http client error: status %d", e.StatusCode)
}

// NewError creates a new HTTP client error marked as such
func NewError(statusCode int, response []byte) error {
	return ierr.WithError(&Error{StatusCode: statusCode, Response: response}).
		WithHintf("The webhook endpoint responded with status %d", statusCode).
		Mark(ierr.ErrHTTPClient)
}

// IsHTTPError checks if an error carries an HTTP response status
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if ierr.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
