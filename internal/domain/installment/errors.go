package installment

import (
	"sort"
	"strings"

	ierr "github.com/branchschool/installments/internal/errors"
)

// ValidationErrors maps an input field to what is wrong with it
type ValidationErrors map[string]string

func (e ValidationErrors) add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+" "+e[f])
	}
	return "invalid override: " + strings.Join(parts, "; ")
}

// Details converts the field map into reportable error details
func (e ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(e))
	for f, msg := range e {
		details[f] = msg
	}
	return details
}

// FailureKind is the reason a generation attempt did not produce an invoice
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureNotFound          FailureKind = "not_found"
	FailurePhaseLimitReached FailureKind = "phase_limit_reached"
	FailureValidation        FailureKind = "validation"
	FailureIneligible        FailureKind = "ineligible"
	FailurePersistence       FailureKind = "persistence"
)

// Retryable reports whether repeating the same call may succeed
func (k FailureKind) Retryable() bool {
	return k == FailurePersistence
}

// ClassifyFailure maps an error returned by generation onto its kind so
// callers can branch without inspecting messages. Unknown errors count as
// persistence failures since nothing was committed.
func ClassifyFailure(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case ierr.IsPhaseLimitReached(err):
		return FailurePhaseLimitReached
	case ierr.IsNotFound(err):
		return FailureNotFound
	case ierr.IsValidation(err):
		return FailureValidation
	case ierr.IsInvalidOperation(err):
		return FailureIneligible
	default:
		return FailurePersistence
	}
}

// OverrideErrors extracts the per-field messages of a failed override, if any
func OverrideErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if ierr.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
