package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkedErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{
			name:   "not found",
			err:    NewError("plan not found").WithHint("Installment plan not found").Mark(ErrNotFound),
			code:   ErrCodeNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "phase limit",
			err:    NewError("3 of 3 phases generated").Mark(ErrPhaseLimitReached),
			code:   ErrCodePhaseLimitReached,
			status: http.StatusConflict,
		},
		{
			name:   "validation",
			err:    NewError("bad dates").Mark(ErrValidation),
			code:   ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "database",
			err:    WithError(fmt.Errorf("connection reset")).Mark(ErrDatabase),
			code:   ErrCodeDatabase,
			status: http.StatusServiceUnavailable,
		},
		{
			name: "conflict inside transaction",
			err: WithError(NewError("plan version moved").Mark(ErrVersionConflict)).
				Mark(ErrDatabase),
			code:   ErrCodeDatabase,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "unmarked",
			err:    fmt.Errorf("boom"),
			code:   ErrCodeSystemError,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestMarkSurvivesWrapping(t *testing.T) {
	base := NewError("3 of 3 phases generated").Mark(ErrPhaseLimitReached)
	wrapped := fmt.Errorf("generating invoice: %w", base)

	assert.True(t, IsPhaseLimitReached(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestHintsAndDetails(t *testing.T) {
	err := NewError("manual override rejected").
		WithHint("Some dates are missing or malformed").
		WithReportableDetails(map[string]any{"due_date": "is required"}).
		WithReportableDetails(map[string]any{"invoice_month": "must be a date"}).
		Mark(ErrValidation)

	assert.Equal(t, "Some dates are missing or malformed", DisplayMessage(err))
	assert.Equal(t, map[string]any{
		"due_date":      "is required",
		"invoice_month": "must be a date",
	}, ReportableDetails(err))

	assert.Empty(t, DisplayMessage(fmt.Errorf("plain")))
	assert.Empty(t, ReportableDetails(fmt.Errorf("plain")))
}
