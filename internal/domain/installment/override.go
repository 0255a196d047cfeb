package installment

import (
	"strings"

	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
)

// Override field names as they appear on the wire
const (
	FieldIssueDate          = "issue_date"
	FieldDueDate            = "due_date"
	FieldInvoiceMonth       = "invoice_month"
	FieldGenerationDate     = "generation_date"
	FieldNextIssueDate      = "next_issue_date"
	FieldNextDueDate        = "next_due_date"
	FieldNextInvoiceMonth   = "next_invoice_month"
	FieldNextGenerationDate = "next_generation_date"
)

// ManualOverrideInput is the raw operator supplied date set
type ManualOverrideInput struct {
	IssueDate          string `json:"issue_date"`
	DueDate            string `json:"due_date"`
	InvoiceMonth       string `json:"invoice_month"`
	GenerationDate     string `json:"generation_date,omitempty"`
	NextIssueDate      string `json:"next_issue_date"`
	NextDueDate        string `json:"next_due_date"`
	NextInvoiceMonth   string `json:"next_invoice_month"`
	NextGenerationDate string `json:"next_generation_date"`
}

// IsEmpty reports whether no date at all was supplied
func (in *ManualOverrideInput) IsEmpty() bool {
	return in == nil || (strings.TrimSpace(in.IssueDate) == "" &&
		strings.TrimSpace(in.DueDate) == "" &&
		strings.TrimSpace(in.InvoiceMonth) == "" &&
		strings.TrimSpace(in.GenerationDate) == "" &&
		strings.TrimSpace(in.NextIssueDate) == "" &&
		strings.TrimSpace(in.NextDueDate) == "" &&
		strings.TrimSpace(in.NextInvoiceMonth) == "" &&
		strings.TrimSpace(in.NextGenerationDate) == "")
}

// ManualOverrideValidator checks an operator date set for completeness and
// well-formedness. It never rewrites a date: overrides may deliberately
// diverge from the computed schedule.
type ManualOverrideValidator struct{}

func NewManualOverrideValidator() *ManualOverrideValidator {
	return &ManualOverrideValidator{}
}

// Validate returns the override as cycle dates, or a validation error whose
// ValidationErrors lists every offending field. A missing generation date
// defaults to the issue date.
func (v *ManualOverrideValidator) Validate(in *ManualOverrideInput) (*CycleDates, error) {
	if in == nil {
		in = &ManualOverrideInput{}
	}

	verrs := ValidationErrors{}
	dates := &CycleDates{
		Issue:            verrs.required(FieldIssueDate, in.IssueDate),
		Due:              verrs.required(FieldDueDate, in.DueDate),
		InvoiceMonth:     verrs.required(FieldInvoiceMonth, in.InvoiceMonth),
		NextIssue:        verrs.required(FieldNextIssueDate, in.NextIssueDate),
		NextDue:          verrs.required(FieldNextDueDate, in.NextDueDate),
		NextInvoiceMonth: verrs.required(FieldNextInvoiceMonth, in.NextInvoiceMonth),
		NextGeneration:   verrs.required(FieldNextGenerationDate, in.NextGenerationDate),
	}

	if strings.TrimSpace(in.GenerationDate) == "" {
		dates.Generation = dates.Issue
	} else {
		dates.Generation = verrs.parse(FieldGenerationDate, in.GenerationDate)
	}

	verrs.ordered(FieldDueDate, dates.Issue, dates.Due, "must not be before issue_date")
	verrs.ordered(FieldNextDueDate, dates.NextIssue, dates.NextDue, "must not be before next_issue_date")
	if !dates.InvoiceMonth.IsZero() && !dates.NextInvoiceMonth.IsZero() &&
		!dates.NextInvoiceMonth.After(dates.InvoiceMonth) {
		verrs.add(FieldNextInvoiceMonth, "must be after invoice_month")
	}

	if len(verrs) > 0 {
		return nil, ierr.WithError(verrs).
			WithHint("Some of the override dates are missing or invalid").
			WithReportableDetails(verrs.Details()).
			Mark(ierr.ErrValidation)
	}
	return dates, nil
}

func (e ValidationErrors) required(field, raw string) types.Date {
	if strings.TrimSpace(raw) == "" {
		e.add(field, "is required")
		return types.Date{}
	}
	return e.parse(field, raw)
}

func (e ValidationErrors) parse(field, raw string) types.Date {
	d, err := types.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		e.add(field, "must be a valid date in YYYY-MM-DD format")
		return types.Date{}
	}
	return d
}

// ordered flags field when both dates parsed and later precedes earlier
func (e ValidationErrors) ordered(field string, earlier, later types.Date, msg string) {
	if earlier.IsZero() || later.IsZero() {
		return
	}
	if later.Before(earlier) {
		e.add(field, msg)
	}
}
