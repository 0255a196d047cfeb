package installment

import (
	"fmt"

	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
)

// CyclePolicy holds the day-of-month constants every computed cycle is pinned
// to. The billed month itself is always marked by its 1st.
type CyclePolicy struct {
	// DueDay falls in the month after the billed month
	DueDay int
	// GenerationDay falls inside the billed month
	GenerationDay int
}

// DefaultCyclePolicy bills on the 1st, generates on the 25th and is due on the 5th
func DefaultCyclePolicy() CyclePolicy {
	return CyclePolicy{
		DueDay:        5,
		GenerationDay: 25,
	}
}

// Validate keeps every pinned day inside the shortest month
func (p CyclePolicy) Validate() error {
	details := map[string]any{}
	check := func(field string, day int) {
		if day < 1 || day > 28 {
			details[field] = fmt.Sprintf("must be between 1 and 28, got %d", day)
		}
	}
	check("due_day", p.DueDay)
	check("generation_day", p.GenerationDay)

	if len(details) > 0 {
		return ierr.NewError("invalid cycle policy").
			WithHint("Billing cycle days must fall between the 1st and the 28th").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CycleDateCalculator derives a full set of cycle dates from an anchor date
type CycleDateCalculator struct {
	policy CyclePolicy
}

func NewCycleDateCalculator(policy CyclePolicy) (*CycleDateCalculator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &CycleDateCalculator{policy: policy}, nil
}

func (c *CycleDateCalculator) Policy() CyclePolicy {
	return c.policy
}

// Compute bills the month after anchor and stamps the invoice with the anchor itself.
// Anchor December bills January of the following year.
func (c *CycleDateCalculator) Compute(anchor types.Date, frequencyMonths int) (*CycleDates, error) {
	if anchor.IsZero() {
		return nil, ierr.NewError("anchor date is required").
			WithHint("An anchor date is required to compute the billing cycle").
			WithReportableDetails(map[string]any{"anchor_date": "is required"}).
			Mark(ierr.ErrValidation)
	}

	invoiceMonth := anchor.FirstOfMonth().AddMonths(1)
	return c.ComputeForInvoiceMonth(invoiceMonth, anchor, frequencyMonths)
}

// ComputeFromPointer continues a plan's schedule from its stored pointer, so a
// sweep that runs late still bills the month the plan was waiting on. The
// invoice is issued on the stored generation date, but never after the pinned
// generation day of the billed month. Plans without a pointer fall back to
// Compute anchored on asOf.
func (c *CycleDateCalculator) ComputeFromPointer(plan *Plan, asOf types.Date) (*CycleDates, error) {
	if plan.NextInvoiceMonth == nil || plan.NextInvoiceMonth.IsZero() {
		return c.Compute(asOf, plan.FrequencyMonths)
	}

	issue := asOf
	if plan.NextGenerationDate != nil && !plan.NextGenerationDate.IsZero() {
		issue = *plan.NextGenerationDate
	}

	dates, err := c.ComputeForInvoiceMonth(*plan.NextInvoiceMonth, issue, plan.FrequencyMonths)
	if err != nil {
		return nil, err
	}
	// an override may have stored a generation date past the pinned day
	dates.Issue = types.MinDate(dates.Issue, dates.Generation)
	return dates, nil
}

// ComputeForInvoiceMonth builds the cycle that bills invoiceMonth and the one
// frequencyMonths after it. All derived dates are pinned to policy days.
func (c *CycleDateCalculator) ComputeForInvoiceMonth(invoiceMonth, issue types.Date, frequencyMonths int) (*CycleDates, error) {
	if frequencyMonths <= 0 {
		return nil, ierr.NewError(fmt.Sprintf("invalid frequency: %d", frequencyMonths)).
			WithHint("Billing frequency must be at least one month").
			WithReportableDetails(map[string]any{"frequency_months": "must be greater than 0"}).
			Mark(ierr.ErrValidation)
	}

	// month arithmetic is done on day 1 so the pinned days never clamp
	current := invoiceMonth.FirstOfMonth()
	next := current.AddMonths(frequencyMonths)

	dates := &CycleDates{
		Issue:        issue,
		InvoiceMonth: current,
		Generation:   current.WithDay(c.policy.GenerationDay),
		Due:          current.AddMonths(1).WithDay(c.policy.DueDay),

		NextInvoiceMonth: next,
		NextGeneration:   next.WithDay(c.policy.GenerationDay),
		NextDue:          next.AddMonths(1).WithDay(c.policy.DueDay),
	}
	dates.NextIssue = dates.NextGeneration

	return dates, nil
}
