package installment

import (
	"time"

	"github.com/branchschool/installments/internal/types"
	"github.com/shopspring/decimal"
)

// Plan is one student's phased billing agreement
type Plan struct {
	ID                       string           `db:"id" json:"id"`
	StudentID                string           `db:"student_id" json:"student_id"`
	EnrollmentID             string           `db:"enrollment_id" json:"enrollment_id"`
	FrequencyMonths          int              `db:"frequency_months" json:"frequency_months"`
	TotalPhases              *int             `db:"total_phases" json:"total_phases"`
	GeneratedPhases          int              `db:"generated_phases" json:"generated_phases"`
	InstallmentAmount        decimal.Decimal  `db:"installment_amount" json:"installment_amount"`
	InstallmentAmountInclTax decimal.Decimal  `db:"installment_amount_incl_tax" json:"installment_amount_incl_tax"`
	Currency                 string           `db:"currency" json:"currency"`
	DownpaymentAmount        *decimal.Decimal `db:"downpayment_amount" json:"downpayment_amount,omitempty"`
	DownpaymentPaidAt        *time.Time       `db:"downpayment_paid_at" json:"downpayment_paid_at,omitempty"`
	NextGenerationDate       *types.Date      `db:"next_generation_date" json:"next_generation_date"`
	NextInvoiceMonth         *types.Date      `db:"next_invoice_month" json:"next_invoice_month"`
	Version                  int              `db:"version" json:"version"`
	types.BaseModel
}

// RequiresDownpayment reports whether billing waits on a downpayment
func (p *Plan) RequiresDownpayment() bool {
	return p.DownpaymentAmount != nil && p.DownpaymentAmount.IsPositive()
}

// IsDownpaymentSettled is true when no downpayment is due or it has been paid
func (p *Plan) IsDownpaymentSettled() bool {
	return !p.RequiresDownpayment() || p.DownpaymentPaidAt != nil
}

// GeneratedInvoice is the billing document produced by one generation event.
// It is never updated after creation.
type GeneratedInvoice struct {
	ID             string               `db:"id" json:"id"`
	PlanID         string               `db:"plan_id" json:"plan_id"`
	InvoiceNumber  string               `db:"invoice_number" json:"invoice_number"`
	PhaseNumber    int                  `db:"phase_number" json:"phase_number"`
	IssueDate      types.Date           `db:"issue_date" json:"issue_date"`
	DueDate        types.Date           `db:"due_date" json:"due_date"`
	InvoiceMonth   types.Date           `db:"invoice_month" json:"invoice_month"`
	GenerationDate types.Date           `db:"generation_date" json:"generation_date"`
	AmountExclTax  decimal.Decimal      `db:"amount_excl_tax" json:"amount_excl_tax"`
	AmountInclTax  decimal.Decimal      `db:"amount_incl_tax" json:"amount_incl_tax"`
	Currency       string               `db:"currency" json:"currency"`
	GenerationMode types.GenerationMode `db:"generation_mode" json:"generation_mode"`
	types.BaseModel
}

// CycleDates carries the eight dates of one generation attempt: the cycle
// being invoiced now and the pointer for the one after it.
type CycleDates struct {
	Issue        types.Date `json:"issue_date"`
	Due          types.Date `json:"due_date"`
	InvoiceMonth types.Date `json:"invoice_month"`
	Generation   types.Date `json:"generation_date"`

	NextIssue        types.Date `json:"next_issue_date"`
	NextDue          types.Date `json:"next_due_date"`
	NextInvoiceMonth types.Date `json:"next_invoice_month"`
	NextGeneration   types.Date `json:"next_generation_date"`
}

// NewInvoice stamps the current cycle of dates onto a new invoice for plan.
// The phase number is the one this invoice will occupy once the plan advances.
func NewInvoice(plan *Plan, dates *CycleDates, mode types.GenerationMode, base types.BaseModel) *GeneratedInvoice {
	return &GeneratedInvoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT_INVOICE),
		PlanID:         plan.ID,
		InvoiceNumber:  types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INSTALLMENT_INVOICE),
		PhaseNumber:    plan.GeneratedPhases + 1,
		IssueDate:      dates.Issue,
		DueDate:        dates.Due,
		InvoiceMonth:   dates.InvoiceMonth,
		GenerationDate: dates.Generation,
		AmountExclTax:  plan.InstallmentAmount,
		AmountInclTax:  plan.InstallmentAmountInclTax,
		Currency:       plan.Currency,
		GenerationMode: mode,
		BaseModel:      base,
	}
}

// ScheduleAdvance is the plan mutation committed alongside a new invoice
type ScheduleAdvance struct {
	PlanID             string
	ExpectedVersion    int
	GeneratedPhases    int
	NextGenerationDate types.Date
	NextInvoiceMonth   types.Date
	UpdatedBy          string
}

// NewScheduleAdvance moves plan one phase forward onto the next cycle of dates
func NewScheduleAdvance(plan *Plan, dates *CycleDates, updatedBy string) *ScheduleAdvance {
	return &ScheduleAdvance{
		PlanID:             plan.ID,
		ExpectedVersion:    plan.Version,
		GeneratedPhases:    plan.GeneratedPhases + 1,
		NextGenerationDate: dates.NextGeneration,
		NextInvoiceMonth:   dates.NextInvoiceMonth,
		UpdatedBy:          updatedBy,
	}
}

// Apply mirrors the advance onto an in-memory copy of the plan
func (a *ScheduleAdvance) Apply(plan *Plan) {
	next := a.NextGenerationDate
	month := a.NextInvoiceMonth
	plan.GeneratedPhases = a.GeneratedPhases
	plan.NextGenerationDate = &next
	plan.NextInvoiceMonth = &month
	plan.Version = a.ExpectedVersion + 1
	plan.UpdatedBy = a.UpdatedBy
	plan.UpdatedAt = time.Now().UTC()
}
