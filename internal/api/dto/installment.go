package dto

import (
	"context"
	"time"

	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
	"github.com/branchschool/installments/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreateInstallmentPlanRequest registers a student's installment agreement
type CreateInstallmentPlanRequest struct {
	StudentID                string           `json:"student_id" validate:"required"`
	EnrollmentID             string           `json:"enrollment_id" validate:"required"`
	FrequencyMonths          int              `json:"frequency_months" validate:"required,min=1,max=120"`
	TotalPhases              *int             `json:"total_phases,omitempty" validate:"omitempty,min=1"`
	InstallmentAmount        decimal.Decimal  `json:"installment_amount" swaggertype:"string"`
	InstallmentAmountInclTax *decimal.Decimal `json:"installment_amount_incl_tax,omitempty" swaggertype:"string"`
	Currency                 string           `json:"currency" validate:"required,len=3"`
	DownpaymentAmount        *decimal.Decimal `json:"downpayment_amount,omitempty" swaggertype:"string"`
}

func (r *CreateInstallmentPlanRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	details := map[string]any{}
	if r.InstallmentAmount.IsNegative() {
		details["installment_amount"] = "must not be negative"
	}
	if r.InstallmentAmountInclTax != nil && r.InstallmentAmountInclTax.IsNegative() {
		details["installment_amount_incl_tax"] = "must not be negative"
	}
	if r.DownpaymentAmount != nil && r.DownpaymentAmount.IsNegative() {
		details["downpayment_amount"] = "must not be negative"
	}
	if len(details) > 0 {
		return ierr.NewError("invalid installment plan amounts").
			WithHint("Installment amounts must not be negative").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToPlan builds a plan with no schedule pointer; the first generation sets it
func (r *CreateInstallmentPlanRequest) ToPlan(ctx context.Context) *installment.Plan {
	inclTax := r.InstallmentAmount
	if r.InstallmentAmountInclTax != nil {
		inclTax = *r.InstallmentAmountInclTax
	}

	return &installment.Plan{
		ID:                       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT_PLAN),
		StudentID:                r.StudentID,
		EnrollmentID:             r.EnrollmentID,
		FrequencyMonths:          r.FrequencyMonths,
		TotalPhases:              r.TotalPhases,
		InstallmentAmount:        r.InstallmentAmount,
		InstallmentAmountInclTax: inclTax,
		Currency:                 types.NormalizeCurrency(r.Currency),
		DownpaymentAmount:        r.DownpaymentAmount,
		Version:                  1,
		BaseModel:                types.GetDefaultBaseModel(ctx),
	}
}

// MarkDownpaymentPaidRequest records settlement of the plan's downpayment
type MarkDownpaymentPaidRequest struct {
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

func (r *MarkDownpaymentPaidRequest) GetPaidAt() time.Time {
	if r.PaidAt == nil || r.PaidAt.IsZero() {
		return time.Now().UTC()
	}
	return r.PaidAt.UTC()
}

// GenerateInstallmentInvoiceRequest triggers one generation for a plan.
// In auto mode as_of optionally pins the anchor date; in manual mode the
// eight date fields are the operator's override.
type GenerateInstallmentInvoiceRequest struct {
	Mode types.GenerationMode `json:"mode" validate:"required"`
	AsOf string               `json:"as_of,omitempty" validate:"omitempty,date"`
	installment.ManualOverrideInput
}

func (r *GenerateInstallmentInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.Mode.Validate(); err != nil {
		return err
	}
	if r.Mode == types.GenerationModeAuto && !r.ManualOverrideInput.IsEmpty() {
		return ierr.NewError("override dates supplied in auto mode").
			WithHint("Date fields are only accepted in manual mode").
			WithReportableDetails(map[string]any{"mode": "must be manual when dates are supplied"}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetAsOf returns the anchor date, today when unset
func (r *GenerateInstallmentInvoiceRequest) GetAsOf() types.Date {
	if r.AsOf == "" {
		return types.Today()
	}
	d, err := types.ParseDate(r.AsOf)
	if err != nil {
		return types.Today()
	}
	return d
}

// InstallmentPlanResponse is a plan together with its derived lifecycle state
type InstallmentPlanResponse struct {
	*installment.Plan
	State           types.InstallmentPlanState `json:"state"`
	RemainingPhases *int                       `json:"remaining_phases"`
}

func NewInstallmentPlanResponse(plan *installment.Plan) *InstallmentPlanResponse {
	tracker := installment.NewPhaseProgressTracker()
	resp := &InstallmentPlanResponse{
		Plan:  plan,
		State: tracker.State(plan),
	}
	if remaining, bounded := tracker.RemainingPhases(plan); bounded {
		resp.RemainingPhases = lo.ToPtr(remaining)
	}
	return resp
}

type InstallmentInvoiceResponse struct {
	*installment.GeneratedInvoice
}

func NewInstallmentInvoiceResponse(invoice *installment.GeneratedInvoice) *InstallmentInvoiceResponse {
	return &InstallmentInvoiceResponse{GeneratedInvoice: invoice}
}

// GenerateInstallmentInvoiceResponse is the outcome of a successful generation
type GenerateInstallmentInvoiceResponse struct {
	InvoiceID          string                      `json:"invoice_id"`
	Invoice            *InstallmentInvoiceResponse `json:"invoice"`
	GeneratedPhases    int                         `json:"generated_phases"`
	TotalPhases        *int                        `json:"total_phases"`
	RemainingPhases    *int                        `json:"remaining_phases"`
	NextGenerationDate *types.Date                 `json:"next_generation_date"`
	NextInvoiceMonth   *types.Date                 `json:"next_invoice_month"`
}

func NewGenerateInstallmentInvoiceResponse(invoice *installment.GeneratedInvoice, progress *installment.Progress) *GenerateInstallmentInvoiceResponse {
	return &GenerateInstallmentInvoiceResponse{
		InvoiceID:          invoice.ID,
		Invoice:            NewInstallmentInvoiceResponse(invoice),
		GeneratedPhases:    progress.GeneratedPhases,
		TotalPhases:        progress.TotalPhases,
		RemainingPhases:    progress.RemainingPhases,
		NextGenerationDate: progress.NextGenerationDate,
		NextInvoiceMonth:   progress.NextInvoiceMonth,
	}
}

type InstallmentProgressResponse struct {
	*installment.Progress
}

type ListInstallmentInvoicesResponse = types.ListResponse[*InstallmentInvoiceResponse]

// PreviewInstallmentCycleResponse is the computed date set for an anchor, not persisted
type PreviewInstallmentCycleResponse struct {
	PlanID     string     `json:"plan_id"`
	AnchorDate types.Date `json:"anchor_date"`
	*installment.CycleDates
}

// GenerateDueInstallmentsRequest runs the sweep for plans due on or before as_of
type GenerateDueInstallmentsRequest struct {
	AsOf string `json:"as_of,omitempty" form:"as_of" validate:"omitempty,date"`
}

func (r *GenerateDueInstallmentsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *GenerateDueInstallmentsRequest) GetAsOf() types.Date {
	if d, err := types.ParseDate(r.AsOf); err == nil {
		return d
	}
	return types.Today()
}

// InstallmentSweepOutcome is the result of one plan in a sweep
type InstallmentSweepOutcome struct {
	PlanID    string `json:"plan_id"`
	TenantID  string `json:"tenant_id"`
	InvoiceID string `json:"invoice_id,omitempty"`
	Failure   string `json:"failure,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GenerateDueInstallmentsResponse summarises a sweep
type GenerateDueInstallmentsResponse struct {
	AsOf      types.Date                 `json:"as_of"`
	Scanned   int                        `json:"scanned"`
	Generated int                        `json:"generated"`
	Skipped   int                        `json:"skipped"`
	Failed    int                        `json:"failed"`
	Outcomes  []*InstallmentSweepOutcome `json:"outcomes"`
}
