package types

import (
	"fmt"

	ierr "github.com/branchschool/installments/internal/errors"
)

// GenerationMode tells the coordinator where the cycle dates come from
type GenerationMode string

const (
	// GenerationModeAuto derives the dates from an anchor date
	GenerationModeAuto GenerationMode = "auto"
	// GenerationModeManual takes an operator supplied date set as is
	GenerationModeManual GenerationMode = "manual"
)

func (m GenerationMode) Validate() error {
	switch m {
	case GenerationModeAuto, GenerationModeManual:
		return nil
	default:
		return ierr.NewError(fmt.Sprintf("invalid generation mode: %s", m)).
			WithHint("Generation mode must be one of auto or manual").
			WithReportableDetails(map[string]any{
				"mode": fmt.Sprintf("must be one of %s or %s", GenerationModeAuto, GenerationModeManual),
			}).
			Mark(ierr.ErrValidation)
	}
}

// InstallmentPlanState is the billing lifecycle of one installment plan
type InstallmentPlanState string

const (
	InstallmentPlanStateAwaitingDownpayment InstallmentPlanState = "awaiting_downpayment"
	InstallmentPlanStateActive              InstallmentPlanState = "active"
	InstallmentPlanStateExhausted           InstallmentPlanState = "exhausted"
)

// InstallmentInvoiceFilter lists the invoices generated for one plan
type InstallmentInvoiceFilter struct {
	*QueryFilter
	PlanID string `json:"plan_id,omitempty" form:"-"`
}

func NewInstallmentInvoiceFilter() *InstallmentInvoiceFilter {
	return &InstallmentInvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *InstallmentInvoiceFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if f.PlanID == "" {
		return ierr.NewError("plan_id is required").
			WithHint("Installment plan ID is required").
			Mark(ierr.ErrValidation)
	}
	return f.QueryFilter.Validate()
}

// DueInstallmentPlanFilter selects plans whose schedule pointer has been reached.
// Results are keyset paginated by plan ID: pass the last ID seen as AfterID.
type DueInstallmentPlanFilter struct {
	AsOf    Date
	AfterID string
	Limit   int
}
