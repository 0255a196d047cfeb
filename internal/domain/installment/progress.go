package installment

import (
	"github.com/branchschool/installments/internal/types"
)

// Progress is the read model of one plan's phase bookkeeping
type Progress struct {
	PlanID             string                     `json:"plan_id"`
	State              types.InstallmentPlanState `json:"state"`
	FrequencyMonths    int                        `json:"frequency_months"`
	GeneratedPhases    int                        `json:"generated_phases"`
	TotalPhases        *int                       `json:"total_phases"`
	RemainingPhases    *int                       `json:"remaining_phases"`
	Bounded            bool                       `json:"bounded"`
	NextGenerationDate *types.Date                `json:"next_generation_date"`
	NextInvoiceMonth   *types.Date                `json:"next_invoice_month"`
}

// PhaseProgressTracker answers whether a plan may generate another invoice.
// It holds no state and never mutates the plan.
type PhaseProgressTracker struct{}

func NewPhaseProgressTracker() *PhaseProgressTracker {
	return &PhaseProgressTracker{}
}

// IsGenerationAllowed is false only for a bounded plan that has used every phase
func (t *PhaseProgressTracker) IsGenerationAllowed(plan *Plan) bool {
	if plan.TotalPhases == nil {
		return true
	}
	return plan.GeneratedPhases < *plan.TotalPhases
}

// RemainingPhases returns the phases left to generate. bounded is false for
// plans without a phase limit, in which case remaining is meaningless.
func (t *PhaseProgressTracker) RemainingPhases(plan *Plan) (remaining int, bounded bool) {
	if plan.TotalPhases == nil {
		return 0, false
	}
	remaining = *plan.TotalPhases - plan.GeneratedPhases
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// State places the plan in its billing lifecycle. Exhausted wins over an
// unpaid downpayment since nothing can leave it.
func (t *PhaseProgressTracker) State(plan *Plan) types.InstallmentPlanState {
	if !t.IsGenerationAllowed(plan) {
		return types.InstallmentPlanStateExhausted
	}
	if !plan.IsDownpaymentSettled() {
		return types.InstallmentPlanStateAwaitingDownpayment
	}
	return types.InstallmentPlanStateActive
}

func (t *PhaseProgressTracker) Progress(plan *Plan) *Progress {
	p := &Progress{
		PlanID:             plan.ID,
		State:              t.State(plan),
		FrequencyMonths:    plan.FrequencyMonths,
		GeneratedPhases:    plan.GeneratedPhases,
		TotalPhases:        plan.TotalPhases,
		NextGenerationDate: plan.NextGenerationDate,
		NextInvoiceMonth:   plan.NextInvoiceMonth,
	}
	if remaining, bounded := t.RemainingPhases(plan); bounded {
		p.RemainingPhases = &remaining
		p.Bounded = true
	}
	return p
}
