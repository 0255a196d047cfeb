package installment

import (
	"context"
	"time"

	"github.com/branchschool/installments/internal/types"
)

// Repository is the invoice store backing installment generation.
// CreateInvoice and AdvanceSchedule are only ever called together
// inside one transaction.
type Repository interface {
	// CreatePlan registers a new installment plan
	CreatePlan(ctx context.Context, plan *Plan) error

	// GetPlan retrieves a plan by ID
	GetPlan(ctx context.Context, id string) (*Plan, error)

	// GetPlanForUpdate retrieves a plan and locks its row until the
	// surrounding transaction ends
	GetPlanForUpdate(ctx context.Context, id string) (*Plan, error)

	// MarkDownpaymentPaid records the downpayment settlement time
	MarkDownpaymentPaid(ctx context.Context, id string, paidAt time.Time) error

	// CreateInvoice persists a generated invoice
	CreateInvoice(ctx context.Context, invoice *GeneratedInvoice) error

	// AdvanceSchedule writes the new phase count and next pointers. It fails
	// with a version conflict when the plan changed since it was read.
	AdvanceSchedule(ctx context.Context, advance *ScheduleAdvance) error

	// GetInvoice retrieves a generated invoice by ID
	GetInvoice(ctx context.Context, id string) (*GeneratedInvoice, error)

	// ListDuePlans returns plans whose next generation date has been reached
	ListDuePlans(ctx context.Context, filter *types.DueInstallmentPlanFilter) ([]*Plan, error)

	// ListInvoices returns the invoices of one plan ordered by phase
	ListInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) ([]*GeneratedInvoice, error)

	// CountInvoices returns the number of invoices matching filter
	CountInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) (int, error)
}
