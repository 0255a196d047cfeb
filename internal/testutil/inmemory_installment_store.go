package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
)

// Installment store operations that can be made to fail
const (
	OpCreatePlan          = "create_plan"
	OpGetPlan             = "get_plan"
	OpMarkDownpaymentPaid = "mark_downpayment_paid"
	OpCreateInvoice       = "create_invoice"
	OpAdvanceSchedule     = "advance_schedule"
	OpListDuePlans        = "list_due_plans"
)

// InMemoryInstallmentStore implements installment.Repository. Stored values
// are copies, so callers never share memory with the store.
type InMemoryInstallmentStore struct {
	plans    *InMemoryStore[*installment.Plan]
	invoices *InMemoryStore[*installment.GeneratedInvoice]

	mu       sync.Mutex
	failures map[string]error
}

var (
	_ installment.Repository = (*InMemoryInstallmentStore)(nil)
	_ Snapshotter            = (*InMemoryInstallmentStore)(nil)
)

func NewInMemoryInstallmentStore() *InMemoryInstallmentStore {
	return &InMemoryInstallmentStore{
		plans:    NewInMemoryStore[*installment.Plan](),
		invoices: NewInMemoryStore[*installment.GeneratedInvoice](),
		failures: make(map[string]error),
	}
}

// FailOn makes every later call of op return err until cleared with a nil err
func (s *InMemoryInstallmentStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *InMemoryInstallmentStore) injected(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[op]
}

func copyPlan(p *installment.Plan) *installment.Plan {
	c := *p
	return &c
}

func copyInvoice(inv *installment.GeneratedInvoice) *installment.GeneratedInvoice {
	c := *inv
	return &c
}

func (s *InMemoryInstallmentStore) CreatePlan(ctx context.Context, plan *installment.Plan) error {
	if err := s.injected(OpCreatePlan); err != nil {
		return err
	}

	existing, _ := s.plans.List(ctx, nil, func(_ context.Context, p *installment.Plan, _ interface{}) bool {
		return p.TenantID == plan.TenantID && p.EnrollmentID == plan.EnrollmentID && p.Status == types.StatusPublished
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("duplicate enrollment").
			WithHint("An installment plan already exists for this enrollment").
			WithReportableDetails(map[string]any{"enrollment_id": plan.EnrollmentID}).
			Mark(ierr.ErrAlreadyExists)
	}

	return s.plans.Create(ctx, plan.ID, copyPlan(plan))
}

func (s *InMemoryInstallmentStore) GetPlan(ctx context.Context, id string) (*installment.Plan, error) {
	if err := s.injected(OpGetPlan); err != nil {
		return nil, err
	}

	plan, err := s.plans.Get(ctx, id)
	if err != nil || plan.TenantID != types.GetTenantID(ctx) || plan.Status != types.StatusPublished {
		return nil, ierr.NewError("installment plan not found").
			WithHintf("Installment plan %s was not found", id).
			WithReportableDetails(map[string]any{"plan_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(plan), nil
}

// GetPlanForUpdate relies on MockPostgresClient serialising transactions
func (s *InMemoryInstallmentStore) GetPlanForUpdate(ctx context.Context, id string) (*installment.Plan, error) {
	if !InMockTx(ctx) {
		return nil, ierr.NewError("row lock requested outside a transaction").
			Mark(ierr.ErrSystem)
	}
	return s.GetPlan(ctx, id)
}

func (s *InMemoryInstallmentStore) MarkDownpaymentPaid(ctx context.Context, id string, paidAt time.Time) error {
	if err := s.injected(OpMarkDownpaymentPaid); err != nil {
		return err
	}

	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return err
	}

	plan.DownpaymentPaidAt = &paidAt
	plan.Version++
	plan.UpdatedAt = time.Now().UTC()
	plan.UpdatedBy = types.GetUserID(ctx)
	return s.plans.Update(ctx, id, plan)
}

func (s *InMemoryInstallmentStore) CreateInvoice(ctx context.Context, invoice *installment.GeneratedInvoice) error {
	if err := s.injected(OpCreateInvoice); err != nil {
		return err
	}

	dup, _ := s.invoices.Count(ctx, nil, func(_ context.Context, inv *installment.GeneratedInvoice, _ interface{}) bool {
		return inv.PlanID == invoice.PlanID && inv.PhaseNumber == invoice.PhaseNumber
	})
	if dup > 0 {
		return ierr.WithError(ierr.NewError("duplicate phase").Mark(ierr.ErrAlreadyExists)).
			WithHintf("Phase %d of this plan has already been invoiced", invoice.PhaseNumber).
			Mark(ierr.ErrDatabase)
	}

	return s.invoices.Create(ctx, invoice.ID, copyInvoice(invoice))
}

func (s *InMemoryInstallmentStore) GetInvoice(ctx context.Context, id string) (*installment.GeneratedInvoice, error) {
	invoice, err := s.invoices.Get(ctx, id)
	if err != nil || invoice.TenantID != types.GetTenantID(ctx) {
		return nil, ierr.NewError("installment invoice not found").
			WithHintf("Installment invoice %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(invoice), nil
}

func (s *InMemoryInstallmentStore) AdvanceSchedule(ctx context.Context, advance *installment.ScheduleAdvance) error {
	if err := s.injected(OpAdvanceSchedule); err != nil {
		return err
	}

	plan, err := s.GetPlan(ctx, advance.PlanID)
	if err != nil {
		return err
	}
	if plan.Version != advance.ExpectedVersion {
		return ierr.WithError(ierr.NewError("installment plan changed concurrently").Mark(ierr.ErrVersionConflict)).
			WithHint("The installment plan was modified by another request, please retry").
			Mark(ierr.ErrDatabase)
	}

	advance.Apply(plan)
	return s.plans.Update(ctx, plan.ID, plan)
}

// ListDuePlans spans all tenants like the sweep query does
func (s *InMemoryInstallmentStore) ListDuePlans(ctx context.Context, filter *types.DueInstallmentPlanFilter) ([]*installment.Plan, error) {
	if err := s.injected(OpListDuePlans); err != nil {
		return nil, err
	}

	plans, err := s.plans.List(ctx, filter, func(_ context.Context, p *installment.Plan, _ interface{}) bool {
		return p.Status == types.StatusPublished &&
			p.NextGenerationDate != nil &&
			!p.NextGenerationDate.After(filter.AsOf) &&
			(p.TotalPhases == nil || p.GeneratedPhases < *p.TotalPhases) &&
			p.IsDownpaymentSettled() &&
			p.ID > filter.AfterID
	}, func(a, b *installment.Plan) bool {
		return a.ID < b.ID
	})
	if err != nil {
		return nil, err
	}

	if filter.Limit > 0 && len(plans) > filter.Limit {
		plans = plans[:filter.Limit]
	}

	out := make([]*installment.Plan, len(plans))
	for i, p := range plans {
		out[i] = copyPlan(p)
	}
	return out, nil
}

func (s *InMemoryInstallmentStore) ListInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) ([]*installment.GeneratedInvoice, error) {
	invoices, err := s.invoices.List(ctx, filter.QueryFilter, s.invoiceFilter(filter), func(a, b *installment.GeneratedInvoice) bool {
		if filter.GetOrder() == types.OrderDesc {
			return a.PhaseNumber > b.PhaseNumber
		}
		return a.PhaseNumber < b.PhaseNumber
	})
	if err != nil {
		return nil, err
	}

	out := make([]*installment.GeneratedInvoice, len(invoices))
	for i, inv := range invoices {
		out[i] = copyInvoice(inv)
	}
	return out, nil
}

func (s *InMemoryInstallmentStore) CountInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) (int, error) {
	return s.invoices.Count(ctx, filter, s.invoiceFilter(filter))
}

func (s *InMemoryInstallmentStore) invoiceFilter(filter *types.InstallmentInvoiceFilter) FilterFunc[*installment.GeneratedInvoice] {
	return func(ctx context.Context, inv *installment.GeneratedInvoice, _ interface{}) bool {
		return inv.PlanID == filter.PlanID &&
			inv.TenantID == types.GetTenantID(ctx) &&
			inv.Status == types.StatusPublished
	}
}

// InvoiceCount returns every stored invoice across tenants
func (s *InMemoryInstallmentStore) InvoiceCount() int {
	return s.invoices.Len()
}

type installmentSnapshot struct {
	plans    any
	invoices any
}

func (s *InMemoryInstallmentStore) Snapshot() any {
	return installmentSnapshot{
		plans:    s.plans.Snapshot(),
		invoices: s.invoices.Snapshot(),
	}
}

func (s *InMemoryInstallmentStore) Restore(snapshot any) {
	snap, ok := snapshot.(installmentSnapshot)
	if !ok {
		return
	}
	s.plans.Restore(snap.plans)
	s.invoices.Restore(snap.invoices)
}

func (s *InMemoryInstallmentStore) Clear() {
	s.plans.Clear()
	s.invoices.Clear()
	s.mu.Lock()
	s.failures = make(map[string]error)
	s.mu.Unlock()
}
