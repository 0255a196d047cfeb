package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
	"github.com/branchschool/installments/internal/types"
	"github.com/lib/pq"
)

const (
	planColumns = `
		id, tenant_id, student_id, enrollment_id, frequency_months, total_phases,
		generated_phases, installment_amount, installment_amount_incl_tax, currency,
		downpayment_amount, downpayment_paid_at, next_generation_date, next_invoice_month,
		version, status, created_at, updated_at,
		COALESCE(created_by, '') AS created_by, COALESCE(updated_by, '') AS updated_by`

	invoiceColumns = `
		id, tenant_id, plan_id, invoice_number, phase_number, issue_date, due_date,
		invoice_month, generation_date, amount_excl_tax, amount_incl_tax, currency,
		generation_mode, status, created_at, updated_at,
		COALESCE(created_by, '') AS created_by, COALESCE(updated_by, '') AS updated_by`

	pqUniqueViolation = "23505"
)

type installmentRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewInstallmentRepository(db *postgres.DB, logger *logger.Logger) installment.Repository {
	return &installmentRepository{db: db, logger: logger}
}

func (r *installmentRepository) CreatePlan(ctx context.Context, plan *installment.Plan) error {
	query := `
	INSERT INTO installment_plans (
		id, tenant_id, student_id, enrollment_id, frequency_months, total_phases,
		generated_phases, installment_amount, installment_amount_incl_tax, currency,
		downpayment_amount, downpayment_paid_at, next_generation_date, next_invoice_month,
		version, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :student_id, :enrollment_id, :frequency_months, :total_phases,
		:generated_phases, :installment_amount, :installment_amount_incl_tax, :currency,
		:downpayment_amount, :downpayment_paid_at, :next_generation_date, :next_invoice_month,
		:version, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

	r.logger.Debugw("creating installment plan",
		"plan_id", plan.ID,
		"tenant_id", plan.TenantID,
		"enrollment_id", plan.EnrollmentID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, plan); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An installment plan already exists for this enrollment").
				WithReportableDetails(map[string]any{"enrollment_id": plan.EnrollmentID}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create installment plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *installmentRepository) GetPlan(ctx context.Context, id string) (*installment.Plan, error) {
	return r.getPlan(ctx, id, false)
}

func (r *installmentRepository) GetPlanForUpdate(ctx context.Context, id string) (*installment.Plan, error) {
	if _, ok := postgres.GetTx(ctx); !ok {
		return nil, ierr.NewError("row lock requested outside a transaction").
			WithHint("Plan locking requires a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.getPlan(ctx, id, true)
}

func (r *installmentRepository) getPlan(ctx context.Context, id string, forUpdate bool) (*installment.Plan, error) {
	query := `SELECT ` + planColumns + `
	FROM installment_plans
	WHERE id = $1 AND tenant_id = $2 AND status = $3`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var plan installment.Plan
	err := r.db.GetQuerier(ctx).GetContext(ctx, &plan, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.WithError(err).
				WithHintf("Installment plan %s was not found", id).
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load installment plan").
			Mark(ierr.ErrDatabase)
	}
	return &plan, nil
}

func (r *installmentRepository) MarkDownpaymentPaid(ctx context.Context, id string, paidAt time.Time) error {
	query := `
	UPDATE installment_plans
	SET downpayment_paid_at = $1, updated_at = $2, updated_by = $3, version = version + 1
	WHERE id = $4 AND tenant_id = $5 AND status = $6`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		paidAt,
		time.Now().UTC(),
		types.GetUserID(ctx),
		id,
		types.GetTenantID(ctx),
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record downpayment").
			Mark(ierr.ErrDatabase)
	}
	return r.expectOneRow(result, ierr.ErrNotFound, id)
}

func (r *installmentRepository) CreateInvoice(ctx context.Context, invoice *installment.GeneratedInvoice) error {
	query := `
	INSERT INTO installment_invoices (
		id, tenant_id, plan_id, invoice_number, phase_number, issue_date, due_date,
		invoice_month, generation_date, amount_excl_tax, amount_incl_tax, currency,
		generation_mode, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :tenant_id, :plan_id, :invoice_number, :phase_number, :issue_date, :due_date,
		:invoice_month, :generation_date, :amount_excl_tax, :amount_incl_tax, :currency,
		:generation_mode, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, invoice); err != nil {
		if isUniqueViolation(err) {
			// another generation took this phase first
			return ierr.WithError(ierr.WithError(err).Mark(ierr.ErrAlreadyExists)).
				WithHintf("Phase %d of this plan has already been invoiced", invoice.PhaseNumber).
				WithReportableDetails(map[string]any{
					"plan_id":      invoice.PlanID,
					"phase_number": invoice.PhaseNumber,
				}).
				Mark(ierr.ErrDatabase)
		}
		return ierr.WithError(err).
			WithHint("Failed to save the generated invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *installmentRepository) GetInvoice(ctx context.Context, id string) (*installment.GeneratedInvoice, error) {
	query := `SELECT ` + invoiceColumns + `
	FROM installment_invoices
	WHERE id = $1 AND tenant_id = $2 AND status = $3`

	var invoice installment.GeneratedInvoice
	err := r.db.GetQuerier(ctx).GetContext(ctx, &invoice, query, id, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.WithError(err).
				WithHintf("Installment invoice %s was not found", id).
				WithReportableDetails(map[string]any{"invoice_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load installment invoice").
			Mark(ierr.ErrDatabase)
	}
	return &invoice, nil
}

func (r *installmentRepository) AdvanceSchedule(ctx context.Context, advance *installment.ScheduleAdvance) error {
	query := `
	UPDATE installment_plans
	SET generated_phases = $1,
		next_generation_date = $2,
		next_invoice_month = $3,
		version = version + 1,
		updated_at = $4,
		updated_by = $5
	WHERE id = $6 AND tenant_id = $7 AND version = $8 AND status = $9`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		advance.GeneratedPhases,
		advance.NextGenerationDate,
		advance.NextInvoiceMonth,
		time.Now().UTC(),
		advance.UpdatedBy,
		advance.PlanID,
		types.GetTenantID(ctx),
		advance.ExpectedVersion,
		types.StatusPublished,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to advance the installment schedule").
			Mark(ierr.ErrDatabase)
	}
	return r.expectOneRow(result, ierr.ErrVersionConflict, advance.PlanID)
}

func (r *installmentRepository) ListDuePlans(ctx context.Context, filter *types.DueInstallmentPlanFilter) ([]*installment.Plan, error) {
	query := `SELECT ` + planColumns + `
	FROM installment_plans
	WHERE status = $1
		AND next_generation_date IS NOT NULL
		AND next_generation_date <= $2
		AND (total_phases IS NULL OR generated_phases < total_phases)
		AND (downpayment_amount IS NULL OR downpayment_amount <= 0 OR downpayment_paid_at IS NOT NULL)
		AND id > $3
	ORDER BY id ASC
	LIMIT $4`

	var plans []*installment.Plan
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &plans, query,
		types.StatusPublished,
		filter.AsOf,
		filter.AfterID,
		filter.Limit,
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list due installment plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *installmentRepository) ListInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) ([]*installment.GeneratedInvoice, error) {
	query := fmt.Sprintf(`SELECT %s
	FROM installment_invoices
	WHERE plan_id = $1 AND tenant_id = $2 AND status = $3
	ORDER BY phase_number %s
	LIMIT $4 OFFSET $5`, invoiceColumns, orderDirection(filter.GetOrder()))

	var invoices []*installment.GeneratedInvoice
	err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query,
		filter.PlanID,
		types.GetTenantID(ctx),
		types.StatusPublished,
		filter.GetLimit(),
		filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list installment invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *installmentRepository) CountInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) (int, error) {
	query := `
	SELECT COUNT(*) FROM installment_invoices
	WHERE plan_id = $1 AND tenant_id = $2 AND status = $3`

	var count int
	err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, filter.PlanID, types.GetTenantID(ctx), types.StatusPublished)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count installment invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *installmentRepository) expectOneRow(result sql.Result, sentinel error, planID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	if affected == 1 {
		return nil
	}

	if sentinel == ierr.ErrVersionConflict {
		return ierr.WithError(ierr.NewError("installment plan changed concurrently").Mark(ierr.ErrVersionConflict)).
			WithHint("The installment plan was modified by another request, please retry").
			WithReportableDetails(map[string]any{"plan_id": planID}).
			Mark(ierr.ErrDatabase)
	}
	return ierr.NewError("installment plan not found").
		WithHintf("Installment plan %s was not found", planID).
		WithReportableDetails(map[string]any{"plan_id": planID}).
		Mark(sentinel)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return ierr.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

func orderDirection(order string) string {
	if order == types.OrderDesc {
		return "DESC"
	}
	return "ASC"
}
