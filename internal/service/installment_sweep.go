package service

import (
	"context"
	"sort"

	"github.com/branchschool/installments/internal/api/dto"
	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/pyroscope"
	"github.com/branchschool/installments/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"
)

// GenerateDueInvoices pages through due plans across tenants and runs one
// automatic generation per plan, continuing each plan's stored schedule.
// A failing plan never stops the sweep.
func (s *installmentService) GenerateDueInvoices(ctx context.Context, asOf types.Date) (*dto.GenerateDueInstallmentsResponse, error) {
	if asOf.IsZero() {
		asOf = types.Today()
	}

	sweepCfg := s.Config.Billing.Sweep
	limiter := rate.NewLimiter(rate.Inf, 1)
	if sweepCfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(sweepCfg.RatePerSecond), 1)
	}

	resp := &dto.GenerateDueInstallmentsResponse{
		AsOf:     asOf,
		Outcomes: make([]*dto.InstallmentSweepOutcome, 0),
	}

	s.Logger.Infow("starting installment sweep",
		"as_of", asOf,
		"batch_size", sweepCfg.BatchSize,
		"concurrency", sweepCfg.Concurrency,
	)

	filter := &types.DueInstallmentPlanFilter{AsOf: asOf, Limit: sweepCfg.BatchSize}
	for {
		plans, err := s.InstallmentRepo.ListDuePlans(ctx, filter)
		if err != nil {
			return nil, err
		}
		if len(plans) == 0 {
			break
		}

		resp.Outcomes = append(resp.Outcomes, s.sweepBatch(ctx, plans, asOf, limiter)...)

		if len(plans) < filter.Limit {
			break
		}
		filter.AfterID = plans[len(plans)-1].ID
	}

	sort.Slice(resp.Outcomes, func(i, j int) bool {
		return resp.Outcomes[i].PlanID < resp.Outcomes[j].PlanID
	})

	resp.Scanned = len(resp.Outcomes)
	for _, o := range resp.Outcomes {
		switch {
		case o.InvoiceID != "":
			resp.Generated++
		case isSkip(installment.FailureKind(o.Failure)):
			resp.Skipped++
		default:
			resp.Failed++
		}
	}

	s.Logger.Infow("finished installment sweep",
		"as_of", asOf,
		"scanned", resp.Scanned,
		"generated", resp.Generated,
		"skipped", resp.Skipped,
		"failed", resp.Failed,
	)

	return resp, nil
}

func (s *installmentService) sweepBatch(ctx context.Context, plans []*installment.Plan, asOf types.Date, limiter *rate.Limiter) []*dto.InstallmentSweepOutcome {
	p := pool.NewWithResults[*dto.InstallmentSweepOutcome]().
		WithMaxGoroutines(lo.Max([]int{s.Config.Billing.Sweep.Concurrency, 1}))

	for _, plan := range plans {
		p.Go(func() *dto.InstallmentSweepOutcome {
			return s.sweepPlan(ctx, plan, asOf, limiter)
		})
	}

	return p.Wait()
}

// sweepPlan generates for one plan under that plan's tenant
func (s *installmentService) sweepPlan(ctx context.Context, plan *installment.Plan, asOf types.Date, limiter *rate.Limiter) *dto.InstallmentSweepOutcome {
	outcome := &dto.InstallmentSweepOutcome{PlanID: plan.ID, TenantID: plan.TenantID}

	if err := limiter.Wait(ctx); err != nil {
		outcome.Failure = string(installment.FailurePersistence)
		outcome.Error = err.Error()
		return outcome
	}

	var (
		result *GenerationResult
		err    error
	)
	tenantCtx := types.SetTenantID(ctx, plan.TenantID)
	s.Profiler.TagWrapper(tenantCtx, pyroscope.SweepLabels(plan.TenantID), func(ctx context.Context) {
		result, err = s.GenerateInvoice(ctx, &GenerateInvoiceParams{
			PlanID:      plan.ID,
			Mode:        types.GenerationModeAuto,
			AsOf:        asOf,
			FromPointer: true,
		})
	})
	if err != nil {
		kind := installment.ClassifyFailure(err)
		outcome.Failure = string(kind)
		outcome.Error = err.Error()

		if isSkip(kind) {
			s.Logger.Debugw("skipped installment plan", "plan_id", plan.ID, "reason", kind)
		} else {
			s.Logger.Errorw("installment generation failed during sweep",
				"plan_id", plan.ID,
				"tenant_id", plan.TenantID,
				"failure", kind,
				"error", err,
			)
			if kind.Retryable() {
				s.Sentry.CaptureException(err, map[string]string{
					"plan_id":   plan.ID,
					"tenant_id": plan.TenantID,
				})
			}
		}
		return outcome
	}

	outcome.InvoiceID = result.Invoice.ID
	return outcome
}

// isSkip is true for plans that became ineligible between listing and locking
func isSkip(kind installment.FailureKind) bool {
	return kind == installment.FailurePhaseLimitReached || kind == installment.FailureIneligible
}
