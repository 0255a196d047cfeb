package service

import (
	"context"

	"github.com/branchschool/installments/internal/api/dto"
	"github.com/branchschool/installments/internal/cache"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
	webhookDto "github.com/branchschool/installments/internal/webhook/dto"
	webhookPublisher "github.com/branchschool/installments/internal/webhook/publisher"
)

// InstallmentService drives recurring installment invoice generation
type InstallmentService interface {
	CreatePlan(ctx context.Context, req *dto.CreateInstallmentPlanRequest) (*dto.InstallmentPlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.InstallmentPlanResponse, error)
	MarkDownpaymentPaid(ctx context.Context, id string, req *dto.MarkDownpaymentPaidRequest) (*dto.InstallmentPlanResponse, error)

	// GenerateInvoice produces at most one invoice for the plan and advances
	// its schedule in the same transaction
	GenerateInvoice(ctx context.Context, params *GenerateInvoiceParams) (*GenerationResult, error)

	// GenerateDueInvoices runs one automatic generation for every plan whose
	// next generation date is on or before asOf
	GenerateDueInvoices(ctx context.Context, asOf types.Date) (*dto.GenerateDueInstallmentsResponse, error)

	GetProgress(ctx context.Context, id string) (*installment.Progress, error)
	ListInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) (*dto.ListInstallmentInvoicesResponse, error)
	PreviewCycle(ctx context.Context, id string, anchor types.Date) (*dto.PreviewInstallmentCycleResponse, error)
}

// GenerateInvoiceParams selects where the cycle dates come from.
// Auto mode anchors on AsOf (today when zero), or on the plan's stored
// pointer when FromPointer is set. Manual mode takes Override verbatim.
type GenerateInvoiceParams struct {
	PlanID      string
	Mode        types.GenerationMode
	AsOf        types.Date
	FromPointer bool
	Override    *installment.ManualOverrideInput
}

// GenerationResult is the committed invoice and the plan after its advance
type GenerationResult struct {
	Invoice  *installment.GeneratedInvoice
	Plan     *installment.Plan
	Progress *installment.Progress
}

type installmentService struct {
	ServiceParams
	calculator *installment.CycleDateCalculator
	tracker    *installment.PhaseProgressTracker
	validator  *installment.ManualOverrideValidator
}

func NewInstallmentService(params ServiceParams) (InstallmentService, error) {
	calculator, err := installment.NewCycleDateCalculator(CyclePolicyFromConfig(params.Config))
	if err != nil {
		return nil, err
	}

	return &installmentService{
		ServiceParams: params,
		calculator:    calculator,
		tracker:       installment.NewPhaseProgressTracker(),
		validator:     installment.NewManualOverrideValidator(),
	}, nil
}

// CyclePolicyFromConfig reads the day-of-month constants from billing.cycle
func CyclePolicyFromConfig(cfg *config.Configuration) installment.CyclePolicy {
	return installment.CyclePolicy{
		DueDay:        cfg.Billing.Cycle.DueDay,
		GenerationDay: cfg.Billing.Cycle.GenerationDay,
	}
}

func (s *installmentService) CreatePlan(ctx context.Context, req *dto.CreateInstallmentPlanRequest) (*dto.InstallmentPlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan := req.ToPlan(ctx)
	if err := s.InstallmentRepo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	s.Logger.Infow("created installment plan",
		"plan_id", plan.ID,
		"enrollment_id", plan.EnrollmentID,
		"frequency_months", plan.FrequencyMonths,
		"total_phases", plan.TotalPhases,
	)

	return dto.NewInstallmentPlanResponse(plan), nil
}

func (s *installmentService) GetPlan(ctx context.Context, id string) (*dto.InstallmentPlanResponse, error) {
	if id == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Installment plan ID is required").
			Mark(ierr.ErrValidation)
	}

	plan, err := s.InstallmentRepo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInstallmentPlanResponse(plan), nil
}

// MarkDownpaymentPaid moves a plan out of awaiting_downpayment. Repeating it
// on a settled plan returns the plan unchanged.
func (s *installmentService) MarkDownpaymentPaid(ctx context.Context, id string, req *dto.MarkDownpaymentPaidRequest) (*dto.InstallmentPlanResponse, error) {
	if req == nil {
		req = &dto.MarkDownpaymentPaidRequest{}
	}

	var plan *installment.Plan
	activated := false

	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := s.InstallmentRepo.GetPlanForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		if !locked.RequiresDownpayment() {
			return ierr.NewError("plan has no downpayment").
				WithHintf("Installment plan %s does not require a downpayment", id).
				WithReportableDetails(map[string]any{"plan_id": id}).
				Mark(ierr.ErrInvalidOperation)
		}

		if locked.DownpaymentPaidAt != nil {
			plan = locked
			return nil
		}

		paidAt := req.GetPaidAt()
		if err := s.InstallmentRepo.MarkDownpaymentPaid(txCtx, id, paidAt); err != nil {
			return err
		}

		locked.DownpaymentPaidAt = &paidAt
		locked.Version++
		plan = locked
		activated = s.tracker.State(locked) == types.InstallmentPlanStateActive
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateProgress(ctx, plan.ID)
	if activated {
		s.Logger.Infow("installment plan activated", "plan_id", plan.ID)
		s.publishPlanEvent(ctx, types.WebhookEventInstallmentPlanActivated, plan)
	}

	return dto.NewInstallmentPlanResponse(plan), nil
}

func (s *installmentService) GenerateInvoice(ctx context.Context, params *GenerateInvoiceParams) (*GenerationResult, error) {
	if params == nil || params.PlanID == "" {
		return nil, ierr.NewError("plan_id is required").
			WithHint("Installment plan ID is required").
			Mark(ierr.ErrValidation)
	}
	if err := params.Mode.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.InstallmentRepo.GetPlan(ctx, params.PlanID)
	if err != nil {
		return nil, err
	}

	if err := s.checkEligible(plan, params.Mode); err != nil {
		return nil, err
	}

	// manual dates do not depend on plan state, so they are checked before
	// any lock is taken
	var override *installment.CycleDates
	if params.Mode == types.GenerationModeManual {
		override, err = s.validator.Validate(params.Override)
		if err != nil {
			return nil, err
		}
	}

	result := &GenerationResult{}
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := s.InstallmentRepo.GetPlanForUpdate(txCtx, params.PlanID)
		if err != nil {
			return err
		}

		// another generation may have committed since the unlocked read
		if err := s.checkEligible(locked, params.Mode); err != nil {
			return err
		}

		dates := override
		if dates == nil {
			if err := checkPointerDue(locked, params); err != nil {
				return err
			}
			if dates, err = s.autoDates(locked, params); err != nil {
				return err
			}
			if err := checkCycleOpen(locked, dates); err != nil {
				return err
			}
		}

		invoice := installment.NewInvoice(locked, dates, params.Mode, types.GetDefaultBaseModel(txCtx))
		if err := s.InstallmentRepo.CreateInvoice(txCtx, invoice); err != nil {
			return err
		}

		advance := installment.NewScheduleAdvance(locked, dates, types.GetUserID(txCtx))
		if err := s.InstallmentRepo.AdvanceSchedule(txCtx, advance); err != nil {
			return err
		}
		advance.Apply(locked)

		result.Invoice = invoice
		result.Plan = locked
		return nil
	})
	if err != nil {
		s.Logger.Debugw("installment generation failed",
			"plan_id", params.PlanID,
			"mode", params.Mode,
			"failure", installment.ClassifyFailure(err),
			"error", err,
		)
		return nil, err
	}

	result.Progress = s.tracker.Progress(result.Plan)

	s.Logger.Infow("generated installment invoice",
		"plan_id", result.Plan.ID,
		"invoice_id", result.Invoice.ID,
		"phase_number", result.Invoice.PhaseNumber,
		"invoice_month", result.Invoice.InvoiceMonth,
		"mode", params.Mode,
		"next_generation_date", result.Plan.NextGenerationDate,
	)

	s.invalidateProgress(ctx, result.Plan.ID)
	s.publishInvoiceEvent(ctx, result.Invoice)
	if result.Progress.State == types.InstallmentPlanStateExhausted {
		s.publishPlanEvent(ctx, types.WebhookEventInstallmentPlanExhausted, result.Plan)
	}

	return result, nil
}

// checkEligible applies the phase limit and, for automatic runs, the
// downpayment gate. An operator override may bill before the downpayment.
func (s *installmentService) checkEligible(plan *installment.Plan, mode types.GenerationMode) error {
	if !s.tracker.IsGenerationAllowed(plan) {
		return ierr.NewError("installment plan has no phases left").
			WithHintf("All %d phases of installment plan %s have been invoiced", *plan.TotalPhases, plan.ID).
			WithReportableDetails(map[string]any{
				"plan_id":          plan.ID,
				"generated_phases": plan.GeneratedPhases,
				"total_phases":     *plan.TotalPhases,
			}).
			Mark(ierr.ErrPhaseLimitReached)
	}

	if mode == types.GenerationModeAuto && !plan.IsDownpaymentSettled() {
		return ierr.NewError("installment plan is awaiting its downpayment").
			WithHint("Invoices are generated automatically only after the downpayment is paid").
			WithReportableDetails(map[string]any{
				"plan_id": plan.ID,
				"state":   types.InstallmentPlanStateAwaitingDownpayment,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// checkPointerDue re-reads the due condition the sweep listed the plan under.
// A run that committed in between has already moved the pointer forward.
func checkPointerDue(plan *installment.Plan, params *GenerateInvoiceParams) error {
	if !params.FromPointer || plan.NextGenerationDate == nil || params.AsOf.IsZero() {
		return nil
	}
	if !plan.NextGenerationDate.After(params.AsOf) {
		return nil
	}
	return ierr.NewError("installment cycle is not due yet").
		WithHintf("The next invoice of installment plan %s is due on %s", plan.ID, plan.NextGenerationDate).
		WithReportableDetails(map[string]any{
			"plan_id":              plan.ID,
			"as_of":                params.AsOf,
			"next_generation_date": plan.NextGenerationDate,
		}).
		Mark(ierr.ErrInvalidOperation)
}

// checkCycleOpen rejects an automatic run that bills a month before the
// plan's pointer, i.e. a cycle that has already been generated
func checkCycleOpen(plan *installment.Plan, dates *installment.CycleDates) error {
	if plan.NextInvoiceMonth == nil || !dates.InvoiceMonth.Before(*plan.NextInvoiceMonth) {
		return nil
	}
	return ierr.NewError("installment cycle already generated").
		WithHintf("The invoice for %s has already been generated for installment plan %s", dates.InvoiceMonth, plan.ID).
		WithReportableDetails(map[string]any{
			"plan_id":            plan.ID,
			"invoice_month":      dates.InvoiceMonth,
			"next_invoice_month": plan.NextInvoiceMonth,
		}).
		Mark(ierr.ErrInvalidOperation)
}

func (s *installmentService) autoDates(plan *installment.Plan, params *GenerateInvoiceParams) (*installment.CycleDates, error) {
	asOf := params.AsOf
	if asOf.IsZero() {
		asOf = types.Today()
	}
	if params.FromPointer {
		return s.calculator.ComputeFromPointer(plan, asOf)
	}
	return s.calculator.Compute(asOf, plan.FrequencyMonths)
}

// GetProgress serves the read model from cache when possible
func (s *installmentService) GetProgress(ctx context.Context, id string) (*installment.Progress, error) {
	key := progressCacheKey(ctx, id)
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if progress, ok := cached.(*installment.Progress); ok {
			return progress, nil
		}
	}

	plan, err := s.InstallmentRepo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	progress := s.tracker.Progress(plan)
	s.Cache.Set(ctx, key, progress, 0)
	return progress, nil
}

func (s *installmentService) ListInvoices(ctx context.Context, filter *types.InstallmentInvoiceFilter) (*dto.ListInstallmentInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInstallmentInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	// surface a missing plan as not found rather than an empty page
	if _, err := s.InstallmentRepo.GetPlan(ctx, filter.PlanID); err != nil {
		return nil, err
	}

	invoices, err := s.InstallmentRepo.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}

	count, err := s.InstallmentRepo.CountInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InstallmentInvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = dto.NewInstallmentInvoiceResponse(inv)
	}

	resp := types.NewListResponse(items, count, filter.GetLimit(), filter.GetOffset())
	return &resp, nil
}

// PreviewCycle returns the dates an automatic run anchored on anchor would
// use, without persisting anything
func (s *installmentService) PreviewCycle(ctx context.Context, id string, anchor types.Date) (*dto.PreviewInstallmentCycleResponse, error) {
	plan, err := s.InstallmentRepo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if anchor.IsZero() {
		anchor = types.Today()
	}

	dates, err := s.calculator.Compute(anchor, plan.FrequencyMonths)
	if err != nil {
		return nil, err
	}

	return &dto.PreviewInstallmentCycleResponse{
		PlanID:     plan.ID,
		AnchorDate: anchor,
		CycleDates: dates,
	}, nil
}

func progressCacheKey(ctx context.Context, planID string) string {
	return cache.GenerateKey(cache.PrefixInstallmentProgress, types.GetTenantID(ctx), planID)
}

func (s *installmentService) invalidateProgress(ctx context.Context, planID string) {
	s.Cache.Delete(ctx, progressCacheKey(ctx, planID))
}

// publishInvoiceEvent runs after commit; a failure here never undoes generation
func (s *installmentService) publishInvoiceEvent(ctx context.Context, invoice *installment.GeneratedInvoice) {
	s.publishWebhookEvent(ctx, types.WebhookEventInstallmentInvoiceGenerated, &webhookDto.InternalInstallmentInvoiceEvent{
		InvoiceID: invoice.ID,
		PlanID:    invoice.PlanID,
		TenantID:  invoice.TenantID,
	})
}

func (s *installmentService) publishPlanEvent(ctx context.Context, eventName string, plan *installment.Plan) {
	s.publishWebhookEvent(ctx, eventName, &webhookDto.InternalInstallmentPlanEvent{
		PlanID:   plan.ID,
		TenantID: plan.TenantID,
	})
}

func (s *installmentService) publishWebhookEvent(ctx context.Context, eventName string, payload any) {
	if s.WebhookPublisher == nil {
		s.Logger.Warnw("webhook publisher not initialized", "event", eventName)
		return
	}

	event, err := webhookPublisher.NewWebhookEvent(ctx, eventName, payload)
	if err != nil {
		s.Logger.Errorw("failed to build webhook event", "event", eventName, "error", err)
		return
	}

	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorf("failed to publish %s event: %v", event.EventName, err)
	}
}
