package service

import (
	"context"
	"sync"
	"testing"

	"github.com/branchschool/installments/internal/api/dto"
	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/testutil"
	"github.com/branchschool/installments/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InstallmentServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InstallmentService
	store   *testutil.InMemoryInstallmentStore
}

func TestInstallmentService(t *testing.T) {
	suite.Run(t, new(InstallmentServiceSuite))
}

func (s *InstallmentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.store = s.GetInstallmentStore()

	svc, err := NewInstallmentService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Cache:            s.GetCache(),
		Sentry:           s.GetSentry(),
		Profiler:         s.GetProfiler(),
		InstallmentRepo:  s.GetStores().InstallmentRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
	})
	s.Require().NoError(err)
	s.service = svc
}

func (s *InstallmentServiceSuite) createPlan(totalPhases *int, frequency int) *dto.InstallmentPlanResponse {
	resp, err := s.service.CreatePlan(s.GetContext(), &dto.CreateInstallmentPlanRequest{
		StudentID:         "stu_" + s.GetUUID(),
		EnrollmentID:      "enr_" + s.GetUUID(),
		FrequencyMonths:   frequency,
		TotalPhases:       totalPhases,
		InstallmentAmount: decimal.NewFromInt(1500000),
		Currency:          "IDR",
	})
	s.Require().NoError(err)
	return resp
}

// seedPlan stores a plan directly, e.g. with a schedule pointer already set
func (s *InstallmentServiceSuite) seedPlan(ctx context.Context, plan *installment.Plan) *installment.Plan {
	if plan.ID == "" {
		plan.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INSTALLMENT_PLAN)
	}
	if plan.EnrollmentID == "" {
		plan.EnrollmentID = "enr_" + s.GetUUID()
	}
	if plan.FrequencyMonths == 0 {
		plan.FrequencyMonths = 1
	}
	if plan.Version == 0 {
		plan.Version = 1
	}
	plan.Currency = "idr"
	plan.BaseModel = types.GetDefaultBaseModel(ctx)
	s.Require().NoError(s.store.CreatePlan(ctx, plan))
	return plan
}

func (s *InstallmentServiceSuite) generateAuto(planID, asOf string) (*GenerationResult, error) {
	return s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID: planID,
		Mode:   types.GenerationModeAuto,
		AsOf:   types.MustParseDate(asOf),
	})
}

func (s *InstallmentServiceSuite) webhookEvents() []string {
	return s.GetPubSub().EventNames(s.GetConfig().Webhook.Topic)
}

func (s *InstallmentServiceSuite) TestCreatePlan() {
	plan := s.createPlan(lo.ToPtr(3), 1)

	s.Equal(types.InstallmentPlanStateActive, plan.State)
	s.Equal(0, plan.GeneratedPhases)
	s.Equal(3, *plan.RemainingPhases)
	s.Nil(plan.NextGenerationDate)
	s.Equal("idr", plan.Currency)
	s.True(plan.InstallmentAmountInclTax.Equal(plan.InstallmentAmount))

	_, err := s.service.CreatePlan(s.GetContext(), &dto.CreateInstallmentPlanRequest{
		StudentID:         plan.StudentID,
		EnrollmentID:      plan.EnrollmentID,
		FrequencyMonths:   1,
		InstallmentAmount: decimal.NewFromInt(10),
		Currency:          "idr",
	})
	s.True(ierr.IsAlreadyExists(err))
}

func (s *InstallmentServiceSuite) TestCreatePlan_Validation() {
	tests := []struct {
		name  string
		req   *dto.CreateInstallmentPlanRequest
		field string
	}{
		{
			name: "zero frequency",
			req: &dto.CreateInstallmentPlanRequest{
				StudentID: "stu_1", EnrollmentID: "enr_1", Currency: "idr",
			},
			field: "frequency_months",
		},
		{
			name: "zero total phases",
			req: &dto.CreateInstallmentPlanRequest{
				StudentID: "stu_1", EnrollmentID: "enr_1", Currency: "idr",
				FrequencyMonths: 1, TotalPhases: lo.ToPtr(0),
			},
			field: "total_phases",
		},
		{
			name: "negative amount",
			req: &dto.CreateInstallmentPlanRequest{
				StudentID: "stu_1", EnrollmentID: "enr_1", Currency: "idr",
				FrequencyMonths: 1, InstallmentAmount: decimal.NewFromInt(-1),
			},
			field: "installment_amount",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreatePlan(s.GetContext(), tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
			s.Contains(ierr.ReportableDetails(err), tt.field)
		})
	}
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_AutoAnchorsOnAsOf() {
	plan := s.createPlan(lo.ToPtr(3), 1)

	result, err := s.generateAuto(plan.ID, "2026-02-09")
	s.Require().NoError(err)

	inv := result.Invoice
	s.Equal(1, inv.PhaseNumber)
	s.Equal("2026-02-09", inv.IssueDate.String())
	s.Equal("2026-03-01", inv.InvoiceMonth.String())
	s.Equal("2026-03-25", inv.GenerationDate.String())
	s.Equal("2026-04-05", inv.DueDate.String())
	s.Equal(types.GenerationModeAuto, inv.GenerationMode)
	s.True(inv.AmountExclTax.Equal(decimal.NewFromInt(1500000)))

	s.Equal(1, result.Plan.GeneratedPhases)
	s.Equal(2, result.Plan.Version)
	s.Equal("2026-04-25", result.Plan.NextGenerationDate.String())
	s.Equal("2026-04-01", result.Plan.NextInvoiceMonth.String())
	s.Equal(2, *result.Progress.RemainingPhases)

	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.GeneratedPhases)
	s.Equal("2026-04-25", stored.NextGenerationDate.String())

	s.Equal([]string{types.WebhookEventInstallmentInvoiceGenerated}, s.webhookEvents())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_StopsAtPhaseLimit() {
	plan := s.createPlan(lo.ToPtr(3), 1)

	for _, asOf := range []string{"2026-01-10", "2026-02-10", "2026-03-10"} {
		_, err := s.generateAuto(plan.ID, asOf)
		s.Require().NoError(err)
	}

	progress, err := s.service.GetProgress(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(types.InstallmentPlanStateExhausted, progress.State)
	s.Equal(0, *progress.RemainingPhases)

	// repeated attempts keep failing the same way and write nothing
	for i := 0; i < 3; i++ {
		_, err := s.generateAuto(plan.ID, "2026-04-10")
		s.Require().Error(err)
		s.True(ierr.IsPhaseLimitReached(err))
		s.Equal(installment.FailurePhaseLimitReached, installment.ClassifyFailure(err))
		s.Equal(ierr.ErrCodePhaseLimitReached, ierr.ErrorCode(err))
	}

	s.Equal(3, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(3, stored.GeneratedPhases)

	s.Equal([]string{
		types.WebhookEventInstallmentInvoiceGenerated,
		types.WebhookEventInstallmentInvoiceGenerated,
		types.WebhookEventInstallmentInvoiceGenerated,
		types.WebhookEventInstallmentPlanExhausted,
	}, s.webhookEvents())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_UnboundedNeverExhausts() {
	plan := s.createPlan(nil, 2)

	asOf := types.MustParseDate("2025-01-15")
	for i := 0; i < 15; i++ {
		result, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
			PlanID: plan.ID,
			Mode:   types.GenerationModeAuto,
			AsOf:   asOf.AddMonths(i * 2),
		})
		s.Require().NoError(err)
		s.Equal(i+1, result.Invoice.PhaseNumber)
		s.False(result.Progress.Bounded)
		s.Nil(result.Progress.RemainingPhases)
	}

	s.Equal(15, s.store.InvoiceCount())
	s.NotContains(s.webhookEvents(), types.WebhookEventInstallmentPlanExhausted)
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_NotFound() {
	_, err := s.generateAuto("iplan_missing", "2026-02-09")
	s.True(ierr.IsNotFound(err))
	s.Equal(installment.FailureNotFound, installment.ClassifyFailure(err))

	// plans of another tenant are invisible
	plan := s.createPlan(lo.ToPtr(2), 1)
	otherTenant := types.SetTenantID(s.GetContext(), "tenant_other")
	_, err = s.service.GenerateInvoice(otherTenant, &GenerateInvoiceParams{
		PlanID: plan.ID,
		Mode:   types.GenerationModeAuto,
	})
	s.True(ierr.IsNotFound(err))
	s.Equal(0, s.store.InvoiceCount())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_InvalidMode() {
	plan := s.createPlan(lo.ToPtr(2), 1)
	_, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID: plan.ID,
		Mode:   types.GenerationMode("weekly"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_ManualReportsEveryBadField() {
	plan := s.createPlan(lo.ToPtr(2), 1)

	_, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID: plan.ID,
		Mode:   types.GenerationModeManual,
		Override: &installment.ManualOverrideInput{
			IssueDate:          "2026-02-30",
			InvoiceMonth:       "2026-03-01",
			NextIssueDate:      "2026-04-25",
			NextDueDate:        "05/05/2026",
			NextInvoiceMonth:   "2026-04-01",
			NextGenerationDate: "2026-04-25",
		},
	})
	s.Require().Error(err)
	s.True(ierr.IsValidation(err))

	verrs, ok := installment.OverrideErrors(err)
	s.Require().True(ok)
	s.Contains(verrs, installment.FieldIssueDate)
	s.Contains(verrs, installment.FieldDueDate)
	s.Contains(verrs, installment.FieldNextDueDate)
	s.NotContains(verrs, installment.FieldInvoiceMonth)

	details := ierr.ReportableDetails(err)
	s.Contains(details, installment.FieldIssueDate)
	s.Contains(details, installment.FieldDueDate)

	s.Equal(0, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.GeneratedPhases)
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_ManualTakesDatesVerbatim() {
	plan := s.createPlan(lo.ToPtr(2), 1)

	result, err := s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID: plan.ID,
		Mode:   types.GenerationModeManual,
		Override: &installment.ManualOverrideInput{
			IssueDate:          "2026-02-17",
			DueDate:            "2026-03-12",
			InvoiceMonth:       "2026-03-03",
			NextIssueDate:      "2026-04-20",
			NextDueDate:        "2026-05-12",
			NextInvoiceMonth:   "2026-04-03",
			NextGenerationDate: "2026-04-20",
		},
	})
	s.Require().NoError(err)

	inv := result.Invoice
	s.Equal(types.GenerationModeManual, inv.GenerationMode)
	s.Equal("2026-02-17", inv.IssueDate.String())
	s.Equal("2026-02-17", inv.GenerationDate.String())
	s.Equal("2026-03-12", inv.DueDate.String())
	s.Equal("2026-03-03", inv.InvoiceMonth.String())
	s.Equal("2026-04-20", result.Plan.NextGenerationDate.String())
	s.Equal("2026-04-03", result.Plan.NextInvoiceMonth.String())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_RollsBackOnPersistenceFailure() {
	plan := s.createPlan(lo.ToPtr(2), 1)

	dbErr := ierr.NewError("connection reset").Mark(ierr.ErrDatabase)
	s.store.FailOn(testutil.OpAdvanceSchedule, dbErr)

	_, err := s.generateAuto(plan.ID, "2026-02-09")
	s.Require().Error(err)
	s.True(ierr.IsDatabase(err))
	s.Equal(installment.FailurePersistence, installment.ClassifyFailure(err))
	s.True(installment.ClassifyFailure(err).Retryable())

	// the invoice written before the failure was rolled back with the plan
	s.Equal(0, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.GeneratedPhases)
	s.Equal(1, stored.Version)
	s.Nil(stored.NextGenerationDate)
	s.Empty(s.webhookEvents())

	s.store.FailOn(testutil.OpAdvanceSchedule, nil)
	result, err := s.generateAuto(plan.ID, "2026-02-09")
	s.Require().NoError(err)
	s.Equal(1, result.Invoice.PhaseNumber)
	s.Equal(1, s.store.InvoiceCount())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_ConcurrentCallsRespectLimit() {
	plan := s.createPlan(lo.ToPtr(1), 1)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		limited   int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.generateAuto(plan.ID, "2026-02-09")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case ierr.IsPhaseLimitReached(err):
				limited++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(workers-1, limited)
	s.Equal(1, s.store.InvoiceCount())

	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.GeneratedPhases)
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_SameCycleIsBilledOnce() {
	plan := s.createPlan(lo.ToPtr(3), 1)

	first, err := s.generateAuto(plan.ID, "2026-02-09")
	s.Require().NoError(err)
	s.Equal("2026-03-01", first.Invoice.InvoiceMonth.String())

	// a second run in the same month would bill March again
	_, err = s.generateAuto(plan.ID, "2026-02-20")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(installment.FailureIneligible, installment.ClassifyFailure(err))

	s.Equal(1, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.GeneratedPhases)
	s.Equal("2026-04-01", stored.NextInvoiceMonth.String())

	// the next month bills the next cycle
	second, err := s.generateAuto(plan.ID, "2026-03-10")
	s.Require().NoError(err)
	s.Equal("2026-04-01", second.Invoice.InvoiceMonth.String())
	s.Equal(2, second.Invoice.PhaseNumber)
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_SweepSkipsPointerAdvancedByAnotherRun() {
	pointer := func(d string) *types.Date { return lo.ToPtr(types.MustParseDate(d)) }
	plan := s.seedPlan(s.GetContext(), &installment.Plan{
		TotalPhases:        lo.ToPtr(6),
		GeneratedPhases:    1,
		NextGenerationDate: pointer("2026-04-25"),
		NextInvoiceMonth:   pointer("2026-04-01"),
	})

	// an operator run commits after the sweep listed the plan as due
	_, err := s.generateAuto(plan.ID, "2026-04-25")
	s.Require().NoError(err)

	_, err = s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID:      plan.ID,
		Mode:        types.GenerationModeAuto,
		AsOf:        types.MustParseDate("2026-04-25"),
		FromPointer: true,
	})
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(installment.FailureIneligible, installment.ClassifyFailure(err))

	s.Equal(1, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.GeneratedPhases)
	s.Equal("2026-06-25", stored.NextGenerationDate.String())
}

func (s *InstallmentServiceSuite) TestGenerateInvoice_DownpaymentGate() {
	resp, err := s.service.CreatePlan(s.GetContext(), &dto.CreateInstallmentPlanRequest{
		StudentID:         "stu_dp",
		EnrollmentID:      "enr_dp",
		FrequencyMonths:   1,
		TotalPhases:       lo.ToPtr(3),
		InstallmentAmount: decimal.NewFromInt(500),
		Currency:          "idr",
		DownpaymentAmount: lo.ToPtr(decimal.NewFromInt(1000)),
	})
	s.Require().NoError(err)
	s.Equal(types.InstallmentPlanStateAwaitingDownpayment, resp.State)

	_, err = s.generateAuto(resp.ID, "2026-02-09")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(installment.FailureIneligible, installment.ClassifyFailure(err))

	// an operator may bill before the downpayment clears
	_, err = s.service.GenerateInvoice(s.GetContext(), &GenerateInvoiceParams{
		PlanID: resp.ID,
		Mode:   types.GenerationModeManual,
		Override: &installment.ManualOverrideInput{
			IssueDate:          "2026-02-09",
			DueDate:            "2026-03-05",
			InvoiceMonth:       "2026-03-01",
			NextIssueDate:      "2026-03-25",
			NextDueDate:        "2026-04-05",
			NextInvoiceMonth:   "2026-04-01",
			NextGenerationDate: "2026-03-25",
		},
	})
	s.Require().NoError(err)

	activated, err := s.service.MarkDownpaymentPaid(s.GetContext(), resp.ID, &dto.MarkDownpaymentPaidRequest{})
	s.Require().NoError(err)
	s.Equal(types.InstallmentPlanStateActive, activated.State)
	s.NotNil(activated.DownpaymentPaidAt)

	_, err = s.generateAuto(resp.ID, "2026-03-25")
	s.Require().NoError(err)

	s.Equal([]string{
		types.WebhookEventInstallmentInvoiceGenerated,
		types.WebhookEventInstallmentPlanActivated,
		types.WebhookEventInstallmentInvoiceGenerated,
	}, s.webhookEvents())
}

func (s *InstallmentServiceSuite) TestMarkDownpaymentPaid() {
	s.Run("plan without downpayment", func() {
		plan := s.createPlan(lo.ToPtr(2), 1)
		_, err := s.service.MarkDownpaymentPaid(s.GetContext(), plan.ID, nil)
		s.True(ierr.IsInvalidOperation(err))
	})

	s.Run("repeat is a no-op", func() {
		plan := s.seedPlan(s.GetContext(), &installment.Plan{
			DownpaymentAmount: lo.ToPtr(decimal.NewFromInt(100)),
		})

		first, err := s.service.MarkDownpaymentPaid(s.GetContext(), plan.ID, nil)
		s.Require().NoError(err)
		second, err := s.service.MarkDownpaymentPaid(s.GetContext(), plan.ID, nil)
		s.Require().NoError(err)

		s.Equal(first.Version, second.Version)
		s.Equal(first.DownpaymentPaidAt.Unix(), second.DownpaymentPaidAt.Unix())
	})

	s.Run("missing plan", func() {
		_, err := s.service.MarkDownpaymentPaid(s.GetContext(), "iplan_missing", nil)
		s.True(ierr.IsNotFound(err))
	})
}

func (s *InstallmentServiceSuite) TestGetProgress_RefreshedAfterGeneration() {
	plan := s.createPlan(lo.ToPtr(2), 1)

	before, err := s.service.GetProgress(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(0, before.GeneratedPhases)

	_, err = s.generateAuto(plan.ID, "2026-02-09")
	s.Require().NoError(err)

	after, err := s.service.GetProgress(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(1, after.GeneratedPhases)
	s.Equal(1, *after.RemainingPhases)
	s.Equal("2026-04-25", after.NextGenerationDate.String())
}

func (s *InstallmentServiceSuite) TestListInvoices() {
	plan := s.createPlan(nil, 1)
	for _, asOf := range []string{"2026-01-10", "2026-02-10", "2026-03-10", "2026-04-10"} {
		_, err := s.generateAuto(plan.ID, asOf)
		s.Require().NoError(err)
	}

	filter := types.NewInstallmentInvoiceFilter()
	filter.PlanID = plan.ID
	filter.Limit = lo.ToPtr(3)
	filter.Order = lo.ToPtr(types.OrderDesc)

	resp, err := s.service.ListInvoices(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Equal(4, resp.Pagination.Total)
	s.Require().Len(resp.Items, 3)
	s.Equal(4, resp.Items[0].PhaseNumber)
	s.Equal(2, resp.Items[2].PhaseNumber)

	filter.Offset = lo.ToPtr(3)
	resp, err = s.service.ListInvoices(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(1, resp.Items[0].PhaseNumber)

	_, err = s.service.ListInvoices(s.GetContext(), &types.InstallmentInvoiceFilter{PlanID: "iplan_missing"})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.ListInvoices(s.GetContext(), types.NewInstallmentInvoiceFilter())
	s.True(ierr.IsValidation(err))
}

func (s *InstallmentServiceSuite) TestPreviewCycle() {
	plan := s.createPlan(lo.ToPtr(2), 3)

	preview, err := s.service.PreviewCycle(s.GetContext(), plan.ID, types.MustParseDate("2025-12-31"))
	s.Require().NoError(err)
	s.Equal("2026-01-01", preview.InvoiceMonth.String())
	s.Equal("2026-04-01", preview.NextInvoiceMonth.String())

	s.Equal(0, s.store.InvoiceCount())
	stored, err := s.store.GetPlan(s.GetContext(), plan.ID)
	s.Require().NoError(err)
	s.Equal(0, stored.GeneratedPhases)
}

func (s *InstallmentServiceSuite) TestGenerateDueInvoices() {
	cfg := s.GetConfig()
	batch := cfg.Billing.Sweep.BatchSize
	cfg.Billing.Sweep.BatchSize = 1
	defer func() { cfg.Billing.Sweep.BatchSize = batch }()

	pointer := func(d string) *types.Date { return lo.ToPtr(types.MustParseDate(d)) }

	due := s.seedPlan(s.GetContext(), &installment.Plan{
		TotalPhases:        lo.ToPtr(6),
		GeneratedPhases:    1,
		NextGenerationDate: pointer("2026-04-25"),
		NextInvoiceMonth:   pointer("2026-04-01"),
	})
	notYet := s.seedPlan(s.GetContext(), &installment.Plan{
		NextGenerationDate: pointer("2026-05-25"),
		NextInvoiceMonth:   pointer("2026-05-01"),
	})
	exhausted := s.seedPlan(s.GetContext(), &installment.Plan{
		TotalPhases:        lo.ToPtr(1),
		GeneratedPhases:    1,
		NextGenerationDate: pointer("2026-03-25"),
		NextInvoiceMonth:   pointer("2026-03-01"),
	})
	unpaid := s.seedPlan(s.GetContext(), &installment.Plan{
		DownpaymentAmount:  lo.ToPtr(decimal.NewFromInt(100)),
		NextGenerationDate: pointer("2026-04-25"),
		NextInvoiceMonth:   pointer("2026-04-01"),
	})
	otherTenantCtx := types.SetTenantID(s.GetContext(), "tenant_b")
	otherTenant := s.seedPlan(otherTenantCtx, &installment.Plan{
		FrequencyMonths:    2,
		NextGenerationDate: pointer("2026-04-25"),
		NextInvoiceMonth:   pointer("2026-04-01"),
	})

	resp, err := s.service.GenerateDueInvoices(s.GetContext(), types.MustParseDate("2026-04-30"))
	s.Require().NoError(err)
	s.Equal(2, resp.Scanned)
	s.Equal(2, resp.Generated)
	s.Equal(0, resp.Failed)

	generated := lo.Map(resp.Outcomes, func(o *dto.InstallmentSweepOutcome, _ int) string { return o.PlanID })
	s.ElementsMatch([]string{due.ID, otherTenant.ID}, generated)
	s.NotContains(generated, notYet.ID)
	s.NotContains(generated, exhausted.ID)
	s.NotContains(generated, unpaid.ID)

	// the late run still bills the month the plan was waiting on
	advanced, err := s.store.GetPlan(s.GetContext(), due.ID)
	s.Require().NoError(err)
	s.Equal(2, advanced.GeneratedPhases)
	s.Equal("2026-05-01", advanced.NextInvoiceMonth.String())
	s.Equal("2026-05-25", advanced.NextGenerationDate.String())

	invoices, err := s.service.ListInvoices(s.GetContext(), &types.InstallmentInvoiceFilter{
		QueryFilter: types.NewDefaultQueryFilter(),
		PlanID:      due.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(invoices.Items, 1)
	s.Equal("2026-04-01", invoices.Items[0].InvoiceMonth.String())
	s.Equal("2026-04-25", invoices.Items[0].IssueDate.String())
	s.Equal(2, invoices.Items[0].PhaseNumber)

	b, err := s.store.GetPlan(otherTenantCtx, otherTenant.ID)
	s.Require().NoError(err)
	s.Equal("2026-06-01", b.NextInvoiceMonth.String())

	// nothing is due twice for the same date
	again, err := s.service.GenerateDueInvoices(s.GetContext(), types.MustParseDate("2026-04-30"))
	s.Require().NoError(err)
	s.Equal(0, again.Scanned)
}

func (s *InstallmentServiceSuite) TestGenerateDueInvoices_FailuresDoNotStopSweep() {
	pointer := func(d string) *types.Date { return lo.ToPtr(types.MustParseDate(d)) }
	for i := 0; i < 3; i++ {
		s.seedPlan(s.GetContext(), &installment.Plan{
			NextGenerationDate: pointer("2026-04-25"),
			NextInvoiceMonth:   pointer("2026-04-01"),
		})
	}

	s.store.FailOn(testutil.OpCreateInvoice, ierr.NewError("disk full").Mark(ierr.ErrDatabase))

	resp, err := s.service.GenerateDueInvoices(s.GetContext(), types.MustParseDate("2026-04-25"))
	s.Require().NoError(err)
	s.Equal(3, resp.Scanned)
	s.Equal(3, resp.Failed)
	for _, o := range resp.Outcomes {
		s.Equal(string(installment.FailurePersistence), o.Failure)
	}
	s.Equal(0, s.store.InvoiceCount())

	s.store.FailOn(testutil.OpListDuePlans, ierr.NewError("down").Mark(ierr.ErrDatabase))
	_, err = s.service.GenerateDueInvoices(s.GetContext(), types.MustParseDate("2026-04-25"))
	s.True(ierr.IsDatabase(err))
}
