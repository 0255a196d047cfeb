package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/branchschool/installments/internal/api/dto"
	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/service"
	"github.com/branchschool/installments/internal/temporal/activities"
	"github.com/branchschool/installments/internal/temporal/models"
	"github.com/branchschool/installments/internal/types"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

// sweepOnlyService answers GenerateDueInvoices; every other method panics
type sweepOnlyService struct {
	service.InstallmentService
	calls []types.Date
	err   error
}

func (f *sweepOnlyService) GenerateDueInvoices(_ context.Context, asOf types.Date) (*dto.GenerateDueInstallmentsResponse, error) {
	f.calls = append(f.calls, asOf)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.GenerateDueInstallmentsResponse{
		AsOf:      asOf,
		Scanned:   3,
		Generated: 1,
		Skipped:   1,
		Failed:    1,
		Outcomes: []*dto.InstallmentSweepOutcome{
			{PlanID: "iplan_a", InvoiceID: "iinv_a"},
			{PlanID: "iplan_b", Failure: string(installment.FailurePhaseLimitReached), Error: "limit"},
			{PlanID: "iplan_c", Failure: string(installment.FailurePersistence), Error: "db down"},
		},
	}, nil
}

type InstallmentSweepWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env     *testsuite.TestWorkflowEnvironment
	service *sweepOnlyService
}

func TestInstallmentSweepWorkflow(t *testing.T) {
	suite.Run(t, new(InstallmentSweepWorkflowSuite))
}

func (s *InstallmentSweepWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.service = &sweepOnlyService{}

	acts := activities.NewInstallmentActivities(s.service, logger.NewNopLogger())
	s.env.RegisterWorkflowWithOptions(InstallmentSweepWorkflow, workflow.RegisterOptions{Name: InstallmentSweepWorkflowName})
	s.env.RegisterActivityWithOptions(acts.GenerateDueInvoices, activity.RegisterOptions{Name: activities.ActivityGenerateDueInvoices})
}

func (s *InstallmentSweepWorkflowSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func (s *InstallmentSweepWorkflowSuite) TestSweepsAsOfInputDate() {
	s.env.ExecuteWorkflow(InstallmentSweepWorkflow, models.InstallmentSweepWorkflowInput{AsOf: "2026-04-25"})

	s.True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var result models.InstallmentSweepResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.Equal("2026-04-25", result.AsOf)
	s.Equal(3, result.Scanned)
	s.Equal(1, result.Generated)
	s.Equal([]string{"iplan_c"}, result.FailedPlanIDs)

	s.Require().Len(s.service.calls, 1)
	s.Equal(types.MustParseDate("2026-04-25"), s.service.calls[0])
}

func (s *InstallmentSweepWorkflowSuite) TestScheduledRunSweepsAsOfStartDate() {
	s.env.SetStartTime(time.Date(2026, 5, 25, 1, 0, 0, 0, time.UTC))

	s.env.ExecuteWorkflow(InstallmentSweepWorkflow, models.InstallmentSweepWorkflowInput{})

	s.Require().NoError(s.env.GetWorkflowError())
	var result models.InstallmentSweepResult
	s.Require().NoError(s.env.GetWorkflowResult(&result))
	s.Equal("2026-05-25", result.AsOf)
}

func (s *InstallmentSweepWorkflowSuite) TestInvalidDateIsNotRetried() {
	s.env.ExecuteWorkflow(InstallmentSweepWorkflow, models.InstallmentSweepWorkflowInput{AsOf: "25/04/2026"})

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Empty(s.service.calls)
}

func (s *InstallmentSweepWorkflowSuite) TestSweepErrorsAreRetried() {
	s.service.err = errors.New("connection refused")

	s.env.ExecuteWorkflow(InstallmentSweepWorkflow, models.InstallmentSweepWorkflowInput{AsOf: "2026-04-25"})

	s.Error(s.env.GetWorkflowError())
	s.Len(s.service.calls, 3)
}
