package workflows

import (
	"time"

	"github.com/branchschool/installments/internal/temporal/activities"
	"github.com/branchschool/installments/internal/temporal/models"
	"github.com/branchschool/installments/internal/types"
	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const dateLayout = "2006-01-02"

var InstallmentSweepWorkflowName = types.TemporalInstallmentSweepWorkflow.String()

// InstallmentSweepWorkflow generates the invoices of every due plan as of
// the input date, or as of the day the run started
func InstallmentSweepWorkflow(ctx workflow.Context, input models.InstallmentSweepWorkflowInput) (*models.InstallmentSweepResult, error) {
	logger := workflow.GetLogger(ctx)

	asOf := input.AsOf
	if asOf == "" {
		asOf = workflow.Now(ctx).UTC().Format(dateLayout)
	}
	logger.Info("Starting installment sweep workflow", "asOf", asOf)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute * 30,
		RetryPolicy: &temporalsdk.RetryPolicy{
			InitialInterval:    time.Second * 30,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute * 10,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var result models.InstallmentSweepResult
	err := workflow.ExecuteActivity(ctx, activities.ActivityGenerateDueInvoices, models.GenerateDueInvoicesActivityInput{
		AsOf: asOf,
	}).Get(ctx, &result)
	if err != nil {
		logger.Error("Installment sweep failed", "asOf", asOf, "error", err)
		return nil, err
	}

	logger.Info("Installment sweep completed",
		"asOf", result.AsOf,
		"scanned", result.Scanned,
		"generated", result.Generated,
		"failed", result.Failed)

	return &result, nil
}
