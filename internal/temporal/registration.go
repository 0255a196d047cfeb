package temporal

import (
	"github.com/branchschool/installments/internal/temporal/activities"
	"github.com/branchschool/installments/internal/temporal/workflows"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
)

// RegisterWorkflowsAndActivities registers all workflows and activities with a Temporal worker.
func RegisterWorkflowsAndActivities(w worker.Registry, installmentActivities *activities.InstallmentActivities) {
	w.RegisterWorkflowWithOptions(workflows.InstallmentSweepWorkflow, workflow.RegisterOptions{
		Name: workflows.InstallmentSweepWorkflowName,
	})
	w.RegisterActivityWithOptions(installmentActivities.GenerateDueInvoices, activity.RegisterOptions{
		Name: activities.ActivityGenerateDueInvoices,
	})
}
