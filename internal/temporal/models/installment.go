package models

// InstallmentSweepWorkflowInput pins the sweep date. Scheduled runs leave
// AsOf empty and sweep as of the workflow's start date.
type InstallmentSweepWorkflowInput struct {
	AsOf string `json:"as_of,omitempty"`
}

type GenerateDueInvoicesActivityInput struct {
	AsOf string `json:"as_of"`
}

// InstallmentSweepResult is the part of a sweep summary kept in workflow
// history. FailedPlanIDs lists the plans that hit a retryable failure.
type InstallmentSweepResult struct {
	AsOf          string   `json:"as_of"`
	Scanned       int      `json:"scanned"`
	Generated     int      `json:"generated"`
	Skipped       int      `json:"skipped"`
	Failed        int      `json:"failed"`
	FailedPlanIDs []string `json:"failed_plan_ids,omitempty"`
}
