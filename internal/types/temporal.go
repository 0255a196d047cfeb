package types

// TemporalTaskQueue represents a logical grouping of workflows and activities
type TemporalTaskQueue string

const (
	TemporalTaskQueueInstallment TemporalTaskQueue = "installment"
)

// String returns the string representation of the task queue
func (tq TemporalTaskQueue) String() string {
	return string(tq)
}

// TemporalWorkflowType represents the type of workflow
type TemporalWorkflowType string

const (
	TemporalInstallmentSweepWorkflow TemporalWorkflowType = "InstallmentSweepWorkflow"
)

func (w TemporalWorkflowType) String() string {
	return string(w)
}
