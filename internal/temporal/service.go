package temporal

import (
	"context"

	"github.com/branchschool/installments/internal/config"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/temporal/models"
	"github.com/branchschool/installments/internal/temporal/workflows"
	"go.temporal.io/sdk/client"
)

const sweepWorkflowID = "installment-sweep"

// Service handles Temporal workflow operations
type Service struct {
	client *TemporalClient
	log    *logger.Logger
	cfg    *config.TemporalConfig
}

// NewService creates a new Temporal service
func NewService(client *TemporalClient, cfg *config.Configuration, log *logger.Logger) *Service {
	return &Service{
		client: client,
		log:    log,
		cfg:    &cfg.Temporal,
	}
}

// EnsureSweepSchedule starts the cron sweep workflow. A run that is already
// scheduled under the same workflow ID is left as is.
func (s *Service) EnsureSweepSchedule(ctx context.Context) error {
	workflowOptions := client.StartWorkflowOptions{
		ID:           sweepWorkflowID,
		TaskQueue:    s.cfg.TaskQueue,
		CronSchedule: s.cfg.SweepSchedule,
	}

	we, err := s.client.Client.ExecuteWorkflow(ctx, workflowOptions, workflows.InstallmentSweepWorkflowName, models.InstallmentSweepWorkflowInput{})
	if err != nil {
		s.log.Errorw("failed to schedule installment sweep", "error", err)
		return ierr.WithError(err).
			WithHint("Failed to schedule the installment sweep workflow").
			Mark(ierr.ErrSystem)
	}

	s.log.Infow("installment sweep scheduled",
		"workflow_id", we.GetID(),
		"run_id", we.GetRunID(),
		"schedule", s.cfg.SweepSchedule,
	)
	return nil
}

// Close closes the temporal client
func (s *Service) Close() {
	if s.client != nil {
		s.client.Close()
	}
}
