package activities

import (
	"context"

	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/service"
	"github.com/branchschool/installments/internal/temporal/models"
	"github.com/branchschool/installments/internal/types"
	"go.temporal.io/sdk/temporal"
)

const (
	ActivityGenerateDueInvoices = "GenerateDueInvoices"

	errTypeInvalidInput = "InvalidInput"
)

// InstallmentActivities contains the installment activities. When registered
// with Temporal, methods are called by their method name.
type InstallmentActivities struct {
	installmentService service.InstallmentService
	logger             *logger.Logger
}

func NewInstallmentActivities(installmentService service.InstallmentService, logger *logger.Logger) *InstallmentActivities {
	return &InstallmentActivities{
		installmentService: installmentService,
		logger:             logger,
	}
}

// GenerateDueInvoices runs one sweep. A retried attempt only picks up the
// plans whose pointer the previous attempt did not advance.
func (a *InstallmentActivities) GenerateDueInvoices(ctx context.Context, input models.GenerateDueInvoicesActivityInput) (*models.InstallmentSweepResult, error) {
	asOf, err := types.ParseDate(input.AsOf)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"as_of must be a date in YYYY-MM-DD format", errTypeInvalidInput, err)
	}

	resp, err := a.installmentService.GenerateDueInvoices(ctx, asOf)
	if err != nil {
		a.logger.Errorw("installment sweep activity failed", "error", err, "as_of", input.AsOf)
		return nil, err
	}

	result := &models.InstallmentSweepResult{
		AsOf:      resp.AsOf.String(),
		Scanned:   resp.Scanned,
		Generated: resp.Generated,
		Skipped:   resp.Skipped,
		Failed:    resp.Failed,
	}
	for _, outcome := range resp.Outcomes {
		if installment.FailureKind(outcome.Failure).Retryable() {
			result.FailedPlanIDs = append(result.FailedPlanIDs, outcome.PlanID)
		}
	}
	return result, nil
}
