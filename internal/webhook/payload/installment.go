package payload

import (
	"context"
	"encoding/json"

	"github.com/branchschool/installments/internal/api/dto"
	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	webhookDto "github.com/branchschool/installments/internal/webhook/dto"
)

type InstallmentInvoicePayloadBuilder struct {
	repo installment.Repository
}

func NewInstallmentInvoicePayloadBuilder(repo installment.Repository) PayloadBuilder {
	return &InstallmentInvoicePayloadBuilder{repo: repo}
}

// BuildPayload loads the generated invoice and its plan as of delivery time
func (b *InstallmentInvoicePayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsed webhookDto.InternalInstallmentInvoiceEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal installment invoice event payload").
			Mark(ierr.ErrValidation)
	}

	if parsed.InvoiceID == "" || parsed.PlanID == "" {
		return nil, ierr.NewError("invalid installment invoice event").
			WithHint("Please provide a valid invoice ID and plan ID").
			WithReportableDetails(map[string]any{
				"invoice_id": parsed.InvoiceID,
				"plan_id":    parsed.PlanID,
			}).
			Mark(ierr.ErrValidation)
	}

	invoice, err := b.repo.GetInvoice(ctx, parsed.InvoiceID)
	if err != nil {
		return nil, err
	}

	plan, err := b.repo.GetPlan(ctx, parsed.PlanID)
	if err != nil {
		return nil, err
	}

	return json.Marshal(webhookDto.NewInstallmentInvoiceWebhookPayload(
		dto.NewInstallmentInvoiceResponse(invoice),
		dto.NewInstallmentPlanResponse(plan),
		eventType,
	))
}

type InstallmentPlanPayloadBuilder struct {
	repo installment.Repository
}

func NewInstallmentPlanPayloadBuilder(repo installment.Repository) PayloadBuilder {
	return &InstallmentPlanPayloadBuilder{repo: repo}
}

func (b *InstallmentPlanPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsed webhookDto.InternalInstallmentPlanEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal installment plan event payload").
			Mark(ierr.ErrValidation)
	}

	if parsed.PlanID == "" {
		return nil, ierr.NewError("invalid installment plan event").
			WithHint("Please provide a valid plan ID").
			Mark(ierr.ErrValidation)
	}

	plan, err := b.repo.GetPlan(ctx, parsed.PlanID)
	if err != nil {
		return nil, err
	}

	return json.Marshal(webhookDto.NewInstallmentPlanWebhookPayload(
		dto.NewInstallmentPlanResponse(plan),
		eventType,
	))
}
