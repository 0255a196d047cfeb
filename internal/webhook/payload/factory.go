package payload

import (
	"fmt"

	"github.com/branchschool/installments/internal/domain/installment"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/types"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
	repo     installment.Repository
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory(repo installment.Repository) PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
		repo:     repo,
	}

	f.builders[types.WebhookEventInstallmentInvoiceGenerated] = func() PayloadBuilder {
		return NewInstallmentInvoicePayloadBuilder(f.repo)
	}
	f.builders[types.WebhookEventInstallmentPlanExhausted] = func() PayloadBuilder {
		return NewInstallmentPlanPayloadBuilder(f.repo)
	}
	f.builders[types.WebhookEventInstallmentPlanActivated] = func() PayloadBuilder {
		return NewInstallmentPlanPayloadBuilder(f.repo)
	}

	return f
}

// GetBuilder returns a payload builder for the given event type
func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, ierr.NewError(fmt.Sprintf("no builder registered for event type: %s", eventType)).
			WithHint("Unsupported webhook event").
			WithReportableDetails(map[string]any{"event_type": eventType}).
			Mark(ierr.ErrValidation)
	}

	return builderFn(), nil
}
