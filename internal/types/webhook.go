package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the envelope published on the webhook topic
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	TenantID  string          `json:"tenant_id"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	WebhookEventInstallmentInvoiceGenerated = "installment_invoice.generated"
	WebhookEventInstallmentPlanExhausted    = "installment_plan.exhausted"
	WebhookEventInstallmentPlanActivated    = "installment_plan.activated"
)
