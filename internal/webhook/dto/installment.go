package webhookDto

import "github.com/branchschool/installments/internal/api/dto"

// InternalInstallmentInvoiceEvent is published after an invoice generation commits
type InternalInstallmentInvoiceEvent struct {
	InvoiceID string `json:"invoice_id"`
	PlanID    string `json:"plan_id"`
	TenantID  string `json:"tenant_id"`
}

// InternalInstallmentPlanEvent is published when a plan changes lifecycle state
type InternalInstallmentPlanEvent struct {
	PlanID   string `json:"plan_id"`
	TenantID string `json:"tenant_id"`
}

type InstallmentInvoiceWebhookPayload struct {
	EventType string                          `json:"event_type"`
	Invoice   *dto.InstallmentInvoiceResponse `json:"invoice"`
	Plan      *dto.InstallmentPlanResponse    `json:"plan"`
}

func NewInstallmentInvoiceWebhookPayload(invoice *dto.InstallmentInvoiceResponse, plan *dto.InstallmentPlanResponse, eventType string) *InstallmentInvoiceWebhookPayload {
	return &InstallmentInvoiceWebhookPayload{EventType: eventType, Invoice: invoice, Plan: plan}
}

type InstallmentPlanWebhookPayload struct {
	EventType string                       `json:"event_type"`
	Plan      *dto.InstallmentPlanResponse `json:"plan"`
}

func NewInstallmentPlanWebhookPayload(plan *dto.InstallmentPlanResponse, eventType string) *InstallmentPlanWebhookPayload {
	return &InstallmentPlanWebhookPayload{EventType: eventType, Plan: plan}
}
