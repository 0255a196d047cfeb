package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/httpclient"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/pubsub"
	pubsubRouter "github.com/branchschool/installments/internal/pubsub/router"
	"github.com/branchschool/installments/internal/svix"
	"github.com/branchschool/installments/internal/types"
	"github.com/branchschool/installments/internal/webhook/payload"
)

const handlerName = "webhook_handler"

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

// svixSender is the part of the svix client the handler delivers through
type svixSender interface {
	IsEnabled() bool
	GetOrCreateApplication(ctx context.Context, tenantID string) (string, error)
	SendMessage(ctx context.Context, applicationID string, eventType string, payload json.RawMessage) error
}

type handler struct {
	pubSub     pubsub.PubSub
	config     *config.Webhook
	factory    payload.PayloadBuilderFactory
	client     httpclient.Client
	svixClient svixSender
	logger     *logger.Logger
}

// NewHandler creates the handler that delivers events to the configured endpoint
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	svixClient *svix.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub:     pubSub,
		config:     &cfg.Webhook,
		factory:    factory,
		client:     client,
		svixClient: svixClient,
		logger:     logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		handlerName,
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage returns an error only for failures worth parking on the
// dead letter topic
func (h *handler) processMessage(msg *message.Message) error {
	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	ctx := types.SetTenantID(msg.Context(), event.TenantID)
	ctx = types.SetUserID(ctx, event.UserID)

	if err := h.deliver(ctx, &event); err != nil {
		if !pubsubRouter.ShouldRetry(h.logger, err) {
			h.logger.Warnw("dropping undeliverable webhook",
				"error", err,
				"message_uuid", msg.UUID,
				"event", event.EventName,
			)
			return nil
		}
		return err
	}
	return nil
}

func (h *handler) deliver(ctx context.Context, event *types.WebhookEvent) error {
	if h.config.Svix.Enabled && h.svixClient != nil && h.svixClient.IsEnabled() {
		return h.deliverSvix(ctx, event)
	}

	if h.config.Endpoint == "" {
		h.logger.Debugw("no webhook endpoint configured, skipping",
			"event_id", event.ID,
			"event", event.EventName,
		)
		return nil
	}

	if h.config.IsExcluded(event.EventName) {
		h.logger.Debugw("event excluded from webhooks",
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return nil
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return err
	}

	webhookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	headers := make(map[string]string, len(h.config.Headers)+2)
	for k, v := range h.config.Headers {
		headers[k] = v
	}
	headers["X-Webhook-Event"] = event.EventName
	headers["X-Webhook-ID"] = event.ID

	resp, err := h.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     h.config.Endpoint,
		Headers: headers,
		Body:    webhookPayload,
	})
	if err != nil {
		h.logger.Errorw("failed to send webhook",
			"error", err,
			"event_id", event.ID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully",
		"event_id", event.ID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
		"status_code", resp.StatusCode,
	)
	return nil
}

// deliverSvix hands the event to Svix, which owns retries and endpoint
// management from there on
func (h *handler) deliverSvix(ctx context.Context, event *types.WebhookEvent) error {
	if h.config.IsExcluded(event.EventName) {
		h.logger.Debugw("event excluded from webhooks",
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return nil
	}

	appID, err := h.svixClient.GetOrCreateApplication(ctx, event.TenantID)
	if err != nil {
		return err
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return err
	}

	webhookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return err
	}

	if err := h.svixClient.SendMessage(ctx, appID, event.EventName, webhookPayload); err != nil {
		h.logger.Errorw("failed to send webhook via svix",
			"error", err,
			"event_id", event.ID,
			"tenant_id", event.TenantID,
			"event", event.EventName,
		)
		return err
	}

	h.logger.Infow("webhook sent successfully via svix",
		"event_id", event.ID,
		"tenant_id", event.TenantID,
		"event", event.EventName,
	)
	return nil
}
