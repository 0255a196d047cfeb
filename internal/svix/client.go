package svix

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/branchschool/installments/internal/config"
	ierr "github.com/branchschool/installments/internal/errors"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// Client delivers webhook events through Svix, one application per tenant
type Client struct {
	client  *svix.Svix
	enabled bool
}

// NewClient returns a disabled client unless webhook.svix.enabled is set
func NewClient(cfg *config.Configuration) (*Client, error) {
	if !cfg.Webhook.Svix.Enabled {
		return &Client{enabled: false}, nil
	}

	opts := &svix.SvixOptions{}
	if cfg.Webhook.Svix.BaseURL != "" {
		serverURL, err := url.Parse(cfg.Webhook.Svix.BaseURL)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("webhook.svix.base_url must be a valid URL").
				Mark(ierr.ErrValidation)
		}
		opts.ServerUrl = serverURL
	}

	svixClient, err := svix.New(cfg.Webhook.Svix.AuthToken, opts)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to create svix client").
			Mark(ierr.ErrSystem)
	}

	return &Client{
		client:  svixClient,
		enabled: true,
	}, nil
}

func (c *Client) IsEnabled() bool {
	return c.enabled && c.client != nil
}

// GetOrCreateApplication returns the tenant's application, creating it on first use
func (c *Client) GetOrCreateApplication(ctx context.Context, tenantID string) (string, error) {
	if !c.IsEnabled() {
		return "", nil
	}

	appID := "tenant_" + tenantID

	if _, err := c.client.Application.Get(ctx, appID); err == nil {
		return appID, nil
	}

	app, err := c.client.Application.Create(ctx, models.ApplicationIn{
		Name: appID,
		Uid:  &appID,
	}, &svix.ApplicationCreateOptions{})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to create svix application").
			WithReportableDetails(map[string]any{"tenant_id": tenantID}).
			Mark(ierr.ErrHTTPClient)
	}

	return app.Id, nil
}

// SendMessage posts an already built webhook payload to the application
func (c *Client) SendMessage(ctx context.Context, applicationID string, eventType string, payload json.RawMessage) error {
	if !c.IsEnabled() {
		return nil
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return ierr.WithError(err).
			WithHint("Webhook payload must be a JSON object").
			Mark(ierr.ErrValidation)
	}

	_, err := c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventType: eventType,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to send svix message").
			WithReportableDetails(map[string]any{
				"application_id": applicationID,
				"event":          eventType,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	return nil
}
