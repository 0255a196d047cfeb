package postgres

import (
	"context"

	"github.com/branchschool/installments/internal/logger"
	sentryService "github.com/branchschool/installments/internal/sentry"
)

// SentryClient wraps an IClient so every transaction shows up as a span
type SentryClient struct {
	client IClient
	sentry *sentryService.Service
	logger *logger.Logger
}

func NewSentryClient(client IClient, sentry *sentryService.Service, logger *logger.Logger) IClient {
	if !sentry.IsEnabled() {
		return client
	}
	return &SentryClient{
		client: client,
		sentry: sentry,
		logger: logger,
	}
}

// WithTx wraps the given function in a transaction with Sentry span tracking
func (c *SentryClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	span, spanCtx := c.sentry.StartDBSpan(ctx, "postgres.transaction", map[string]interface{}{
		"operation": "transaction",
	})
	defer sentryService.FinishSpan(span)

	return c.client.WithTx(spanCtx, fn)
}
