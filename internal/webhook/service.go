package webhook

import (
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	pubsubRouter "github.com/branchschool/installments/internal/pubsub/router"
	"github.com/branchschool/installments/internal/webhook/handler"
	"github.com/branchschool/installments/internal/webhook/publisher"
)

// WebhookService orchestrates webhook operations
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	logger    *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		logger:    l,
	}
}

// RegisterHandler attaches the delivery handler to the message router
func (s *WebhookService) RegisterHandler(router *pubsubRouter.Router) {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook delivery disabled")
		return
	}
	s.handler.RegisterHandler(router)
}

// Stop closes the publisher
func (s *WebhookService) Stop() error {
	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return err
	}
	s.logger.Info("webhook service stopped")
	return nil
}
