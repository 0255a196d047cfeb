package service

import (
	"github.com/branchschool/installments/internal/cache"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
	"github.com/branchschool/installments/internal/pyroscope"
	"github.com/branchschool/installments/internal/sentry"
	webhookPublisher "github.com/branchschool/installments/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Profiler labels sweep work per tenant; nil disables labelling
	Profiler *pyroscope.Service

	// Repositories
	InstallmentRepo installment.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	profiler *pyroscope.Service,
	installmentRepo installment.Repository,
	webhookPublisher webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Cache:            cache,
		Sentry:           sentry,
		Profiler:         profiler,
		InstallmentRepo:  installmentRepo,
		WebhookPublisher: webhookPublisher,
	}
}
