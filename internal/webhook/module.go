package webhook

import (
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/domain/installment"
	"github.com/branchschool/installments/internal/httpclient"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/pubsub"
	"github.com/branchschool/installments/internal/pubsub/kafka"
	"github.com/branchschool/installments/internal/pubsub/memory"
	"github.com/branchschool/installments/internal/svix"
	"github.com/branchschool/installments/internal/types"
	"github.com/branchschool/installments/internal/webhook/handler"
	"github.com/branchschool/installments/internal/webhook/payload"
	"github.com/branchschool/installments/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		httpclient.NewDefaultClient,
		svix.NewClient,
	),

	fx.Provide(
		publisher.NewPublisher,
		handler.NewHandler,
		providePayloadBuilderFactory,
		NewWebhookService,
	),
)

func providePayloadBuilderFactory(repo installment.Repository) payload.PayloadBuilderFactory {
	return payload.NewPayloadBuilderFactory(repo)
}

func providePubSub(cfg *config.Configuration, logger *logger.Logger) (pubsub.PubSub, error) {
	switch cfg.Webhook.PubSub {
	case types.KafkaPubSub:
		logger.Infow("webhook events use the kafka pubsub", "brokers", cfg.Kafka.Brokers)
		return kafka.NewPubSub(cfg, logger)
	default:
		return memory.NewPubSub(logger), nil
	}
}
