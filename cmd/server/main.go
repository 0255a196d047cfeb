package main

import (
	"context"
	"time"

	_ "github.com/branchschool/installments/docs/swagger"
	"github.com/branchschool/installments/internal/api"
	"github.com/branchschool/installments/internal/api/cron"
	"github.com/branchschool/installments/internal/api/dto"
	v1 "github.com/branchschool/installments/internal/api/v1"
	"github.com/branchschool/installments/internal/cache"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
	pubsubRouter "github.com/branchschool/installments/internal/pubsub/router"
	"github.com/branchschool/installments/internal/pyroscope"
	"github.com/branchschool/installments/internal/repository"
	"github.com/branchschool/installments/internal/sentry"
	"github.com/branchschool/installments/internal/service"
	"github.com/branchschool/installments/internal/temporal"
	"github.com/branchschool/installments/internal/types"
	"github.com/branchschool/installments/internal/validator"
	"github.com/branchschool/installments/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	lambdaEvents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

// @title Installments API
// @version 1.0
// @description Recurring installment invoice generation
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description Enter your API key in the format *x-api-key &lt;api-key&gt;**
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the token with the Bearer prefix, e.g. "Bearer eyJ..."

func init() {
	// all billing dates are calendar dates in UTC
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
		),
		sentry.Module(),
		pyroscope.Module(),
		postgres.Module(),
		fx.Provide(
			repository.NewInstallmentRepository,
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewInstallmentService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	db *postgres.DB,
	logger *logger.Logger,
	installmentService service.InstallmentService,
) api.Handlers {
	return api.Handlers{
		Health:          v1.NewHealthHandler(db, logger),
		Installment:     v1.NewInstallmentHandler(installmentService, logger),
		CronInstallment: cron.NewInstallmentHandler(installmentService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, profiler *pyroscope.Service) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger, profiler)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	router *pubsubRouter.Router,
	installmentService service.InstallmentService,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
		if cfg.Temporal.Enabled {
			startTemporalWorker(lc, cfg, installmentService, log)
		}
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeTemporalWorker:
		startTemporalWorker(lc, cfg, installmentService, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(lc, r, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeAWSLambdaSweep:
		startAWSLambdaSweep(lc, installmentService, log)
		startMessageRouter(lc, router, webhookService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

// lambda.Start never returns, so it runs once the other start hooks are done
func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting lambda api handler")
			ginLambda := ginadapter.New(r)
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

// startAWSLambdaSweep runs the due-invoice sweep on every scheduled invocation
func startAWSLambdaSweep(lc fx.Lifecycle, installmentService service.InstallmentService, log *logger.Logger) {
	handler := func(ctx context.Context, event lambdaEvents.CloudWatchEvent) (*dto.GenerateDueInstallmentsResponse, error) {
		log.Infow("received scheduled sweep event", "id", event.ID, "time", event.Time)

		resp, err := installmentService.GenerateDueInvoices(ctx, types.DateOf(event.Time))
		if err != nil {
			log.Errorw("scheduled sweep failed", "error", err)
			return nil, err
		}
		return resp, nil
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting lambda sweep handler")
			go lambda.Start(handler)
			return nil
		},
	})
}

// startTemporalWorker runs the sweep workflow worker and makes sure the
// cron sweep is scheduled
func startTemporalWorker(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	installmentService service.InstallmentService,
	log *logger.Logger,
) {
	client, err := temporal.NewTemporalClient(&cfg.Temporal, log)
	if err != nil {
		log.Fatalf("Failed to create temporal client: %v", err)
	}

	worker := temporal.NewWorker(client, cfg, installmentService, log)
	worker.RegisterWithLifecycle(lc)

	temporalService := temporal.NewService(client, cfg, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return temporalService.EnsureSweepSchedule(ctx)
		},
		OnStop: func(ctx context.Context) error {
			temporalService.Close()
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	webhookService.RegisterHandler(router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(context.Background()); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			if err := webhookService.Stop(); err != nil {
				logger.Errorw("failed to stop webhook service", "error", err)
			}
			return router.Close()
		},
	})
}
