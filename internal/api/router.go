package api

import (
	"github.com/branchschool/installments/internal/api/cron"
	v1 "github.com/branchschool/installments/internal/api/v1"
	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/pyroscope"
	"github.com/branchschool/installments/internal/rest/middleware"
	"github.com/branchschool/installments/internal/types"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health          *v1.HealthHandler
	Installment     *v1.InstallmentHandler
	CronInstallment *cron.InstallmentHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, profiler *pyroscope.Service) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", middleware.GuestAuthenticateMiddleware, handlers.Health.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	private := router.Group("/v1",
		middleware.AuthenticateMiddleware(cfg, logger),
		middleware.PyroscopeMiddleware(profiler),
	)

	plans := private.Group("/installment-plans")
	{
		plans.POST("", handlers.Installment.CreatePlan)
		plans.GET("/:id", handlers.Installment.GetPlan)
		plans.POST("/:id/downpayment", handlers.Installment.MarkDownpaymentPaid)
		plans.POST("/:id/invoices", handlers.Installment.GenerateInvoice)
		plans.GET("/:id/invoices", handlers.Installment.ListInvoices)
		plans.GET("/:id/progress", handlers.Installment.GetProgress)
		plans.GET("/:id/preview", handlers.Installment.PreviewCycle)
	}

	cronGroup := private.Group("/cron")
	{
		cronGroup.POST("/installments/generate", handlers.CronInstallment.GenerateDueInvoices)
	}

	return router
}
