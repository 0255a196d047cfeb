package cron

import (
	"net/http"
	"time"

	"github.com/branchschool/installments/internal/api/dto"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/service"
	"github.com/gin-gonic/gin"
)

// InstallmentHandler exposes the due-invoice sweep to an external scheduler
type InstallmentHandler struct {
	installmentService service.InstallmentService
	logger             *logger.Logger
}

func NewInstallmentHandler(installmentService service.InstallmentService, logger *logger.Logger) *InstallmentHandler {
	return &InstallmentHandler{
		installmentService: installmentService,
		logger:             logger,
	}
}

// @Summary Generate due installment invoices
// @Description Runs one automatic generation for every plan whose next generation date is on or before as_of. Failing plans are reported, not retried.
// @Tags Cron
// @Produce json
// @Security ApiKeyAuth
// @Param as_of query string false "Sweep date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.GenerateDueInstallmentsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /cron/installments/generate [post]
func (h *InstallmentHandler) GenerateDueInvoices(c *gin.Context) {
	h.logger.Infow("starting installment generation cron job", "time", time.Now().UTC().Format(time.RFC3339))

	var req dto.GenerateDueInstallmentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.installmentService.GenerateDueInvoices(c.Request.Context(), req.GetAsOf())
	if err != nil {
		h.logger.Errorw("installment generation cron job failed", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed installment generation cron job",
		"as_of", resp.AsOf,
		"generated", resp.Generated,
		"skipped", resp.Skipped,
		"failed", resp.Failed,
	)

	c.JSON(http.StatusOK, resp)
}
