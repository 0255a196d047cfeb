package v1

import (
	"net/http"

	"github.com/branchschool/installments/internal/api/dto"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/service"
	"github.com/branchschool/installments/internal/types"
	"github.com/gin-gonic/gin"
)

type InstallmentHandler struct {
	service service.InstallmentService
	logger  *logger.Logger
}

func NewInstallmentHandler(service service.InstallmentService, logger *logger.Logger) *InstallmentHandler {
	return &InstallmentHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Create an installment plan
// @Description Register a student's installment agreement. The schedule starts with the first generation.
// @Tags Installments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param plan body dto.CreateInstallmentPlanRequest true "Installment plan"
// @Success 201 {object} dto.InstallmentPlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /installment-plans [post]
func (h *InstallmentHandler) CreatePlan(c *gin.Context) {
	var req dto.CreateInstallmentPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an installment plan
// @Tags Installments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} dto.InstallmentPlanResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /installment-plans/{id} [get]
func (h *InstallmentHandler) GetPlan(c *gin.Context) {
	resp, err := h.service.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Mark the downpayment as paid
// @Description Called by the payment module once the plan's downpayment has settled
// @Tags Installments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param request body dto.MarkDownpaymentPaidRequest false "Settlement time"
// @Success 200 {object} dto.InstallmentPlanResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /installment-plans/{id}/downpayment [post]
func (h *InstallmentHandler) MarkDownpaymentPaid(c *gin.Context) {
	var req dto.MarkDownpaymentPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(ierr.WithError(err).
				WithHint("Invalid request format").
				Mark(ierr.ErrValidation))
			return
		}
	}

	resp, err := h.service.MarkDownpaymentPaid(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Generate the next installment invoice
// @Description Produces at most one invoice and advances the plan's schedule. In manual mode all date fields are required.
// @Tags Installments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param request body dto.GenerateInstallmentInvoiceRequest true "Generation request"
// @Success 201 {object} dto.GenerateInstallmentInvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 503 {object} ierr.ErrorResponse
// @Router /installment-plans/{id}/invoices [post]
func (h *InstallmentHandler) GenerateInvoice(c *gin.Context) {
	var req dto.GenerateInstallmentInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	params := &service.GenerateInvoiceParams{
		PlanID: c.Param("id"),
		Mode:   req.Mode,
	}
	if req.Mode == types.GenerationModeManual {
		params.Override = &req.ManualOverrideInput
	} else {
		params.AsOf = req.GetAsOf()
	}

	result, err := h.service.GenerateInvoice(c.Request.Context(), params)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGenerateInstallmentInvoiceResponse(result.Invoice, result.Progress))
}

// @Summary List generated invoices of a plan
// @Tags Installments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param filter query types.QueryFilter false "Pagination"
// @Success 200 {object} dto.ListInstallmentInvoicesResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /installment-plans/{id}/invoices [get]
func (h *InstallmentHandler) ListInvoices(c *gin.Context) {
	filter := types.NewInstallmentInvoiceFilter()
	if err := c.ShouldBindQuery(filter.QueryFilter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	filter.PlanID = c.Param("id")

	resp, err := h.service.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get phase progress of a plan
// @Tags Installments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} dto.InstallmentProgressResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /installment-plans/{id}/progress [get]
func (h *InstallmentHandler) GetProgress(c *gin.Context) {
	progress, err := h.service.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.InstallmentProgressResponse{Progress: progress})
}

// @Summary Preview the cycle dates for an anchor
// @Description Computes the automatic date set without generating anything. Used to pre-fill manual overrides.
// @Tags Installments
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Plan ID"
// @Param anchor query string false "Anchor date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.PreviewInstallmentCycleResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /installment-plans/{id}/preview [get]
func (h *InstallmentHandler) PreviewCycle(c *gin.Context) {
	anchor := types.Today()
	if raw := c.Query("anchor"); raw != "" {
		d, err := types.ParseDate(raw)
		if err != nil {
			c.Error(ierr.WithError(err).
				WithHint("anchor must be a date in YYYY-MM-DD format").
				WithReportableDetails(map[string]any{"anchor": raw}).
				Mark(ierr.ErrValidation))
			return
		}
		anchor = d
	}

	resp, err := h.service.PreviewCycle(c.Request.Context(), c.Param("id"), anchor)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
