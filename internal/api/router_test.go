package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/branchschool/installments/internal/api/cron"
	"github.com/branchschool/installments/internal/api/dto"
	v1 "github.com/branchschool/installments/internal/api/v1"
	"github.com/branchschool/installments/internal/auth"
	"github.com/branchschool/installments/internal/config"
	ierr "github.com/branchschool/installments/internal/errors"
	"github.com/branchschool/installments/internal/service"
	"github.com/branchschool/installments/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

const testAPIKey = "sk_test_installments"

type fakePinger struct {
	err error
}

func (p *fakePinger) PingContext(context.Context) error {
	return p.err
}

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
	pinger *fakePinger
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	gin.SetMode(gin.TestMode)

	cfg := s.GetConfig()
	cfg.Auth.Secret = "router-test-secret"
	cfg.Auth.APIKey.Keys = map[string]config.APIKeyDetails{
		auth.HashAPIKey(testAPIKey): {TenantID: "tenant_api", UserID: "user_api", IsActive: true},
	}

	svc, err := service.NewInstallmentService(service.ServiceParams{
		Logger:           s.GetLogger(),
		Config:           cfg,
		DB:               s.GetDB(),
		Cache:            s.GetCache(),
		Sentry:           s.GetSentry(),
		Profiler:         s.GetProfiler(),
		InstallmentRepo:  s.GetStores().InstallmentRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
	})
	s.Require().NoError(err)

	s.pinger = &fakePinger{}
	s.router = NewRouter(Handlers{
		Health:          v1.NewHealthHandler(s.pinger, s.GetLogger()),
		Installment:     v1.NewInstallmentHandler(svc, s.GetLogger()),
		CronInstallment: cron.NewInstallmentHandler(svc, s.GetLogger()),
	}, cfg, s.GetLogger(), s.GetProfiler())
}

func (s *RouterSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(s.GetConfig().Auth.APIKey.Header, testAPIKey)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, into any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), into))
}

func (s *RouterSuite) createPlan(totalPhases int) string {
	w := s.do(http.MethodPost, "/v1/installment-plans", map[string]any{
		"student_id":         "stu_" + s.GetUUID(),
		"enrollment_id":      "enr_" + s.GetUUID(),
		"frequency_months":   1,
		"total_phases":       totalPhases,
		"installment_amount": "1500000",
		"currency":           "IDR",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var plan dto.InstallmentPlanResponse
	s.decode(w, &plan)
	s.Equal("tenant_api", plan.TenantID)
	return plan.ID
}

func (s *RouterSuite) TestRejectsMissingOrUnknownAPIKey() {
	req := httptest.NewRequest(http.MethodGet, "/v1/installment-plans/iplan_1", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/installment-plans/iplan_1", nil)
	req.Header.Set(s.GetConfig().Auth.APIKey.Header, "sk_wrong")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestAcceptsBearerToken() {
	token, err := auth.GenerateToken(s.GetConfig(), "user_jwt", "tenant_jwt", time.Hour)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/v1/installment-plans", bytes.NewBufferString(`{
		"student_id": "stu_jwt",
		"enrollment_id": "enr_jwt",
		"frequency_months": 1,
		"installment_amount": "100",
		"currency": "idr"
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var plan dto.InstallmentPlanResponse
	s.decode(w, &plan)
	s.Equal("tenant_jwt", plan.TenantID)
	s.Equal("user_jwt", plan.CreatedBy)

	req = httptest.NewRequest(http.MethodGet, "/v1/installment-plans/"+plan.ID, nil)
	req.Header.Set("Authorization", "Token "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestGenerateInvoiceAuto() {
	planID := s.createPlan(3)

	w := s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{
		"mode":  "auto",
		"as_of": "2026-02-09",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	var resp dto.GenerateInstallmentInvoiceResponse
	s.decode(w, &resp)
	s.NotEmpty(resp.InvoiceID)
	s.Equal(1, resp.GeneratedPhases)
	s.Equal(3, *resp.TotalPhases)
	s.Equal(2, *resp.RemainingPhases)
	s.Equal("2026-04-25", resp.NextGenerationDate.String())
	s.Equal("2026-04-01", resp.NextInvoiceMonth.String())
	s.Equal("2026-03-01", resp.Invoice.InvoiceMonth.String())
	s.Equal("2026-04-05", resp.Invoice.DueDate.String())

	w = s.do(http.MethodGet, "/v1/installment-plans/"+planID+"/invoices?limit=10", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var list dto.ListInstallmentInvoicesResponse
	s.decode(w, &list)
	s.Equal(1, list.Pagination.Total)
	s.Require().Len(list.Items, 1)
	s.Equal(resp.InvoiceID, list.Items[0].ID)

	w = s.do(http.MethodGet, "/v1/installment-plans/"+planID+"/progress", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var progress dto.InstallmentProgressResponse
	s.decode(w, &progress)
	s.Equal(1, progress.GeneratedPhases)
	s.True(progress.Bounded)
}

func (s *RouterSuite) TestGenerateInvoiceManualValidation() {
	planID := s.createPlan(3)

	w := s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{
		"mode":          "manual",
		"issue_date":    "2026-13-01",
		"invoice_month": "2026-03-01",
	})
	s.Require().Equal(http.StatusBadRequest, w.Code, w.Body.String())

	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.False(resp.Success)
	s.Equal(ierr.ErrCodeValidation, resp.Error.Code)
	s.Contains(resp.Error.Details, "issue_date")
	s.Contains(resp.Error.Details, "due_date")
	s.Contains(resp.Error.Details, "next_generation_date")
	s.NotContains(resp.Error.Details, "invoice_month")
}

func (s *RouterSuite) TestGenerateInvoiceRejectsDatesInAutoMode() {
	planID := s.createPlan(3)

	w := s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{
		"mode":       "auto",
		"issue_date": "2026-02-09",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestGenerateInvoicePhaseLimit() {
	planID := s.createPlan(1)

	w := s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{"mode": "auto"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{"mode": "auto"})
	s.Require().Equal(http.StatusConflict, w.Code)

	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.Equal(ierr.ErrCodePhaseLimitReached, resp.Error.Code)
}

func (s *RouterSuite) TestGenerateInvoiceNotFound() {
	w := s.do(http.MethodPost, "/v1/installment-plans/iplan_missing/invoices", map[string]any{"mode": "auto"})
	s.Require().Equal(http.StatusNotFound, w.Code)

	var resp ierr.ErrorResponse
	s.decode(w, &resp)
	s.Equal(ierr.ErrCodeNotFound, resp.Error.Code)
}

func (s *RouterSuite) TestPreviewCycle() {
	planID := s.createPlan(3)

	w := s.do(http.MethodGet, "/v1/installment-plans/"+planID+"/preview?anchor=2026-02-09", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.PreviewInstallmentCycleResponse
	s.decode(w, &resp)
	s.Equal("2026-03-25", resp.Generation.String())
	s.Equal("2026-04-25", resp.NextGeneration.String())

	w = s.do(http.MethodGet, "/v1/installment-plans/"+planID+"/preview?anchor=09-02-2026", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestDownpaymentFlow() {
	w := s.do(http.MethodPost, "/v1/installment-plans", map[string]any{
		"student_id":         "stu_dp",
		"enrollment_id":      "enr_dp",
		"frequency_months":   1,
		"installment_amount": "100",
		"downpayment_amount": "300",
		"currency":           "idr",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var plan dto.InstallmentPlanResponse
	s.decode(w, &plan)
	s.Equal("awaiting_downpayment", string(plan.State))

	w = s.do(http.MethodPost, "/v1/installment-plans/"+plan.ID+"/invoices", map[string]any{"mode": "auto"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/installment-plans/"+plan.ID+"/downpayment", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &plan)
	s.Equal("active", string(plan.State))
}

func (s *RouterSuite) TestCronGenerateDueInvoices() {
	planID := s.createPlan(3)
	w := s.do(http.MethodPost, "/v1/installment-plans/"+planID+"/invoices", map[string]any{
		"mode":  "auto",
		"as_of": "2026-02-09",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/v1/cron/installments/generate?as_of=2026-04-25", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp dto.GenerateDueInstallmentsResponse
	s.decode(w, &resp)
	s.Equal("2026-04-25", resp.AsOf.String())
	s.Equal(1, resp.Generated)
	s.Require().Len(resp.Outcomes, 1)
	s.Equal(planID, resp.Outcomes[0].PlanID)

	w = s.do(http.MethodPost, "/v1/cron/installments/generate?as_of=not-a-date", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	s.pinger.err = errors.New("connection refused")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}
