package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/notification"
	obligationapp "github.com/rentflow/backend/internal/application/obligation"
	paymentapp "github.com/rentflow/backend/internal/application/payment"
	splitplanapp "github.com/rentflow/backend/internal/application/splitplan"
	"github.com/rentflow/backend/internal/domain/dashboard"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/config"
	paymentinfra "github.com/rentflow/backend/internal/infrastructure/payment"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rentflow/backend/docs"
)

// stubServices answers every use case with canned values
type stubServices struct {
	reconciled int
	owner      uuid.UUID
}

func (s *stubServices) ScheduleInstallments(_ context.Context, id uuid.UUID) (*obligationapp.ScheduleResult, error) {
	return &obligationapp.ScheduleResult{ContractID: id}, nil
}

func (s *stubServices) Get(_ context.Context, id uuid.UUID) (*obligation.PaymentObligation, error) {
	return nil, shared.NewNotFoundError("obligation", id)
}

func (s *stubServices) List(_ context.Context, f obligation.Filter) (shared.Paginated[obligation.PaymentObligation], error) {
	return shared.NewPaginated([]obligation.PaymentObligation{}, 0, f.Page, f.PageSize), nil
}

func (s *stubServices) Cancel(_ context.Context, id uuid.UUID, _ string) (*obligation.PaymentObligation, error) {
	o := &obligation.PaymentObligation{Status: obligation.StatusCancelled, Amount: decimal.NewFromInt(1)}
	o.ID = id
	return o, nil
}

func (s *stubServices) Refund(_ context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error) {
	return s.Cancel(context.Background(), id, reason)
}

func (s *stubServices) Initiate(_ context.Context, cmd paymentapp.InitiateCommand) (*paymentapp.InitiateResult, error) {
	return &paymentapp.InitiateResult{TransactionID: uuid.New(), Amount: decimal.NewFromInt(1), Currency: "USD"}, nil
}

func (s *stubServices) Link(_ context.Context, id uuid.UUID) (*notification.ReceiptLink, error) {
	return nil, shared.NewNotFoundError("receipt", id)
}

func (s *stubServices) Reconcile(_ context.Context, cmd paymentapp.ReconcileCommand) (*paymentapp.ReconcileResult, error) {
	s.reconciled++
	return &paymentapp.ReconcileResult{Status: paymentapp.ResultOrphan}, nil
}

type stubPlans struct{}

func (stubPlans) Create(context.Context, splitplanapp.CreateCommand) (*splitplan.SplitPlan, error) {
	return nil, shared.NewValidationError("contract is not active")
}

func (stubPlans) Get(_ context.Context, id uuid.UUID) (*splitplan.SplitPlan, error) {
	return nil, shared.NewNotFoundError("split plan", id)
}

func (stubPlans) ListByContract(context.Context, uuid.UUID) ([]*splitplan.SplitPlan, error) {
	return nil, nil
}

func (stubPlans) Cancel(_ context.Context, id uuid.UUID, _ string) (*splitplan.SplitPlan, error) {
	return nil, shared.NewNotFoundError("split plan", id)
}

type stubExceptions struct{}

func (stubExceptions) List(_ context.Context, f payment.ExceptionFilter) (shared.Paginated[payment.ReconciliationException], error) {
	return shared.NewPaginated([]payment.ReconciliationException{}, 0, f.Page, f.PageSize), nil
}

func (stubExceptions) Resolve(_ context.Context, id uuid.UUID, _ string) (*payment.ReconciliationException, error) {
	return nil, shared.NewNotFoundError("reconciliation exception", id)
}

type stubDashboard struct {
	seen []uuid.UUID
}

func (d *stubDashboard) Summary(_ context.Context, q dashboard.Query) (*dashboard.Totals, error) {
	d.seen = append(d.seen, q.OwnerID)
	return &dashboard.Totals{Currency: "USD"}, nil
}

func (d *stubDashboard) Properties(context.Context, dashboard.Query) ([]dashboard.PropertyBreakdown, error) {
	return []dashboard.PropertyBreakdown{}, nil
}

func (d *stubDashboard) Monthly(context.Context, dashboard.Query) ([]dashboard.MonthlyIncome, error) {
	return []dashboard.MonthlyIncome{}, nil
}

type apiFixture struct {
	engine    *gin.Engine
	jwt       *auth.JWTService
	services  *stubServices
	dashboard *stubDashboard
}

const webhookSecret = "whsec_router_test"

func newAPIFixture(t *testing.T, limiter *middleware.RateLimiter) *apiFixture {
	t.Helper()
	jwtSvc, err := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-with-enough-length", Issuer: "rentflow"})
	require.NoError(t, err)

	f := &apiFixture{jwt: jwtSvc, services: &stubServices{}, dashboard: &stubDashboard{}}
	verifier := paymentinfra.NewHMACVerifier(map[payment.Rail]string{payment.RailCard: webhookSecret})
	f.engine = New(Config{
		CORS:           middleware.DefaultCORSConfig(),
		Security:       middleware.DefaultSecurityConfig(),
		RequestTimeout: 5 * time.Second,
		Tokens:         jwtSvc,
		PaymentLimiter: limiter,
		Docs:           ginSwagger.WrapHandler(swaggerFiles.Handler),
	}, Handlers{
		System:         handler.NewSystemHandler("rentflow-backend", "test", nil),
		Obligations:    handler.NewObligationHandler(f.services, f.services, f.services),
		SplitPlans:     handler.NewSplitPlanHandler(stubPlans{}),
		Webhooks:       handler.NewWebhookHandler(f.services, verifier, paymentinfra.SignatureHeader),
		Reconciliation: handler.NewReconciliationHandler(stubExceptions{}),
		Dashboard:      handler.NewDashboardHandler(f.dashboard),
	})
	return f
}

func (f *apiFixture) token(t *testing.T, userID uuid.UUID, roles ...string) string {
	t.Helper()
	tok, _, err := f.jwt.GenerateToken(auth.GenerateTokenInput{UserID: userID, Username: "u", Roles: roles})
	require.NoError(t, err)
	return tok
}

func (f *apiFixture) do(method, path, token string, body []byte, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	req.RemoteAddr = "192.0.2.10:5555"
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestAPI_HealthIsPublic(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestAPI_ProtectedRoutesNeedToken(t *testing.T) {
	f := newAPIFixture(t, nil)
	id := uuid.NewString()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/obligations"},
		{http.MethodGet, "/api/v1/obligations/" + id},
		{http.MethodPost, "/api/v1/obligations/" + id + "/payments"},
		{http.MethodPost, "/api/v1/split-plans"},
		{http.MethodGet, "/api/v1/reconciliation/exceptions"},
		{http.MethodGet, "/api/v1/dashboard/summary"},
	} {
		w := f.do(route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestAPI_AdminRoutesNeedAdminRole(t *testing.T) {
	f := newAPIFixture(t, nil)
	owner := f.token(t, uuid.New(), auth.RoleOwner)
	admin := f.token(t, uuid.New(), auth.RoleAdmin)
	id := uuid.NewString()

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/obligations/"+id+"/cancel", owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/v1/reconciliation/exceptions", owner, nil).Code)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/v1/obligations/"+id+"/cancel", admin, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/reconciliation/exceptions", admin, nil).Code)
}

func TestAPI_DashboardOwnerComesFromToken(t *testing.T) {
	f := newAPIFixture(t, nil)
	ownerID := uuid.New()

	w := f.do(http.MethodGet, "/api/v1/dashboard/summary", f.token(t, ownerID, auth.RoleOwner), nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []uuid.UUID{ownerID}, f.dashboard.seen)
}

func TestAPI_WebhookUsesSignatureNotToken(t *testing.T) {
	f := newAPIFixture(t, nil)
	body, _ := json.Marshal(map[string]string{
		"gateway_transaction_id": "pi_x", "outcome": "SUCCESS", "amount": "10.00", "currency": "USD",
	})

	w := f.do(http.MethodPost, "/api/v1/webhooks/card", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.services.reconciled)

	w = f.do(http.MethodPost, "/api/v1/webhooks/card", "", body,
		paymentinfra.SignatureHeader, paymentinfra.Sign(webhookSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.services.reconciled)
}

func TestAPI_PaymentInitiationIsRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	defer limiter.Stop()
	f := newAPIFixture(t, limiter)
	tok := f.token(t, uuid.New(), auth.RoleOwner)
	path := "/api/v1/obligations/" + uuid.NewString() + "/payments"
	body := []byte(`{"rail":"CARD"}`)

	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, path, tok, body).Code)
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, path, tok, body).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/v1/obligations", tok, nil).Code)
}

func TestAPI_SwaggerDocsArePublic(t *testing.T) {
	f := newAPIFixture(t, nil)

	w := f.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	for _, path := range []string{
		"/obligations/{id}/payments",
		"/split-plans",
		"/webhooks/{rail}",
		"/reconciliation/exceptions/{id}/resolve",
		"/dashboard/summary",
	} {
		assert.Contains(t, doc.Paths, path)
	}

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/swagger/index.html", "", nil).Code)
}
