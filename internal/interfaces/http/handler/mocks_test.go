package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

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
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockObligationService struct {
	mock.Mock
}

func (m *MockObligationService) ScheduleInstallments(ctx context.Context, contractID uuid.UUID) (*obligationapp.ScheduleResult, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligationapp.ScheduleResult), args.Error(1)
}

func (m *MockObligationService) Get(ctx context.Context, id uuid.UUID) (*obligation.PaymentObligation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligation.PaymentObligation), args.Error(1)
}

func (m *MockObligationService) List(ctx context.Context, filter obligation.Filter) (shared.Paginated[obligation.PaymentObligation], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[obligation.PaymentObligation]), args.Error(1)
}

func (m *MockObligationService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligation.PaymentObligation), args.Error(1)
}

func (m *MockObligationService) Refund(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*obligation.PaymentObligation), args.Error(1)
}

type MockPaymentInitiator struct {
	mock.Mock
}

func (m *MockPaymentInitiator) Initiate(ctx context.Context, cmd paymentapp.InitiateCommand) (*paymentapp.InitiateResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.InitiateResult), args.Error(1)
}

type MockReceiptLinker struct {
	mock.Mock
}

func (m *MockReceiptLinker) Link(ctx context.Context, obligationID uuid.UUID) (*notification.ReceiptLink, error) {
	args := m.Called(ctx, obligationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.ReceiptLink), args.Error(1)
}

type MockSplitPlanService struct {
	mock.Mock
}

func (m *MockSplitPlanService) Create(ctx context.Context, cmd splitplanapp.CreateCommand) (*splitplan.SplitPlan, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*splitplan.SplitPlan), args.Error(1)
}

func (m *MockSplitPlanService) Get(ctx context.Context, id uuid.UUID) (*splitplan.SplitPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*splitplan.SplitPlan), args.Error(1)
}

func (m *MockSplitPlanService) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*splitplan.SplitPlan, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*splitplan.SplitPlan), args.Error(1)
}

func (m *MockSplitPlanService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*splitplan.SplitPlan, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*splitplan.SplitPlan), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, cmd paymentapp.ReconcileCommand) (*paymentapp.ReconcileResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.ReconcileResult), args.Error(1)
}

type MockExceptionService struct {
	mock.Mock
}

func (m *MockExceptionService) List(ctx context.Context, filter payment.ExceptionFilter) (shared.Paginated[payment.ReconciliationException], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[payment.ReconciliationException]), args.Error(1)
}

func (m *MockExceptionService) Resolve(ctx context.Context, id uuid.UUID, note string) (*payment.ReconciliationException, error) {
	args := m.Called(ctx, id, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.ReconciliationException), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, q dashboard.Query) (*dashboard.Totals, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Totals), args.Error(1)
}

func (m *MockDashboardService) Properties(ctx context.Context, q dashboard.Query) ([]dashboard.PropertyBreakdown, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.PropertyBreakdown), args.Error(1)
}

func (m *MockDashboardService) Monthly(ctx context.Context, q dashboard.Query) ([]dashboard.MonthlyIncome, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dashboard.MonthlyIncome), args.Error(1)
}

// perform sends a request through router and returns the recorder
func perform(router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and returns it
func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// dataMap returns the envelope data as a JSON object
func dataMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	data, ok := decode(t, w).Data.(map[string]any)
	require.True(t, ok, "data is not an object: %s", w.Body.String())
	return data
}
