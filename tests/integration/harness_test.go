package integration

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dashboardapp "github.com/rentflow/backend/internal/application/dashboard"
	notificationapp "github.com/rentflow/backend/internal/application/notification"
	obligationapp "github.com/rentflow/backend/internal/application/obligation"
	paymentapp "github.com/rentflow/backend/internal/application/payment"
	splitplanapp "github.com/rentflow/backend/internal/application/splitplan"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/event"
	paymentinfra "github.com/rentflow/backend/internal/infrastructure/payment"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/storage"
	"github.com/rentflow/backend/internal/interfaces/http/handler"
	"github.com/rentflow/backend/internal/interfaces/http/middleware"
	"github.com/rentflow/backend/internal/interfaces/http/router"
	"github.com/rentflow/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const webhookSecret = "bank-transfer-webhook-secret"

// fakeClock is a settable clock shared by every service of an app
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

// app is the service wired the way cmd/server wires it, minus telemetry,
// Redis and object storage
type app struct {
	t      *testing.T
	db     *TestDB
	clock  *fakeClock
	engine *gin.Engine

	reconciler  *paymentapp.Reconciler
	sweeper     *paymentapp.Sweeper
	obligations *obligationapp.Service
	plans       *splitplanapp.Service
	receipts    *storage.MemoryReceiptStore
	events      *testutil.MockEventHandler
	tokens      *auth.JWTService
}

func newApp(t *testing.T, db *TestDB, now time.Time) *app {
	t.Helper()
	log := zaptest.NewLogger(t)
	clock := &fakeClock{}
	clock.Set(now)

	uow := persistence.NewGormUnitOfWork(db.DB)
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	planRepo := persistence.NewGormSplitPlanRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	exceptionRepo := persistence.NewGormExceptionRepository(db.DB)
	contracts := persistence.NewGormContractReader(db.DB)

	receipts := storage.NewMemoryReceiptStore("http://receipts.test/receipts")
	events := testutil.NewMockEventHandler(
		obligation.EventTypeObligationPaid,
		obligation.EventTypeObligationOverdue,
		obligation.EventTypeObligationCancelled,
		obligation.EventTypeObligationRefunded,
	)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(events)
	bus.Subscribe(notificationapp.NewReceiptHandler(receipts, log))

	fee, err := obligation.NewFeePolicy("flat", decimal.NewFromInt(50), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	policy := paymentapp.NewPolicyStore(fee)

	gateways := paymentinfra.NewRegistry(paymentinfra.NewBankTransferGateway("DE89370400440532013000", log))

	reconciler := paymentapp.NewReconciler(paymentapp.ReconcilerConfig{
		UnitOfWork:         uow,
		Obligations:        obligationRepo,
		Plans:              planRepo,
		Transactions:       transactionRepo,
		Exceptions:         exceptionRepo,
		Gateways:           gateways,
		Publisher:          bus,
		Policy:             policy,
		Logger:             log,
		Clock:              clock.Now,
		MaxDepositAttempts: 3,
		ConflictRetries:    5,
	})
	sweeper := paymentapp.NewSweeper(paymentapp.SweeperConfig{
		UnitOfWork:         uow,
		Obligations:        obligationRepo,
		Plans:              planRepo,
		Transactions:       transactionRepo,
		Publisher:          bus,
		Policy:             policy,
		Logger:             log,
		Clock:              clock.Now,
		TransactionExpiry:  2 * time.Hour,
		MaxDepositAttempts: 3,
	})
	obligations := obligationapp.NewService(obligationapp.ServiceConfig{
		UnitOfWork:  uow,
		Obligations: obligationRepo,
		Plans:       planRepo,
		Contracts:   contracts,
		Publisher:   bus,
		Logger:      log,
		Clock:       clock.Now,
	})
	plans := splitplanapp.NewService(splitplanapp.ServiceConfig{
		Plans:     planRepo,
		Contracts: contracts,
		Publisher: bus,
		Logger:    log,
		Clock:     clock.Now,
	})

	tokens := testutil.NewTestJWTService(t)
	engine := router.New(router.Config{
		Logger:   log,
		CORS:     middleware.DefaultCORSConfig(),
		Security: middleware.DefaultSecurityConfig(),
		Tokens:   tokens,
	}, router.Handlers{
		System: handler.NewSystemHandler("rentflow", "test", map[string]handler.Pinger{
			"database": db.SqlDB.PingContext,
		}),
		Obligations:    handler.NewObligationHandler(obligations, reconciler, notificationapp.NewReceiptService(obligationRepo, receipts, time.Minute)),
		SplitPlans:     handler.NewSplitPlanHandler(plans),
		Webhooks:       handler.NewWebhookHandler(reconciler, paymentinfra.NewHMACVerifier(map[payment.Rail]string{payment.RailBankTransfer: webhookSecret}), paymentinfra.SignatureHeader),
		Reconciliation: handler.NewReconciliationHandler(paymentapp.NewExceptionService(uow, exceptionRepo, transactionRepo, log)),
		Dashboard:      handler.NewDashboardHandler(dashboardapp.NewService(persistence.NewGormDashboardRepository(db.DB), "USD", log)),
		Receipts:       handler.NewReceiptDownloadHandler(receipts),
	})

	return &app{
		t:           t,
		db:          db,
		clock:       clock,
		engine:      engine,
		reconciler:  reconciler,
		sweeper:     sweeper,
		obligations: obligations,
		plans:       plans,
		receipts:    receipts,
		events:      events,
		tokens:      tokens,
	}
}

// as sends an authenticated request for userID
func (a *app) as(userID uuid.UUID, method, path string, body any, roles ...string) *testutil.TestContext {
	a.t.Helper()
	return testutil.Serve(a.t, a.engine, method, path, body, map[string]string{
		middleware.AuthHeaderKey: testutil.BearerToken(a.t, a.tokens, userID, roles...),
	})
}

// callback posts a signed bank transfer webhook
func (a *app) callback(gatewayTxID, outcome, amount string, processedAt time.Time) *testutil.TestContext {
	a.t.Helper()
	payload := map[string]string{
		"gateway_transaction_id": gatewayTxID,
		"outcome":                outcome,
		"amount":                 amount,
		"currency":               "USD",
	}
	if !processedAt.IsZero() {
		payload["processed_at"] = processedAt.UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(payload)
	require.NoError(a.t, err)
	return testutil.Serve(a.t, a.engine, http.MethodPost, "/api/v1/webhooks/bank-transfer", body, map[string]string{
		paymentinfra.SignatureHeader: paymentinfra.Sign(webhookSecret, body),
	})
}
