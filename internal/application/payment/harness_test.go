package payment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeGateway hands out sequential gateway ids
type fakeGateway struct {
	rail  payment.Rail
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (g *fakeGateway) Rail() payment.Rail { return g.rail }

func (g *fakeGateway) CreateTransaction(ctx context.Context, req *payment.CreateTransactionRequest) (*payment.CreateTransactionResponse, error) {
	n := g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, shared.NewGatewayUnavailableError(g.rail.String(), ctx.Err())
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return &payment.CreateTransactionResponse{
		GatewayTransactionID: fmt.Sprintf("%s-%d", g.rail, n),
		RedirectURL:          "https://pay.example.test/" + req.IdempotencyKey,
	}, nil
}

type fakeRegistry map[payment.Rail]payment.GatewayClient

func (r fakeRegistry) Client(rail payment.Rail) (payment.GatewayClient, error) {
	c, ok := r[rail]
	if !ok {
		return nil, shared.NewValidationError("rail %s is not enabled", rail)
	}
	return c, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *recordingPublisher) count(eventType string) int {
	n := 0
	for _, t := range p.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

type countingMetrics struct {
	mu      sync.Mutex
	results map[string]int
}

func (m *countingMetrics) add(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		m.results = map[string]int{}
	}
	m.results[key]++
}

func (m *countingMetrics) RecordInitiate(_ context.Context, rail payment.Rail, result string) {
	m.add("initiate:" + result)
}

func (m *countingMetrics) RecordReconciliation(_ context.Context, rail payment.Rail, result string) {
	m.add("reconcile:" + result)
}

func (m *countingMetrics) RecordOverdue(_ context.Context, transitioned, skipped int) {
	m.add("overdue")
}

func (m *countingMetrics) RecordExpired(_ context.Context, expired int) {
	m.add("expired")
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[key]
}

// harness wires the services over an in-memory SQLite database
type harness struct {
	db           *gorm.DB
	uow          *persistence.GormUnitOfWork
	clock        *testClock
	obligations  *persistence.GormObligationRepository
	plans        *persistence.GormSplitPlanRepository
	transactions *persistence.GormTransactionRepository
	exceptions   *persistence.GormExceptionRepository
	card         *fakeGateway
	mobile       *fakeGateway
	publisher    *recordingPublisher
	metrics      *countingMetrics
	policy       *PolicyStore
	reconciler   *Reconciler
	sweeper      *Sweeper
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	h := &harness{
		db:           db,
		clock:        &testClock{now: testNow},
		obligations:  persistence.NewGormObligationRepository(db),
		plans:        persistence.NewGormSplitPlanRepository(db),
		transactions: persistence.NewGormTransactionRepository(db),
		exceptions:   persistence.NewGormExceptionRepository(db),
		card:         &fakeGateway{rail: payment.RailCard},
		mobile:       &fakeGateway{rail: payment.RailMobileMoney},
		publisher:    &recordingPublisher{},
		metrics:      &countingMetrics{},
	}
	policy, err := obligation.NewFeePolicy("flat", decimal.RequireFromString("20.00"), decimal.Zero, decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	h.policy = NewPolicyStore(policy)

	uow := persistence.NewGormUnitOfWork(db)
	h.uow = uow
	h.reconciler = NewReconciler(ReconcilerConfig{
		UnitOfWork:         uow,
		Obligations:        h.obligations,
		Plans:              h.plans,
		Transactions:       h.transactions,
		Exceptions:         h.exceptions,
		Gateways:           fakeRegistry{payment.RailCard: h.card, payment.RailMobileMoney: h.mobile},
		Publisher:          h.publisher,
		Policy:             h.policy,
		Metrics:            h.metrics,
		Clock:              h.clock.Now,
		GatewayTimeout:     time.Second,
		MaxDepositAttempts: 3,
		ConflictRetries:    5,
		RetryInterval:      time.Millisecond,
	})
	h.sweeper = NewSweeper(SweeperConfig{
		UnitOfWork:         uow,
		Obligations:        h.obligations,
		Plans:              h.plans,
		Transactions:       h.transactions,
		Publisher:          h.publisher,
		Policy:             h.policy,
		Metrics:            h.metrics,
		Clock:              h.clock.Now,
		BatchSize:          2,
		TransactionExpiry:  2 * time.Hour,
		MaxDepositAttempts: 3,
	})
	return h
}

func (h *harness) installment(t *testing.T, amount string, due time.Time) *obligation.PaymentObligation {
	t.Helper()
	o, err := obligation.NewPaymentObligation(uuid.New(), obligation.KindRentInstallment, decimal.RequireFromString(amount), "USD", due, testNow.AddDate(0, -1, 0))
	require.NoError(t, err)
	require.NoError(t, h.obligations.Create(context.Background(), o))
	return o
}

func (h *harness) splitPlan(t *testing.T, total string, pct int) *splitplan.SplitPlan {
	t.Helper()
	plan, err := splitplan.NewSplitPlan(splitplan.Terms{
		ContractID:        uuid.New(),
		TotalAmount:       decimal.RequireFromString(total),
		DepositPercentage: pct,
		Currency:          "USD",
		DepositDueDate:    testNow.Add(48 * time.Hour),
		BalanceDueDate:    testNow.AddDate(0, 0, 14),
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, h.plans.Create(context.Background(), plan))
	plan.PullAllEvents()
	return plan
}

func (h *harness) obligation(t *testing.T, id uuid.UUID) *obligation.PaymentObligation {
	t.Helper()
	o, err := h.obligations.FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (h *harness) initiate(t *testing.T, obligationID uuid.UUID, rail payment.Rail) *InitiateResult {
	t.Helper()
	res, err := h.reconciler.Initiate(context.Background(), InitiateCommand{ObligationID: obligationID, Rail: rail})
	require.NoError(t, err)
	return res
}

func (h *harness) callback(rail payment.Rail, gwID string, outcome payment.Outcome, amount string) ReconcileCommand {
	return ReconcileCommand{
		Rail:                 rail,
		GatewayTransactionID: gwID,
		Outcome:              outcome,
		Amount:               decimal.RequireFromString(amount),
		Currency:             "USD",
		ProcessedAt:          h.clock.Now(),
	}
}
