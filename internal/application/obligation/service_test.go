package obligation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	svc         *Service
	contracts   *persistence.GormContractReader
	obligations *persistence.GormObligationRepository
	plans       *persistence.GormSplitPlanRepository
	pub         *capturePublisher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	f := &fixture{
		contracts:   persistence.NewGormContractReader(db),
		obligations: persistence.NewGormObligationRepository(db),
		plans:       persistence.NewGormSplitPlanRepository(db),
		pub:         &capturePublisher{},
	}
	f.svc = NewService(ServiceConfig{
		UnitOfWork:  persistence.NewGormUnitOfWork(db),
		Obligations: f.obligations,
		Plans:       f.plans,
		Contracts:   f.contracts,
		Publisher:   f.pub,
		Clock:       func() time.Time { return testNow },
	})
	return f
}

func (f *fixture) contract(t *testing.T, status contract.Status) *contract.Contract {
	t.Helper()
	c := &contract.Contract{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		TenantID:    uuid.New(),
		PropertyID:  uuid.New(),
		MonthlyRent: decimal.RequireFromString("1200.00"),
		Deposit:     decimal.RequireFromString("2400.00"),
		Currency:    "USD",
		StartDate:   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		DueDay:      31,
		Status:      status,
	}
	require.NoError(t, f.contracts.Upsert(context.Background(), c))
	return c
}

func (f *fixture) installment(t *testing.T) *obligation.PaymentObligation {
	t.Helper()
	o, err := obligation.NewPaymentObligation(uuid.New(), obligation.KindRentInstallment, decimal.NewFromInt(500), "USD", testNow.AddDate(0, 0, 3), testNow)
	require.NoError(t, err)
	require.NoError(t, f.obligations.Create(context.Background(), o))
	return o
}

func TestService_ScheduleInstallments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.contract(t, contract.StatusActive)

	res, err := f.svc.ScheduleInstallments(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, res.Planned)
	assert.Equal(t, 6, res.Created)

	page, err := f.svc.List(ctx, obligation.Filter{ContractID: &c.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 6)
	assert.True(t, page.Items[0].DueDate.Equal(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, page.Items[1].DueDate.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)))
	for _, o := range page.Items {
		assert.Equal(t, obligation.KindRentInstallment, o.Kind)
		assert.Equal(t, obligation.StatusPending, o.Status)
		assert.True(t, o.Amount.Equal(c.MonthlyRent))
	}

	again, err := f.svc.ScheduleInstallments(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, again.Planned)
	assert.Zero(t, again.Created)
}

func TestService_ScheduleInstallmentsRequiresActiveContract(t *testing.T) {
	f := setup(t)
	c := f.contract(t, contract.StatusSuspended)

	_, err := f.svc.ScheduleInstallments(context.Background(), c.ID)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.ScheduleInstallments(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_ListValidation(t *testing.T) {
	f := setup(t)

	_, err := f.svc.List(context.Background(), obligation.Filter{Status: "LOST"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.svc.List(context.Background(), obligation.Filter{Kind: "TIP"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestService_CancelInstallment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.installment(t)

	cancelled, err := f.svc.Cancel(ctx, o.ID, "lease terminated early")
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Notes, "lease terminated early")
	assert.Equal(t, 1, f.pub.count(obligation.EventTypeObligationCancelled))

	stored, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCancelled, stored.Status)

	_, err = f.svc.Cancel(ctx, o.ID, "twice")
	assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
}

func TestService_RefundRequiresPaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	o := f.installment(t)

	_, err := f.svc.Refund(ctx, o.ID, "duplicate charge")
	require.ErrorIs(t, err, shared.ErrInvalidStateTransition)

	stored, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusPending, stored.Status)
	assert.Equal(t, o.Version, stored.Version)

	require.NoError(t, stored.MarkPaid(obligation.Settlement{Method: "CARD", TransactionRef: "gw-1", PaidAt: testNow}, testNow))
	require.NoError(t, f.obligations.SaveWithLock(ctx, stored))

	refunded, err := f.svc.Refund(ctx, o.ID, "duplicate charge")
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusRefunded, refunded.Status)
	assert.Nil(t, refunded.PaidDate)
	require.NotNil(t, refunded.RefundedAt)
	assert.Equal(t, 1, f.pub.count(obligation.EventTypeObligationRefunded))
}

func TestService_CancelSplitLegCancelsPlan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	plan, err := splitplan.NewSplitPlan(splitplan.Terms{
		ContractID:        uuid.New(),
		TotalAmount:       decimal.NewFromInt(1000),
		DepositPercentage: 20,
		Currency:          "USD",
		DepositDueDate:    testNow.Add(48 * time.Hour),
		BalanceDueDate:    testNow.AddDate(0, 1, 0),
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, f.plans.Create(ctx, plan))

	leg, err := f.svc.Cancel(ctx, plan.Balance.ID, "contract voided")
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCancelled, leg.Status)

	stored, err := f.plans.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, splitplan.StatusCancelled, stored.Status)
	assert.Equal(t, obligation.StatusPending, stored.Deposit.Status)
	assert.Equal(t, obligation.StatusCancelled, stored.Balance.Status)
	assert.Equal(t, 1, f.pub.count(splitplan.EventTypeSplitPlanStatusChanged))
}
