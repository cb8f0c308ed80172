package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_MarksPastDueObligationsOverdue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var past []uuid.UUID
	for i := 1; i <= 5; i++ {
		past = append(past, h.installment(t, "800.00", testNow.AddDate(0, 0, -i)).ID)
	}
	future := h.installment(t, "800.00", testNow.AddDate(0, 0, 3))
	dueNow := h.installment(t, "800.00", testNow)

	report, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Transitioned)
	assert.Zero(t, report.Skipped)

	for _, id := range past {
		o := h.obligation(t, id)
		assert.Equal(t, obligation.StatusOverdue, o.Status)
		assert.True(t, o.LateFee.Equal(decimal.RequireFromString("20.00")))
		require.NotNil(t, o.OverdueAt)
		assert.True(t, o.OverdueAt.Equal(testNow))
	}
	assert.Equal(t, obligation.StatusPending, h.obligation(t, future.ID).Status)
	assert.Equal(t, obligation.StatusPending, h.obligation(t, dueNow.ID).Status)
	assert.Equal(t, 5, h.publisher.count(obligation.EventTypeObligationOverdue))

	again, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Transitioned)
	assert.Equal(t, 5, h.publisher.count(obligation.EventTypeObligationOverdue))
}

func TestSweeper_UsesPolicyInEffect(t *testing.T) {
	h := newHarness(t)
	o := h.installment(t, "1200.00", testNow.AddDate(0, 0, -2))
	require.NoError(t, h.policy.Store(obligation.NewPercentageFeePolicy(decimal.NewFromInt(5))))

	_, err := h.sweeper.Sweep(context.Background())
	require.NoError(t, err)

	assert.True(t, h.obligation(t, o.ID).LateFee.Equal(decimal.RequireFromString("60.00")))
}

// racingObligations settles an obligation between the sweeper's read and write
type racingObligations struct {
	*persistence.GormObligationRepository
	h      *harness
	target uuid.UUID
}

func (r *racingObligations) MarkOverdueIfPending(ctx context.Context, id uuid.UUID, lateFee decimal.Decimal, at time.Time) (bool, error) {
	if id == r.target {
		err := r.h.db.Model(&models.ObligationModel{}).
			Where("id = ?", id).
			Updates(map[string]any{"status": obligation.StatusPaid, "version": 2}).Error
		if err != nil {
			return false, err
		}
	}
	return r.GormObligationRepository.MarkOverdueIfPending(ctx, id, lateFee, at)
}

func TestSweeper_SkipsObligationSettledConcurrently(t *testing.T) {
	h := newHarness(t)
	raced := h.installment(t, "500.00", testNow.AddDate(0, 0, -2))
	other := h.installment(t, "500.00", testNow.AddDate(0, 0, -1))

	sweeper := NewSweeper(SweeperConfig{
		UnitOfWork:   persistence.NewGormUnitOfWork(h.db),
		Obligations:  &racingObligations{GormObligationRepository: h.obligations, h: h, target: raced.ID},
		Plans:        h.plans,
		Transactions: h.transactions,
		Publisher:    h.publisher,
		Policy:       h.policy,
		Clock:        h.clock.Now,
		BatchSize:    10,
	})

	report, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Transitioned)
	assert.Equal(t, 1, report.Skipped)

	settled := h.obligation(t, raced.ID)
	assert.Equal(t, obligation.StatusPaid, settled.Status)
	assert.True(t, settled.LateFee.IsZero())
	assert.Equal(t, obligation.StatusOverdue, h.obligation(t, other.ID).Status)
	assert.Equal(t, 1, h.publisher.count(obligation.EventTypeObligationOverdue))
}

func TestSweeper_IgnoresSettledAndCancelled(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.installment(t, "500.00", testNow.AddDate(0, 0, -3))
	require.NoError(t, o.Cancel("lease terminated", testNow))
	require.NoError(t, h.obligations.SaveWithLock(ctx, o))

	report, err := h.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Equal(t, obligation.StatusCancelled, h.obligation(t, o.ID).Status)
}

func TestSweeper_ExpireStale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale := h.installment(t, "1000.00", testNow.AddDate(0, 0, 5))
	staleTx := h.initiate(t, stale.ID, payment.RailCard)

	held := h.installment(t, "1000.00", testNow.AddDate(0, 0, 5))
	heldTx := h.initiate(t, held.ID, payment.RailCard)
	_, err := h.reconciler.Reconcile(ctx, h.callback(payment.RailCard, heldTx.GatewayTransactionID, payment.OutcomeSuccess, "10.00"))
	require.Error(t, err)

	h.clock.Set(testNow.Add(90 * time.Minute))
	fresh := h.installment(t, "1000.00", testNow.AddDate(0, 0, 5))
	freshTx := h.initiate(t, fresh.ID, payment.RailCard)

	h.clock.Set(testNow.Add(150 * time.Minute))
	report, err := h.sweeper.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Expired)

	tx, err := h.transactions.FindByID(ctx, staleTx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.TransactionStatusExpired, tx.Status)
	assert.Equal(t, obligation.StatusPending, h.obligation(t, stale.ID).Status)

	tx, err = h.transactions.FindByID(ctx, heldTx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.TransactionStatusPending, tx.Status)

	tx, err = h.transactions.FindByID(ctx, freshTx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, payment.TransactionStatusPending, tx.Status)

	// a callback after expiry is a duplicate and does not settle
	res, err := h.reconciler.Reconcile(ctx, h.callback(payment.RailCard, staleTx.GatewayTransactionID, payment.OutcomeSuccess, "1000.00"))
	require.NoError(t, err)
	assert.Equal(t, ResultDuplicate, res.Status)
	assert.Equal(t, obligation.StatusPending, h.obligation(t, stale.ID).Status)

	// the payer can start over
	retry := h.initiate(t, stale.ID, payment.RailCard)
	assert.False(t, retry.Reused)
}

func TestSweeper_ExpiredDepositCountsAsFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	plan := h.splitPlan(t, "2000.00", 25)
	h.initiate(t, plan.Deposit.ID, payment.RailMobileMoney)
	h.initiate(t, plan.Balance.ID, payment.RailMobileMoney)

	h.clock.Set(testNow.Add(3 * time.Hour))
	report, err := h.sweeper.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Expired)

	stored, err := h.plans.FindByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.DepositFailedAttempts)
	assert.False(t, stored.DepositFailed)
	assert.Equal(t, 1, h.metrics.get("expired"))
}

func TestSweeper_ExpireStaleDrainsEveryBatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var ids []uuid.UUID
	for range 5 {
		o := h.installment(t, "500.00", testNow.AddDate(0, 0, 5))
		ids = append(ids, h.initiate(t, o.ID, payment.RailCard).TransactionID)
	}

	h.clock.Set(testNow.Add(3 * time.Hour))
	report, err := h.sweeper.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 5, report.Expired)
	assert.Zero(t, report.Skipped)

	for _, id := range ids {
		tx, err := h.transactions.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, payment.TransactionStatusExpired, tx.Status)
	}
}
