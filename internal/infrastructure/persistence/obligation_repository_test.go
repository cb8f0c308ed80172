package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormObligationRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()
	c := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)

	o := newInstallment(t, c.ID, "1000.00", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, o))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
	assert.True(t, found.Amount.Equal(decimal.RequireFromString("1000.00")))
	assert.Equal(t, obligation.StatusPending, found.Status)
	assert.Equal(t, 1, found.Version)
	assert.Nil(t, found.PaidDate)
	assert.True(t, found.DueDate.Equal(o.DueDate))

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormObligationRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()
	c := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)

	o := newInstallment(t, c.ID, "1000.00", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, o))

	t.Run("persists a settlement", func(t *testing.T) {
		copyA, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.NoError(t, copyA.MarkPaid(obligation.Settlement{Method: "CARD", TransactionRef: "gw-1", PaidAt: testNow}, testNow))
		require.NoError(t, repo.SaveWithLock(ctx, copyA))

		stored, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, obligation.StatusPaid, stored.Status)
		assert.Equal(t, 2, stored.Version)
		require.NotNil(t, stored.PaidDate)
		assert.True(t, stored.PaidDate.Equal(testNow))
		assert.Equal(t, "gw-1", stored.TransactionRef)
		assert.Equal(t, stored.ReceiptKey(), stored.ReceiptRef)
	})

	t.Run("rejects a stale copy", func(t *testing.T) {
		stale := newInstallment(t, c.ID, "1000.00", o.DueDate)
		stale.ID = o.ID
		require.NoError(t, stale.Cancel("late", testNow))

		err := repo.SaveWithLock(ctx, stale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		stored, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, obligation.StatusPaid, stored.Status)
	})
}

func TestGormObligationRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()
	c := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)
	other := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)

	for m := 1; m <= 5; m++ {
		require.NoError(t, repo.Create(ctx, newInstallment(t, c.ID, "500.00", time.Date(2025, time.Month(m), 5, 0, 0, 0, 0, time.UTC))))
	}
	require.NoError(t, repo.Create(ctx, newInstallment(t, other.ID, "800.00", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))))

	items, total, err := repo.List(ctx, obligation.Filter{
		Filter:     shared.Filter{Page: 1, PageSize: 2},
		ContractID: &c.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, items, 2)
	assert.Equal(t, time.January, items[0].DueDate.Month())

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	items, total, err = repo.List(ctx, obligation.Filter{
		Filter:     shared.DefaultFilter(),
		ContractID: &c.ID,
		DueFrom:    &from,
		Status:     obligation.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)
}

func TestGormObligationRepository_CreateIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()
	c := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)

	batch := func() []*obligation.PaymentObligation {
		return []*obligation.PaymentObligation{
			newInstallment(t, c.ID, "1000.00", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)),
			newInstallment(t, c.ID, "1000.00", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)),
		}
	}

	n, err := repo.CreateIfAbsent(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.CreateIfAbsent(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, total, err := repo.List(ctx, obligation.Filter{Filter: shared.DefaultFilter(), ContractID: &c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGormObligationRepository_OverdueSweepQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormObligationRepository(db)
	ctx := context.Background()
	c := seedContract(t, db, uuid.New(), uuid.New(), contract.StatusActive)

	pastDue := newInstallment(t, c.ID, "1000.00", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	future := newInstallment(t, c.ID, "1000.00", time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC))
	paid := newInstallment(t, c.ID, "1000.00", time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, paid.MarkPaid(obligation.Settlement{Method: "CARD", TransactionRef: "gw-p"}, testNow))
	for _, o := range []*obligation.PaymentObligation{pastDue, future, paid} {
		require.NoError(t, repo.Create(ctx, o))
	}

	candidates, err := repo.FindPastDue(ctx, testNow, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, pastDue.ID, candidates[0].ID)

	fee := decimal.RequireFromString("50.00")
	ok, err := repo.MarkOverdueIfPending(ctx, pastDue.ID, fee, testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkOverdueIfPending(ctx, pastDue.ID, fee, testNow)
	require.NoError(t, err)
	assert.False(t, ok, "second sweep must not touch an already overdue row")

	ok, err = repo.MarkOverdueIfPending(ctx, paid.ID, fee, testNow)
	require.NoError(t, err)
	assert.False(t, ok, "paid rows are never flagged")

	stored, err := repo.FindByID(ctx, pastDue.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusOverdue, stored.Status)
	assert.True(t, stored.LateFee.Equal(fee))
	assert.Equal(t, 2, stored.Version)
	require.NotNil(t, stored.OverdueAt)
}

func newMockObligationRepository(t *testing.T) (*GormObligationRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormObligationRepository(gormDB), mock, mockDB
}

func TestGormObligationRepository_MarkOverdueIfPending_SQL(t *testing.T) {
	repo, mock, mockDB := newMockObligationRepository(t)
	defer mockDB.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE "payment_obligations" SET .*"version"=version \+ 1.* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkOverdueIfPending(context.Background(), id, decimal.NewFromInt(25), testNow)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormObligationRepository_SaveWithLock_SQL(t *testing.T) {
	repo, mock, mockDB := newMockObligationRepository(t)
	defer mockDB.Close()

	o, err := obligation.NewPaymentObligation(uuid.New(), obligation.KindRentInstallment, decimal.NewFromInt(100), "USD", testNow, testNow)
	require.NoError(t, err)
	require.NoError(t, o.Cancel("duplicate", testNow))

	mock.ExpectExec(`UPDATE "payment_obligations" SET .* WHERE id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SaveWithLock(context.Background(), o)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
