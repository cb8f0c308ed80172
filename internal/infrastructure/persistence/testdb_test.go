package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// setupTestDB opens an in-memory SQLite database with the production schema.
// A single connection keeps the in-memory database alive and serialises
// writers the way row locks would.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

func seedContract(t *testing.T, db *gorm.DB, ownerID, propertyID uuid.UUID, status contract.Status) *contract.Contract {
	t.Helper()
	c := &contract.Contract{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		TenantID:    uuid.New(),
		PropertyID:  propertyID,
		MonthlyRent: decimal.NewFromInt(1000),
		Deposit:     decimal.NewFromInt(2000),
		Currency:    "USD",
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		DueDay:      5,
		Status:      status,
	}
	require.NoError(t, NewGormContractReader(db).Upsert(context.Background(), c))
	return c
}

func newInstallment(t *testing.T, contractID uuid.UUID, amount string, due time.Time) *obligation.PaymentObligation {
	t.Helper()
	o, err := obligation.NewPaymentObligation(contractID, obligation.KindRentInstallment, decimal.RequireFromString(amount), "USD", due, testNow)
	require.NoError(t, err)
	return o
}
