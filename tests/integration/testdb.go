// Package integration runs the payment flows against a real PostgreSQL
// started with testcontainers. The schema is applied with the migrations
// embedded in the binary, so constraints and partial unique indexes behave
// exactly as in production.
package integration

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/infrastructure/migration"
	"github.com/rentflow/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// paymentTables lists every table a test may write, children first
var paymentTables = []string{
	"reconciliation_exceptions",
	"payment_transactions",
	"payment_obligations",
	"split_plans",
	"rental_contracts",
}

var (
	sharedMu        sync.Mutex
	sharedContainer testcontainers.Container
	sharedDSN       string
)

// TestDB is a migrated database with a clean set of payment tables
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	DSN   string
	t     *testing.T
}

// NewTestDB connects to the package's PostgreSQL container, starting and
// migrating it on first use, and truncates the payment tables.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need docker")
	}

	dsn := sharedDatabase(t)

	db, err := gorm.Open(gormpostgres.Open(dsn), persistence.GormConfig())
	require.NoError(t, err, "Failed to connect to test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Minute)

	tdb := &TestDB{DB: db, SqlDB: sqlDB, DSN: dsn, t: t}
	tdb.CleanTables()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return tdb
}

func sharedDatabase(t *testing.T) string {
	t.Helper()

	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedContainer != nil {
		return sharedDSN
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("rentflow_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	m, err := migration.NewEmbedded(dsn, nil)
	require.NoError(t, err, "Failed to create migrator")
	require.NoError(t, m.Up(), "Failed to apply migrations")
	require.NoError(t, m.Close())

	sharedContainer = container
	sharedDSN = dsn
	return dsn
}

// TerminateSharedContainer stops the container once the package is done
func TerminateSharedContainer() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
		sharedContainer = nil
	}
}

// CleanTables empties every payment table; schema_migrations is kept
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(paymentTables, ", ") + " CASCADE"
	require.NoError(tdb.t, tdb.DB.Exec(stmt).Error, "Failed to truncate payment tables")
}

// ContractOption adjusts a seeded contract
type ContractOption func(*contract.Contract)

// WithOwner sets the owner of the contract
func WithOwner(ownerID uuid.UUID) ContractOption {
	return func(c *contract.Contract) { c.OwnerID = ownerID }
}

// WithRent sets the monthly rent
func WithRent(amount string) ContractOption {
	return func(c *contract.Contract) { c.MonthlyRent = decimal.RequireFromString(amount) }
}

// WithPeriod sets the contract's start and end dates
func WithPeriod(start, end time.Time) ContractOption {
	return func(c *contract.Contract) {
		c.StartDate = start
		c.EndDate = end
	}
}

// WithStatus sets the contract status
func WithStatus(status contract.Status) ContractOption {
	return func(c *contract.Contract) { c.Status = status }
}

// SeedContract replicates an active three-month contract with rent due on
// the 5th, then applies opts
func (tdb *TestDB) SeedContract(opts ...ContractOption) *contract.Contract {
	tdb.t.Helper()
	c := &contract.Contract{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		TenantID:    uuid.New(),
		PropertyID:  uuid.New(),
		MonthlyRent: decimal.NewFromInt(1200),
		Deposit:     decimal.NewFromInt(2400),
		Currency:    "USD",
		StartDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		DueDay:      5,
		Status:      contract.StatusActive,
	}
	for _, opt := range opts {
		opt(c)
	}
	require.NoError(tdb.t, persistence.NewGormContractReader(tdb.DB).Upsert(context.Background(), c))
	return c
}

// Count returns the number of rows in table matching the optional condition
func (tdb *TestDB) Count(table string, where string, args ...any) int64 {
	tdb.t.Helper()
	var n int64
	q := tdb.DB.Table(table)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(tdb.t, q.Count(&n).Error)
	return n
}
