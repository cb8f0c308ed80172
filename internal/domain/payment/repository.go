package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
)

// TransactionRepository persists gateway transactions. Implementations join
// the ambient unit of work carried by ctx.
type TransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByGatewayID looks up the idempotency key of callback processing
	FindByGatewayID(ctx context.Context, rail Rail, gatewayTransactionID string) (*Transaction, error)

	// FindPending returns the open transaction for an obligation on a rail
	FindPending(ctx context.Context, obligationID uuid.UUID, rail Rail) (*Transaction, error)

	FindByObligation(ctx context.Context, obligationID uuid.UUID) ([]Transaction, error)

	// Create inserts a transaction. Returns an ALREADY_EXISTS error when
	// another PENDING transaction for the same obligation and rail, or the
	// same gateway id, is already stored.
	Create(ctx context.Context, tx *Transaction) error

	// SaveWithLock persists tx only if the stored version is tx.Version-1
	SaveWithLock(ctx context.Context, tx *Transaction) error

	// FindStale returns PENDING transactions created before cutoff that are
	// not held for review
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]Transaction, error)
}

// ExceptionFilter narrows exception listings
type ExceptionFilter struct {
	shared.Filter
	Kind            ExceptionKind
	IncludeResolved bool
}

// ExceptionRepository stores reconciliation exceptions for manual review
type ExceptionRepository interface {
	// Record stores an exception, ignoring a repeat of the same open
	// (kind, rail, gateway transaction) entry. Reports whether a row was inserted.
	Record(ctx context.Context, e *ReconciliationException) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciliationException, error)
	List(ctx context.Context, filter ExceptionFilter) ([]ReconciliationException, int64, error)
	Save(ctx context.Context, e *ReconciliationException) error
}
