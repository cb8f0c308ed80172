package obligation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter narrows obligation listings
type Filter struct {
	shared.Filter
	ContractID  *uuid.UUID
	SplitPlanID *uuid.UUID
	Status      Status
	Kind        Kind
	DueFrom     *time.Time
	DueTo       *time.Time
}

// Repository persists payment obligations. Implementations join the ambient
// unit of work carried by ctx.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentObligation, error)
	FindBySplitPlan(ctx context.Context, planID uuid.UUID) ([]PaymentObligation, error)
	List(ctx context.Context, filter Filter) ([]PaymentObligation, int64, error)

	// Create inserts a new obligation
	Create(ctx context.Context, o *PaymentObligation) error

	// CreateIfAbsent inserts installments, skipping ones already scheduled
	// for the same (contract, kind, due date). Returns the number inserted.
	CreateIfAbsent(ctx context.Context, obligations []*PaymentObligation) (int, error)

	// SaveWithLock persists o only if the stored version is o.Version-1.
	// Returns a CONCURRENCY_CONFLICT error when another writer got there first.
	SaveWithLock(ctx context.Context, o *PaymentObligation) error

	// FindPastDue returns PENDING obligations with due_date < now
	FindPastDue(ctx context.Context, now time.Time, limit int) ([]PaymentObligation, error)

	// MarkOverdueIfPending moves one obligation to OVERDUE only while it is
	// still PENDING. Reports false when the row no longer matches.
	MarkOverdueIfPending(ctx context.Context, id uuid.UUID, lateFee decimal.Decimal, at time.Time) (bool, error)
}
