package splitplan

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists split plans together with their legs
type Repository interface {
	// FindByID loads the plan and both legs
	FindByID(ctx context.Context, id uuid.UUID) (*SplitPlan, error)

	// FindByContract lists plans of a contract with their legs
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]*SplitPlan, error)

	// Create inserts the plan and both legs atomically
	Create(ctx context.Context, plan *SplitPlan) error

	// SaveWithLock persists the plan and the legs it changed, each guarded by
	// its version. Returns a CONCURRENCY_CONFLICT error on a lost race.
	SaveWithLock(ctx context.Context, plan *SplitPlan) error
}
