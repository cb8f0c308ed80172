package splitplan

import "github.com/rentflow/backend/internal/domain/obligation"

// Status is the plan-level state, always derived from the legs
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusDepositPaid Status = "DEPOSIT_PAID"
	StatusCompleted   Status = "COMPLETED"
	StatusCancelled   Status = "CANCELLED"
	StatusFailed      Status = "FAILED"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDepositPaid, StatusCompleted, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// AcceptsPayments reports whether legs of a plan in this status may be settled
func (s Status) AcceptsPayments() bool {
	return s == StatusPending || s == StatusDepositPaid
}

func isVoid(s obligation.Status) bool {
	return s == obligation.StatusCancelled || s == obligation.StatusRefunded
}

// DeriveStatus computes the plan status from its legs. Rules apply in order.
// A void leg cancels the plan even when the other leg is PAID.
func DeriveStatus(deposit, balance obligation.Status, depositFailed bool) Status {
	switch {
	case deposit == obligation.StatusPaid && balance == obligation.StatusPaid:
		return StatusCompleted
	case isVoid(deposit) || isVoid(balance):
		return StatusCancelled
	case depositFailed && deposit != obligation.StatusPaid:
		return StatusFailed
	case deposit == obligation.StatusPaid && balance.IsPayable():
		return StatusDepositPaid
	default:
		return StatusPending
	}
}
