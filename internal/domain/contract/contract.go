// Package contract holds the read-only view of rental contracts owned by
// the contract management service.
package contract

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a rental contract
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusExpired    Status = "EXPIRED"
	StatusTerminated Status = "TERMINATED"
	StatusSuspended  Status = "SUSPENDED"
)

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// Contract is a rental agreement between an owner and a tenant
type Contract struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	TenantID    uuid.UUID
	PropertyID  uuid.UUID
	MonthlyRent decimal.Decimal
	Deposit     decimal.Decimal
	Currency    string
	StartDate   time.Time
	EndDate     time.Time
	DueDay      int
	Status      Status
}

// IsActive reports whether obligations may be created against the contract
func (c *Contract) IsActive() bool {
	return c.Status == StatusActive
}

// InstallmentDueDates returns one due date per month between start and end,
// on DueDay clamped to the month length.
func (c *Contract) InstallmentDueDates() []time.Time {
	day := c.DueDay
	if day < 1 {
		day = 1
	}
	start := c.StartDate.UTC()
	end := c.EndDate.UTC()

	var dates []time.Time
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		due := time.Date(cursor.Year(), cursor.Month(), min(day, daysIn(cursor)), 0, 0, 0, 0, time.UTC)
		if !due.Before(truncateDay(start)) && !due.After(end) {
			dates = append(dates, due)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}
	return dates
}

func daysIn(month time.Time) int {
	return time.Date(month.Year(), month.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Reader resolves contracts by id
type Reader interface {
	GetContract(ctx context.Context, id uuid.UUID) (*Contract, error)
	// ListByOwner returns the contracts of one owner, used to scope dashboards
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Contract, error)
}
