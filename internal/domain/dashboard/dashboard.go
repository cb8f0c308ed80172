// Package dashboard defines the read-only rollups served to property owners.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Query scopes every rollup to one owner and a due-date window
type Query struct {
	OwnerID    uuid.UUID
	ContractID *uuid.UUID
	From       time.Time
	To         time.Time
}

// Bucket is an amount with the number of obligations behind it
type Bucket struct {
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
}

// Totals are collected/pending/overdue sums for a query
type Totals struct {
	Collected Bucket `json:"collected"`
	Pending   Bucket `json:"pending"`
	Overdue   Bucket `json:"overdue"`
	Currency  string `json:"currency,omitempty"`
}

// PropertyBreakdown is the per-property slice of the totals
type PropertyBreakdown struct {
	PropertyID      uuid.UUID       `json:"property_id"`
	ActiveContracts int64           `json:"active_contracts"`
	TotalContracts  int64           `json:"total_contracts"`
	Collected       decimal.Decimal `json:"collected"`
	Pending         decimal.Decimal `json:"pending"`
	Overdue         decimal.Decimal `json:"overdue"`
}

// OccupancyRate is the share of the property's contracts that are active
func (p PropertyBreakdown) OccupancyRate() decimal.Decimal {
	if p.TotalContracts == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(p.ActiveContracts).Div(decimal.NewFromInt(p.TotalContracts)).Round(4)
}

// MonthlyIncome is collected income bucketed by paid month
type MonthlyIncome struct {
	Month     string          `json:"month"`
	Collected decimal.Decimal `json:"collected"`
	Count     int64           `json:"count"`
}

// StatusSum is one (status, sum) row produced by the store
type StatusSum struct {
	PropertyID uuid.UUID
	Status     string
	Amount     decimal.Decimal
	LateFee    decimal.Decimal
	Count      int64
}

// PaidRow is a settled obligation used to build the monthly series
type PaidRow struct {
	PaidDate time.Time
	Amount   decimal.Decimal
	LateFee  decimal.Decimal
}

// ContractCount is the number of contracts per property and status
type ContractCount struct {
	PropertyID uuid.UUID
	Status     string
	Count      int64
}

// Repository runs the raw aggregate queries. It never writes.
type Repository interface {
	SumByPropertyAndStatus(ctx context.Context, q Query) ([]StatusSum, error)
	PaidRows(ctx context.Context, q Query) ([]PaidRow, error)
	CountContractsByProperty(ctx context.Context, ownerID uuid.UUID) ([]ContractCount, error)
}
