package models

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/shopspring/decimal"
)

// SplitPlanModel is the persistence model for the SplitPlan aggregate root.
// Legs live in payment_obligations and are referenced from here.
type SplitPlanModel struct {
	AggregateModel
	ContractID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalAmount           decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	DepositPercentage     int              `gorm:"not null"`
	DepositAmount         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	BalanceAmount         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Currency              string           `gorm:"type:varchar(3);not null"`
	Status                splitplan.Status `gorm:"type:varchar(20);not null;index"`
	Description           string           `gorm:"type:text"`
	DepositFailedAttempts int              `gorm:"not null;default:0"`
	DepositFailed         bool             `gorm:"not null;default:false"`
	DepositObligationID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
	BalanceObligationID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (SplitPlanModel) TableName() string {
	return "split_plans"
}

// ToDomain converts the persistence model and its loaded legs to a domain SplitPlan
func (m *SplitPlanModel) ToDomain(deposit, balance *obligation.PaymentObligation) *splitplan.SplitPlan {
	return &splitplan.SplitPlan{
		BaseAggregateRoot:     m.ToDomainAggregateRoot(),
		ContractID:            m.ContractID,
		TotalAmount:           m.TotalAmount,
		DepositPercentage:     m.DepositPercentage,
		DepositAmount:         m.DepositAmount,
		BalanceAmount:         m.BalanceAmount,
		Currency:              m.Currency,
		Status:                m.Status,
		Description:           m.Description,
		DepositFailedAttempts: m.DepositFailedAttempts,
		DepositFailed:         m.DepositFailed,
		Deposit:               deposit,
		Balance:               balance,
	}
}

// FromDomain populates the persistence model from a domain SplitPlan
func (m *SplitPlanModel) FromDomain(p *splitplan.SplitPlan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ContractID = p.ContractID
	m.TotalAmount = p.TotalAmount
	m.DepositPercentage = p.DepositPercentage
	m.DepositAmount = p.DepositAmount
	m.BalanceAmount = p.BalanceAmount
	m.Currency = p.Currency
	m.Status = p.Status
	m.Description = p.Description
	m.DepositFailedAttempts = p.DepositFailedAttempts
	m.DepositFailed = p.DepositFailed
	if p.Deposit != nil {
		m.DepositObligationID = p.Deposit.ID
	}
	if p.Balance != nil {
		m.BalanceObligationID = p.Balance.ID
	}
}

// SplitPlanModelFromDomain creates a new persistence model from a domain SplitPlan
func SplitPlanModelFromDomain(p *splitplan.SplitPlan) *SplitPlanModel {
	m := &SplitPlanModel{}
	m.FromDomain(p)
	return m
}

// MutableColumns returns the columns rewritten by a versioned save
func (m *SplitPlanModel) MutableColumns() map[string]any {
	return map[string]any{
		"status":                  m.Status,
		"deposit_failed_attempts": m.DepositFailedAttempts,
		"deposit_failed":          m.DepositFailed,
		"version":                 m.Version,
		"updated_at":              m.UpdatedAt,
	}
}
