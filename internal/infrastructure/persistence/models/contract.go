package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/shopspring/decimal"
)

// ContractModel is the local read model of rental contracts. Rows are
// written by the contract service's replication job, never by this service.
type ContractModel struct {
	BaseModel
	OwnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null"`
	PropertyID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MonthlyRent decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Deposit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	StartDate   time.Time       `gorm:"not null"`
	EndDate     time.Time       `gorm:"not null"`
	DueDay      int             `gorm:"not null;default:1"`
	Status      contract.Status `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "rental_contracts"
}

// ToDomain converts the persistence model to a domain Contract
func (m *ContractModel) ToDomain() *contract.Contract {
	return &contract.Contract{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		TenantID:    m.TenantID,
		PropertyID:  m.PropertyID,
		MonthlyRent: m.MonthlyRent,
		Deposit:     m.Deposit,
		Currency:    m.Currency,
		StartDate:   m.StartDate.UTC(),
		EndDate:     m.EndDate.UTC(),
		DueDay:      m.DueDay,
		Status:      m.Status,
	}
}

// FromDomain populates the persistence model from a domain Contract
func (m *ContractModel) FromDomain(c *contract.Contract, now time.Time) {
	m.ID = c.ID
	m.OwnerID = c.OwnerID
	m.TenantID = c.TenantID
	m.PropertyID = c.PropertyID
	m.MonthlyRent = c.MonthlyRent
	m.Deposit = c.Deposit
	m.Currency = c.Currency
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.DueDay = c.DueDay
	m.Status = c.Status
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&ContractModel{},
		&ObligationModel{},
		&SplitPlanModel{},
		&TransactionModel{},
		&ExceptionModel{},
	}
}
