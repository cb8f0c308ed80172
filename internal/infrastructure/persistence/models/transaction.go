package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for a gateway Transaction.
// (rail, gateway_transaction_id) is the reconciliation key; at most one
// PENDING transaction may exist per (obligation, rail).
type TransactionModel struct {
	AggregateModel
	ObligationID         uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:uq_transactions_pending,priority:1,where:status = 'PENDING'"`
	Rail                 payment.Rail              `gorm:"type:varchar(20);not null;uniqueIndex:uq_transactions_gateway,priority:1;uniqueIndex:uq_transactions_pending,priority:2"`
	GatewayTransactionID string                    `gorm:"type:varchar(128);not null;uniqueIndex:uq_transactions_gateway,priority:2"`
	Amount               decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Currency             string                    `gorm:"type:varchar(3);not null"`
	Status               payment.TransactionStatus `gorm:"type:varchar(20);not null;index:idx_transactions_status_created,priority:1"`
	RedirectURL          string                    `gorm:"type:text"`
	ClientIP             string                    `gorm:"type:varchar(64)"`
	UserAgent            string                    `gorm:"type:varchar(512)"`
	Description          string                    `gorm:"type:varchar(255)"`
	ReviewRequired       bool                      `gorm:"not null;default:false"`
	ProcessedAt          *time.Time
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *payment.Transaction {
	return &payment.Transaction{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		ObligationID:         m.ObligationID,
		GatewayTransactionID: m.GatewayTransactionID,
		Amount:               m.Amount,
		Currency:             m.Currency,
		Rail:                 m.Rail,
		Status:               m.Status,
		RedirectURL:          m.RedirectURL,
		ClientIP:             m.ClientIP,
		UserAgent:            m.UserAgent,
		Description:          m.Description,
		ReviewRequired:       m.ReviewRequired,
		ProcessedAt:          utcPtr(m.ProcessedAt),
	}
}

// FromDomain populates the persistence model from a domain Transaction
func (m *TransactionModel) FromDomain(t *payment.Transaction) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.ObligationID = t.ObligationID
	m.GatewayTransactionID = t.GatewayTransactionID
	m.Amount = t.Amount
	m.Currency = t.Currency
	m.Rail = t.Rail
	m.Status = t.Status
	m.RedirectURL = t.RedirectURL
	m.ClientIP = t.ClientIP
	m.UserAgent = t.UserAgent
	m.Description = t.Description
	m.ReviewRequired = t.ReviewRequired
	m.ProcessedAt = t.ProcessedAt
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *payment.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(t)
	return m
}
