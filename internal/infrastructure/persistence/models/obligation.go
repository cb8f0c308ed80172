package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/shopspring/decimal"
)

// ObligationModel is the persistence model for PaymentObligation.
// Rent installments are unique per (contract, kind, due date) so that
// re-scheduling a contract is idempotent.
type ObligationModel struct {
	AggregateModel
	ContractID     uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:uq_obligations_installment,priority:1,where:kind = 'RENT_INSTALLMENT'"`
	SplitPlanID    *uuid.UUID        `gorm:"type:uuid;index"`
	Kind           obligation.Kind   `gorm:"type:varchar(32);not null;uniqueIndex:uq_obligations_installment,priority:2"`
	Amount         decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Currency       string            `gorm:"type:varchar(3);not null"`
	DueDate        time.Time         `gorm:"not null;index:idx_obligations_status_due,priority:2;uniqueIndex:uq_obligations_installment,priority:3"`
	PaidDate       *time.Time        `gorm:"index"`
	Status         obligation.Status `gorm:"type:varchar(20);not null;index:idx_obligations_status_due,priority:1"`
	PaymentMethod  string            `gorm:"type:varchar(32)"`
	TransactionRef string            `gorm:"type:varchar(128)"`
	LateFee        decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	OverdueAt      *time.Time
	RefundedAt     *time.Time
	ReceiptRef     string `gorm:"type:varchar(255)"`
	Notes          string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ObligationModel) TableName() string {
	return "payment_obligations"
}

// ToDomain converts the persistence model to a domain PaymentObligation
func (m *ObligationModel) ToDomain() *obligation.PaymentObligation {
	return &obligation.PaymentObligation{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ContractID:        m.ContractID,
		SplitPlanID:       m.SplitPlanID,
		Kind:              m.Kind,
		Amount:            m.Amount,
		Currency:          m.Currency,
		DueDate:           m.DueDate.UTC(),
		PaidDate:          utcPtr(m.PaidDate),
		Status:            m.Status,
		PaymentMethod:     m.PaymentMethod,
		TransactionRef:    m.TransactionRef,
		LateFee:           m.LateFee,
		OverdueAt:         utcPtr(m.OverdueAt),
		RefundedAt:        utcPtr(m.RefundedAt),
		ReceiptRef:        m.ReceiptRef,
		Notes:             m.Notes,
	}
}

// FromDomain populates the persistence model from a domain PaymentObligation
func (m *ObligationModel) FromDomain(o *obligation.PaymentObligation) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.ContractID = o.ContractID
	m.SplitPlanID = o.SplitPlanID
	m.Kind = o.Kind
	m.Amount = o.Amount
	m.Currency = o.Currency
	m.DueDate = o.DueDate
	m.PaidDate = o.PaidDate
	m.Status = o.Status
	m.PaymentMethod = o.PaymentMethod
	m.TransactionRef = o.TransactionRef
	m.LateFee = o.LateFee
	m.OverdueAt = o.OverdueAt
	m.RefundedAt = o.RefundedAt
	m.ReceiptRef = o.ReceiptRef
	m.Notes = o.Notes
}

// ObligationModelFromDomain creates a new persistence model from a domain PaymentObligation
func ObligationModelFromDomain(o *obligation.PaymentObligation) *ObligationModel {
	m := &ObligationModel{}
	m.FromDomain(o)
	return m
}

// MutableColumns returns the columns rewritten by a versioned save
func (m *ObligationModel) MutableColumns() map[string]any {
	return map[string]any{
		"status":          m.Status,
		"paid_date":       m.PaidDate,
		"payment_method":  m.PaymentMethod,
		"transaction_ref": m.TransactionRef,
		"late_fee":        m.LateFee,
		"overdue_at":      m.OverdueAt,
		"refunded_at":     m.RefundedAt,
		"receipt_ref":     m.ReceiptRef,
		"notes":           m.Notes,
		"version":         m.Version,
		"updated_at":      m.UpdatedAt,
	}
}
