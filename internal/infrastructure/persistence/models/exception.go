package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// ExceptionModel is the persistence model for ReconciliationException.
// An open exception is unique per (kind, rail, gateway transaction id).
type ExceptionModel struct {
	BaseModel
	Kind                 payment.ExceptionKind `gorm:"type:varchar(32);not null;uniqueIndex:uq_exceptions_open,priority:1,where:resolved = false"`
	Rail                 payment.Rail          `gorm:"type:varchar(20);not null;uniqueIndex:uq_exceptions_open,priority:2"`
	GatewayTransactionID string                `gorm:"type:varchar(128);not null;uniqueIndex:uq_exceptions_open,priority:3"`
	TransactionID        *uuid.UUID            `gorm:"type:uuid"`
	ObligationID         *uuid.UUID            `gorm:"type:uuid;index"`
	Outcome              payment.Outcome       `gorm:"type:varchar(20)"`
	ExpectedAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	ReportedAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Currency             string                `gorm:"type:varchar(3)"`
	Detail               string                `gorm:"type:text"`
	Resolved             bool                  `gorm:"not null;default:false;index"`
	ResolvedAt           *time.Time
	ResolutionNote       string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExceptionModel) TableName() string {
	return "reconciliation_exceptions"
}

// ToDomain converts the persistence model to a domain ReconciliationException
func (m *ExceptionModel) ToDomain() *payment.ReconciliationException {
	return &payment.ReconciliationException{
		BaseEntity:           m.BaseModel.ToDomain(),
		Kind:                 m.Kind,
		Rail:                 m.Rail,
		GatewayTransactionID: m.GatewayTransactionID,
		TransactionID:        m.TransactionID,
		ObligationID:         m.ObligationID,
		Outcome:              m.Outcome,
		ExpectedAmount:       m.ExpectedAmount,
		ReportedAmount:       m.ReportedAmount,
		Currency:             m.Currency,
		Detail:               m.Detail,
		Resolved:             m.Resolved,
		ResolvedAt:           utcPtr(m.ResolvedAt),
		ResolutionNote:       m.ResolutionNote,
	}
}

// FromDomain populates the persistence model from a domain ReconciliationException
func (m *ExceptionModel) FromDomain(e *payment.ReconciliationException) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.Kind = e.Kind
	m.Rail = e.Rail
	m.GatewayTransactionID = e.GatewayTransactionID
	m.TransactionID = e.TransactionID
	m.ObligationID = e.ObligationID
	m.Outcome = e.Outcome
	m.ExpectedAmount = e.ExpectedAmount
	m.ReportedAmount = e.ReportedAmount
	m.Currency = e.Currency
	m.Detail = e.Detail
	m.Resolved = e.Resolved
	m.ResolvedAt = e.ResolvedAt
	m.ResolutionNote = e.ResolutionNote
}

// ExceptionModelFromDomain creates a new persistence model from a domain exception
func ExceptionModelFromDomain(e *payment.ReconciliationException) *ExceptionModel {
	m := &ExceptionModel{}
	m.FromDomain(e)
	return m
}
