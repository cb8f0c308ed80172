package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExceptionKind classifies callbacks that need manual review
type ExceptionKind string

const (
	ExceptionOrphanCallback ExceptionKind = "ORPHAN_CALLBACK"
	ExceptionAmountMismatch ExceptionKind = "AMOUNT_MISMATCH"
)

// ReconciliationException records a gateway/local disagreement
type ReconciliationException struct {
	shared.BaseEntity
	Kind                 ExceptionKind
	Rail                 Rail
	GatewayTransactionID string
	TransactionID        *uuid.UUID
	ObligationID         *uuid.UUID
	Outcome              Outcome
	ExpectedAmount       decimal.Decimal
	ReportedAmount       decimal.Decimal
	Currency             string
	Detail               string
	Resolved             bool
	ResolvedAt           *time.Time
	ResolutionNote       string
}

// NewOrphanCallbackException records a callback with no local transaction
func NewOrphanCallbackException(rail Rail, gatewayTxID string, outcome Outcome, reported decimal.Decimal, currency string, now time.Time) *ReconciliationException {
	return &ReconciliationException{
		BaseEntity:           shared.NewBaseEntity(now),
		Kind:                 ExceptionOrphanCallback,
		Rail:                 rail,
		GatewayTransactionID: gatewayTxID,
		Outcome:              outcome,
		ExpectedAmount:       decimal.Zero,
		ReportedAmount:       reported,
		Currency:             currency,
		Detail:               "callback references an unknown gateway transaction",
	}
}

// NewAmountMismatchException records a success callback that did not cover the amount due
func NewAmountMismatchException(tx *Transaction, expected, reported decimal.Decimal, currency, detail string, now time.Time) *ReconciliationException {
	txID := tx.ID
	obligationID := tx.ObligationID
	return &ReconciliationException{
		BaseEntity:           shared.NewBaseEntity(now),
		Kind:                 ExceptionAmountMismatch,
		Rail:                 tx.Rail,
		GatewayTransactionID: tx.GatewayTransactionID,
		TransactionID:        &txID,
		ObligationID:         &obligationID,
		Outcome:              OutcomeSuccess,
		ExpectedAmount:       expected,
		ReportedAmount:       reported,
		Currency:             currency,
		Detail:               detail,
	}
}

// Resolve closes the exception after manual review
func (e *ReconciliationException) Resolve(note string, now time.Time) error {
	if e.Resolved {
		return shared.NewDomainError(shared.CodeInvalidStateTransition, "reconciliation exception is already resolved")
	}
	at := now.UTC()
	e.Resolved = true
	e.ResolvedAt = &at
	e.ResolutionNote = note
	e.Touch(now)
	return nil
}
