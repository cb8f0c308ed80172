package obligation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeObligationPaid      = "ObligationPaid"
	EventTypeObligationOverdue   = "ObligationOverdue"
	EventTypeObligationCancelled = "ObligationCancelled"
	EventTypeObligationRefunded  = "ObligationRefunded"
)

// StatusChange is the notification payload shared by obligation events
type StatusChange struct {
	ObligationID uuid.UUID       `json:"obligation_id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	SplitPlanID  *uuid.UUID      `json:"split_plan_id,omitempty"`
	Kind         Kind            `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	LateFee      decimal.Decimal `json:"late_fee"`
	Currency     string          `json:"currency"`
	Status       Status          `json:"status"`
}

// Payload returns the status change carried by the event
func (c StatusChange) Payload() StatusChange {
	return c
}

// DedupKey lets consumers drop redelivered notifications for the same transition
func (c StatusChange) DedupKey() string {
	return fmt.Sprintf("%s:%s", c.ObligationID, c.Status)
}

// StatusChangedEvent is implemented by every obligation transition event
type StatusChangedEvent interface {
	shared.DomainEvent
	Payload() StatusChange
}

func newStatusChange(o *PaymentObligation) StatusChange {
	return StatusChange{
		ObligationID: o.ID,
		ContractID:   o.ContractID,
		SplitPlanID:  o.SplitPlanID,
		Kind:         o.Kind,
		Amount:       o.Amount,
		LateFee:      o.LateFee,
		Currency:     o.Currency,
		Status:       o.Status,
	}
}

// ObligationPaidEvent is raised when a settlement is applied
type ObligationPaidEvent struct {
	shared.BaseDomainEvent
	StatusChange
	PaidDate       time.Time `json:"paid_date"`
	PaymentMethod  string    `json:"payment_method"`
	TransactionRef string    `json:"transaction_ref"`
	ReceiptRef     string    `json:"receipt_ref"`
}

// EventType returns the event type name
func (e *ObligationPaidEvent) EventType() string {
	return EventTypeObligationPaid
}

// NewObligationPaidEvent creates a new ObligationPaidEvent
func NewObligationPaidEvent(o *PaymentObligation, now time.Time) *ObligationPaidEvent {
	e := &ObligationPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationPaid, AggregateTypeObligation, o.ID, now),
		StatusChange:    newStatusChange(o),
		PaymentMethod:   o.PaymentMethod,
		TransactionRef:  o.TransactionRef,
		ReceiptRef:      o.ReceiptRef,
	}
	if o.PaidDate != nil {
		e.PaidDate = *o.PaidDate
	}
	return e
}

// ObligationOverdueEvent is raised when the sweeper flags an obligation
type ObligationOverdueEvent struct {
	shared.BaseDomainEvent
	StatusChange
	DueDate time.Time `json:"due_date"`
}

// EventType returns the event type name
func (e *ObligationOverdueEvent) EventType() string {
	return EventTypeObligationOverdue
}

// NewObligationOverdueEvent creates a new ObligationOverdueEvent
func NewObligationOverdueEvent(o *PaymentObligation, now time.Time) *ObligationOverdueEvent {
	return &ObligationOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationOverdue, AggregateTypeObligation, o.ID, now),
		StatusChange:    newStatusChange(o),
		DueDate:         o.DueDate,
	}
}

// ObligationCancelledEvent is raised on administrative cancellation
type ObligationCancelledEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Reason string `json:"reason,omitempty"`
}

// EventType returns the event type name
func (e *ObligationCancelledEvent) EventType() string {
	return EventTypeObligationCancelled
}

// NewObligationCancelledEvent creates a new ObligationCancelledEvent
func NewObligationCancelledEvent(o *PaymentObligation, reason string, now time.Time) *ObligationCancelledEvent {
	return &ObligationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationCancelled, AggregateTypeObligation, o.ID, now),
		StatusChange:    newStatusChange(o),
		Reason:          reason,
	}
}

// ObligationRefundedEvent is raised when a paid obligation is reversed
type ObligationRefundedEvent struct {
	shared.BaseDomainEvent
	StatusChange
	Reason string `json:"reason,omitempty"`
}

// EventType returns the event type name
func (e *ObligationRefundedEvent) EventType() string {
	return EventTypeObligationRefunded
}

// NewObligationRefundedEvent creates a new ObligationRefundedEvent
func NewObligationRefundedEvent(o *PaymentObligation, reason string, now time.Time) *ObligationRefundedEvent {
	return &ObligationRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeObligationRefunded, AggregateTypeObligation, o.ID, now),
		StatusChange:    newStatusChange(o),
		Reason:          reason,
	}
}
