package splitplan

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeSplitPlanCreated       = "SplitPlanCreated"
	EventTypeSplitPlanStatusChanged = "SplitPlanStatusChanged"
	EventTypeSplitPlanCompleted     = "SplitPlanCompleted"
)

// SplitPlanCreatedEvent is raised when a plan and its legs are created
type SplitPlanCreatedEvent struct {
	shared.BaseDomainEvent
	PlanID        uuid.UUID       `json:"plan_id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	DepositID     uuid.UUID       `json:"deposit_obligation_id"`
	BalanceID     uuid.UUID       `json:"balance_obligation_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
}

// EventType returns the event type name
func (e *SplitPlanCreatedEvent) EventType() string {
	return EventTypeSplitPlanCreated
}

// NewSplitPlanCreatedEvent creates a new SplitPlanCreatedEvent
func NewSplitPlanCreatedEvent(p *SplitPlan, now time.Time) *SplitPlanCreatedEvent {
	return &SplitPlanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSplitPlanCreated, AggregateTypeSplitPlan, p.ID, now),
		PlanID:          p.ID,
		ContractID:      p.ContractID,
		DepositID:       p.Deposit.ID,
		BalanceID:       p.Balance.ID,
		TotalAmount:     p.TotalAmount,
		DepositAmount:   p.DepositAmount,
		BalanceAmount:   p.BalanceAmount,
	}
}

// SplitPlanStatusChangedEvent is raised whenever the derived status moves
type SplitPlanStatusChangedEvent struct {
	shared.BaseDomainEvent
	PlanID     uuid.UUID `json:"plan_id"`
	ContractID uuid.UUID `json:"contract_id"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
}

// EventType returns the event type name
func (e *SplitPlanStatusChangedEvent) EventType() string {
	return EventTypeSplitPlanStatusChanged
}

// NewSplitPlanStatusChangedEvent creates a new SplitPlanStatusChangedEvent
func NewSplitPlanStatusChangedEvent(p *SplitPlan, old Status, now time.Time) *SplitPlanStatusChangedEvent {
	return &SplitPlanStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSplitPlanStatusChanged, AggregateTypeSplitPlan, p.ID, now),
		PlanID:          p.ID,
		ContractID:      p.ContractID,
		OldStatus:       old,
		NewStatus:       p.Status,
	}
}

// SplitPlanCompletedEvent is raised when both legs are paid
type SplitPlanCompletedEvent struct {
	shared.BaseDomainEvent
	PlanID       uuid.UUID       `json:"plan_id"`
	ObligationID uuid.UUID       `json:"obligation_id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       Status          `json:"status"`
}

// EventType returns the event type name
func (e *SplitPlanCompletedEvent) EventType() string {
	return EventTypeSplitPlanCompleted
}

// DedupKey identifies the completion regardless of redelivery
func (e *SplitPlanCompletedEvent) DedupKey() string {
	return fmt.Sprintf("%s:%s", e.PlanID, e.Status)
}

// NewSplitPlanCompletedEvent creates a new SplitPlanCompletedEvent. The
// obligation id is the leg whose settlement completed the plan.
func NewSplitPlanCompletedEvent(p *SplitPlan, now time.Time) *SplitPlanCompletedEvent {
	last := p.Balance
	if p.Deposit.PaidDate != nil && p.Balance.PaidDate != nil && p.Deposit.PaidDate.After(*p.Balance.PaidDate) {
		last = p.Deposit
	}
	return &SplitPlanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSplitPlanCompleted, AggregateTypeSplitPlan, p.ID, now),
		PlanID:          p.ID,
		ObligationID:    last.ID,
		ContractID:      p.ContractID,
		Amount:          p.TotalAmount,
		Currency:        p.Currency,
		Status:          StatusCompleted,
	}
}
