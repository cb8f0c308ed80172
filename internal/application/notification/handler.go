// Package notification turns obligation and split plan transitions into
// outbound notifications and settlement receipts.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notification is the message handed to a Notifier
type Notification struct {
	EventType    string          `json:"event_type"`
	ObligationID uuid.UUID       `json:"obligation_id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	SplitPlanID  *uuid.UUID      `json:"split_plan_id,omitempty"`
	Kind         string          `json:"kind,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	LateFee      decimal.Decimal `json:"late_fee"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Total is the amount plus any late fee
func (n Notification) Total() decimal.Decimal {
	return n.Amount.Add(n.LateFee)
}

// Notifier delivers a notification to tenants or owners
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Handler forwards status transitions to a Notifier. Wrap it in an
// idempotent handler keyed on the event's DedupKey so each
// obligation/status pair is delivered once.
type Handler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a Handler
func NewHandler(notifier Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{notifier: notifier, logger: logger.Named("notification")}
}

// EventTypes returns the event types this handler is interested in
func (h *Handler) EventTypes() []string {
	return []string{
		obligation.EventTypeObligationPaid,
		obligation.EventTypeObligationOverdue,
		splitplan.EventTypeSplitPlanCompleted,
	}
}

// Handle builds the notification for ev and delivers it
func (h *Handler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	n, err := FromEvent(ev)
	if err != nil {
		h.logger.Error("unexpected event type",
			zap.String("event_type", ev.EventType()),
			zap.Error(err))
		return err
	}
	if err := h.notifier.Notify(ctx, n); err != nil {
		h.logger.Warn("notification delivery failed",
			zap.String("event_type", n.EventType),
			zap.String("obligation_id", n.ObligationID.String()),
			zap.Error(err))
		return fmt.Errorf("deliver %s notification: %w", n.EventType, err)
	}
	h.logger.Debug("notification delivered",
		zap.String("event_type", n.EventType),
		zap.String("obligation_id", n.ObligationID.String()),
		zap.String("status", n.Status))
	return nil
}

// FromEvent maps a supported domain event onto a Notification
func FromEvent(ev shared.DomainEvent) (Notification, error) {
	switch e := ev.(type) {
	case obligation.StatusChangedEvent:
		p := e.Payload()
		return Notification{
			EventType:    ev.EventType(),
			ObligationID: p.ObligationID,
			ContractID:   p.ContractID,
			SplitPlanID:  p.SplitPlanID,
			Kind:         p.Kind.String(),
			Amount:       p.Amount,
			LateFee:      p.LateFee,
			Currency:     p.Currency,
			Status:       p.Status.String(),
			OccurredAt:   ev.OccurredAt(),
		}, nil
	case *splitplan.SplitPlanCompletedEvent:
		planID := e.PlanID
		return Notification{
			EventType:    ev.EventType(),
			ObligationID: e.ObligationID,
			ContractID:   e.ContractID,
			SplitPlanID:  &planID,
			Amount:       e.Amount,
			LateFee:      decimal.Zero,
			Currency:     e.Currency,
			Status:       e.Status.String(),
			OccurredAt:   ev.OccurredAt(),
		}, nil
	}
	return Notification{}, fmt.Errorf("no notification for event type %s", ev.EventType())
}
