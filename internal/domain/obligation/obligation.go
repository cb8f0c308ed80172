package obligation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeObligation is the aggregate type name used in events
const AggregateTypeObligation = "PaymentObligation"

// PaymentObligation is a single payable amount with a due date: a rent
// installment or one leg of a split plan.
type PaymentObligation struct {
	shared.BaseAggregateRoot
	ContractID     uuid.UUID
	SplitPlanID    *uuid.UUID
	Kind           Kind
	Amount         decimal.Decimal
	Currency       string
	DueDate        time.Time
	PaidDate       *time.Time
	Status         Status
	PaymentMethod  string
	TransactionRef string
	LateFee        decimal.Decimal
	OverdueAt      *time.Time
	RefundedAt     *time.Time
	ReceiptRef     string
	Notes          string
}

// NewPaymentObligation creates a PENDING obligation
func NewPaymentObligation(
	contractID uuid.UUID,
	kind Kind,
	amount decimal.Decimal,
	currency string,
	dueDate time.Time,
	now time.Time,
) (*PaymentObligation, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewValidationError("contract id is required")
	}
	if !kind.IsValid() {
		return nil, shared.NewValidationError("unknown obligation kind %q", kind)
	}
	if err := shared.ValidatePositiveAmount("amount", amount); err != nil {
		return nil, err
	}
	code, err := shared.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}
	if dueDate.IsZero() {
		return nil, shared.NewValidationError("due date is required")
	}

	return &PaymentObligation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(shared.NewBaseEntity(now)),
		ContractID:        contractID,
		Kind:              kind,
		Amount:            amount,
		Currency:          code,
		DueDate:           dueDate.UTC(),
		Status:            StatusPending,
		LateFee:           decimal.Zero,
	}, nil
}

// IsSplitLeg reports whether the obligation belongs to a split plan
func (o *PaymentObligation) IsSplitLeg() bool {
	return o.SplitPlanID != nil
}

// DueAmount is what a settlement must cover right now
func (o *PaymentObligation) DueAmount() decimal.Decimal {
	return o.Amount.Add(o.LateFee)
}

// AmountDueAt returns the amount a payment processed at the given instant
// must cover. A payment the gateway processed before the obligation was
// flagged overdue settles the base amount and the late fee is waived.
func (o *PaymentObligation) AmountDueAt(processedAt time.Time) (decimal.Decimal, bool) {
	if o.Status == StatusOverdue && o.OverdueAt != nil && !processedAt.IsZero() && processedAt.Before(*o.OverdueAt) {
		return o.Amount, true
	}
	return o.DueAmount(), false
}

// IsPastDue reports whether the due date is before now
func (o *PaymentObligation) IsPastDue(now time.Time) bool {
	return o.DueDate.Before(now)
}

// ReceiptKey is the storage key of the receipt issued on settlement
func (o *PaymentObligation) ReceiptKey() string {
	return fmt.Sprintf("receipts/%s/%s.json", o.ContractID, o.ID)
}

// Settlement describes a confirmed payment
type Settlement struct {
	Method         string
	TransactionRef string
	PaidAt         time.Time
	WaiveLateFee   bool
}

func (o *PaymentObligation) transition(to Status, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return shared.NewInvalidTransitionError("obligation", o.Status, to)
	}
	o.Status = to
	o.Touch(now)
	o.IncrementVersion()
	return nil
}

// MarkPaid settles the obligation
func (o *PaymentObligation) MarkPaid(s Settlement, now time.Time) error {
	if s.TransactionRef == "" {
		return shared.NewValidationError("transaction reference is required")
	}
	if err := o.transition(StatusPaid, now); err != nil {
		return err
	}

	paidAt := s.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	paidAt = paidAt.UTC()
	o.PaidDate = &paidAt
	o.PaymentMethod = s.Method
	o.TransactionRef = s.TransactionRef
	o.ReceiptRef = o.ReceiptKey()
	if s.WaiveLateFee {
		o.LateFee = decimal.Zero
	}

	o.AddDomainEvent(NewObligationPaidEvent(o, now))
	return nil
}

// MarkOverdue flags an unpaid obligation past its due date and accrues the fee
func (o *PaymentObligation) MarkOverdue(fee decimal.Decimal, now time.Time) error {
	if fee.IsNegative() {
		return shared.NewValidationError("late fee cannot be negative")
	}
	if err := o.transition(StatusOverdue, now); err != nil {
		return err
	}
	at := now.UTC()
	o.OverdueAt = &at
	o.LateFee = shared.RoundMoney(fee)

	o.AddDomainEvent(NewObligationOverdueEvent(o, now))
	return nil
}

// Cancel is an administrative termination, disallowed once paid
func (o *PaymentObligation) Cancel(reason string, now time.Time) error {
	if err := o.transition(StatusCancelled, now); err != nil {
		return err
	}
	o.appendNote("cancelled", reason)
	o.AddDomainEvent(NewObligationCancelledEvent(o, reason, now))
	return nil
}

// Refund reverses a settled obligation
func (o *PaymentObligation) Refund(reason string, now time.Time) error {
	if err := o.transition(StatusRefunded, now); err != nil {
		return err
	}
	at := now.UTC()
	o.RefundedAt = &at
	o.PaidDate = nil
	o.appendNote("refunded", reason)
	o.AddDomainEvent(NewObligationRefundedEvent(o, reason, now))
	return nil
}

func (o *PaymentObligation) appendNote(action, reason string) {
	if reason == "" {
		return
	}
	entry := fmt.Sprintf("%s: %s", action, reason)
	if o.Notes == "" {
		o.Notes = entry
		return
	}
	o.Notes = o.Notes + "\n" + entry
}

// CheckInvariants verifies the entity is internally consistent
func (o *PaymentObligation) CheckInvariants() error {
	if !o.Amount.IsPositive() {
		return shared.NewValidationError("obligation %s: amount must be positive", o.ID)
	}
	if (o.Status == StatusPaid) != (o.PaidDate != nil) {
		return shared.NewValidationError("obligation %s: paid date must be set exactly when status is PAID", o.ID)
	}
	if o.LateFee.IsNegative() {
		return shared.NewValidationError("obligation %s: late fee cannot be negative", o.ID)
	}
	if !o.LateFee.IsZero() && o.OverdueAt == nil {
		return shared.NewValidationError("obligation %s: late fee accrued without an overdue transition", o.ID)
	}
	if o.Kind.IsSplitLeg() != (o.SplitPlanID != nil) {
		return shared.NewValidationError("obligation %s: split plan id does not match kind %s", o.ID, o.Kind)
	}
	return nil
}
