package splitplan

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeSplitPlan is the aggregate type name used in events
const AggregateTypeSplitPlan = "SplitPlan"

var hundred = decimal.NewFromInt(100)

// SplitPlan groups a deposit leg and a balance leg for one contract.
// Every leg mutation goes through the plan so that both are persisted together.
type SplitPlan struct {
	shared.BaseAggregateRoot
	ContractID            uuid.UUID
	TotalAmount           decimal.Decimal
	DepositPercentage     int
	DepositAmount         decimal.Decimal
	BalanceAmount         decimal.Decimal
	Currency              string
	Status                Status
	Description           string
	DepositFailedAttempts int
	DepositFailed         bool

	Deposit *obligation.PaymentObligation
	Balance *obligation.PaymentObligation

	changed map[uuid.UUID]struct{}
}

// Terms is the input for creating a plan
type Terms struct {
	ContractID        uuid.UUID
	TotalAmount       decimal.Decimal
	DepositPercentage int
	Currency          string
	Description       string
	DepositDueDate    time.Time
	BalanceDueDate    time.Time
}

// ComputeSplit divides total into deposit and balance. The balance is always
// total minus deposit so the two add up exactly.
func ComputeSplit(total decimal.Decimal, pct int) (decimal.Decimal, decimal.Decimal, error) {
	if err := shared.ValidatePositiveAmount("total amount", total); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if pct < 1 || pct > 99 {
		return decimal.Zero, decimal.Zero, shared.NewValidationError("deposit percentage must be between 1 and 99, got %d", pct)
	}
	deposit := shared.RoundMoney(total.Mul(decimal.NewFromInt(int64(pct))).Div(hundred))
	balance := total.Sub(deposit)
	if !deposit.IsPositive() || !balance.IsPositive() {
		return decimal.Zero, decimal.Zero, shared.NewValidationError("total %s is too small to split at %d%%", total, pct)
	}
	return deposit, balance, nil
}

// NewSplitPlan creates a plan and both of its legs
func NewSplitPlan(terms Terms, now time.Time) (*SplitPlan, error) {
	deposit, balance, err := ComputeSplit(terms.TotalAmount, terms.DepositPercentage)
	if err != nil {
		return nil, err
	}
	if terms.BalanceDueDate.Before(terms.DepositDueDate) {
		return nil, shared.NewValidationError("balance due date cannot precede deposit due date")
	}

	depositLeg, err := obligation.NewPaymentObligation(terms.ContractID, obligation.KindSplitDeposit, deposit, terms.Currency, terms.DepositDueDate, now)
	if err != nil {
		return nil, err
	}
	balanceLeg, err := obligation.NewPaymentObligation(terms.ContractID, obligation.KindSplitBalance, balance, terms.Currency, terms.BalanceDueDate, now)
	if err != nil {
		return nil, err
	}

	p := &SplitPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(shared.NewBaseEntity(now)),
		ContractID:        terms.ContractID,
		TotalAmount:       terms.TotalAmount,
		DepositPercentage: terms.DepositPercentage,
		DepositAmount:     deposit,
		BalanceAmount:     balance,
		Currency:          depositLeg.Currency,
		Status:            StatusPending,
		Description:       terms.Description,
		Deposit:           depositLeg,
		Balance:           balanceLeg,
	}
	depositLeg.SplitPlanID = &p.ID
	balanceLeg.SplitPlanID = &p.ID
	p.AddDomainEvent(NewSplitPlanCreatedEvent(p, now))
	return p, nil
}

// Leg returns the plan's leg with the given obligation id
func (p *SplitPlan) Leg(obligationID uuid.UUID) (*obligation.PaymentObligation, error) {
	switch {
	case p.Deposit != nil && p.Deposit.ID == obligationID:
		return p.Deposit, nil
	case p.Balance != nil && p.Balance.ID == obligationID:
		return p.Balance, nil
	}
	return nil, shared.NewNotFoundError("split plan leg", obligationID)
}

// Legs returns deposit and balance in that order
func (p *SplitPlan) Legs() []*obligation.PaymentObligation {
	return []*obligation.PaymentObligation{p.Deposit, p.Balance}
}

// ChangedLegs returns the legs mutated since the plan was loaded
func (p *SplitPlan) ChangedLegs() []*obligation.PaymentObligation {
	var legs []*obligation.PaymentObligation
	for _, leg := range p.Legs() {
		if _, ok := p.changed[leg.ID]; ok {
			legs = append(legs, leg)
		}
	}
	return legs
}

// MarkPersisted forgets which legs changed once the plan has been saved
func (p *SplitPlan) MarkPersisted() {
	p.changed = nil
}

// DerivedStatus recomputes the plan status from the current legs
func (p *SplitPlan) DerivedStatus() Status {
	return DeriveStatus(p.Deposit.Status, p.Balance.Status, p.DepositFailed)
}

// SettleLeg marks one leg paid and recomputes the plan
func (p *SplitPlan) SettleLeg(obligationID uuid.UUID, s obligation.Settlement, now time.Time) error {
	leg, err := p.Leg(obligationID)
	if err != nil {
		return err
	}
	if err := leg.MarkPaid(s, now); err != nil {
		return err
	}
	p.legChanged(leg, now)
	return nil
}

// CancelLeg cancels one payable leg administratively
func (p *SplitPlan) CancelLeg(obligationID uuid.UUID, reason string, now time.Time) error {
	leg, err := p.Leg(obligationID)
	if err != nil {
		return err
	}
	if err := leg.Cancel(reason, now); err != nil {
		return err
	}
	p.legChanged(leg, now)
	return nil
}

// RefundLeg reverses one paid leg
func (p *SplitPlan) RefundLeg(obligationID uuid.UUID, reason string, now time.Time) error {
	leg, err := p.Leg(obligationID)
	if err != nil {
		return err
	}
	if err := leg.Refund(reason, now); err != nil {
		return err
	}
	p.legChanged(leg, now)
	return nil
}

// Cancel cancels every leg that is still payable
func (p *SplitPlan) Cancel(reason string, now time.Time) error {
	var cancelled bool
	for _, leg := range p.Legs() {
		if !leg.Status.IsPayable() {
			continue
		}
		if err := leg.Cancel(reason, now); err != nil {
			return err
		}
		p.markChanged(leg)
		cancelled = true
	}
	if !cancelled {
		return shared.NewInvalidTransitionError("split plan", p.Status, StatusCancelled)
	}
	p.refresh(now)
	return nil
}

// RecordDepositFailure counts a failed or expired deposit attempt. Once
// maxAttempts is reached before the deposit is paid the plan is FAILED.
func (p *SplitPlan) RecordDepositFailure(maxAttempts int, now time.Time) {
	if p.Deposit.Status == obligation.StatusPaid || !p.Status.AcceptsPayments() {
		return
	}
	p.DepositFailedAttempts++
	if maxAttempts > 0 && p.DepositFailedAttempts >= maxAttempts {
		p.DepositFailed = true
	}
	p.refresh(now)
}

func (p *SplitPlan) markChanged(leg *obligation.PaymentObligation) {
	if p.changed == nil {
		p.changed = make(map[uuid.UUID]struct{}, 2)
	}
	p.changed[leg.ID] = struct{}{}
}

func (p *SplitPlan) legChanged(leg *obligation.PaymentObligation, now time.Time) {
	p.markChanged(leg)
	p.refresh(now)
}

// refresh bumps the plan version on every mutation so concurrent leg writers
// conflict on the plan row, then re-derives the status.
func (p *SplitPlan) refresh(now time.Time) {
	p.IncrementVersion()
	p.Touch(now)

	next := p.DerivedStatus()
	if next == p.Status {
		return
	}
	prev := p.Status
	p.Status = next
	p.AddDomainEvent(NewSplitPlanStatusChangedEvent(p, prev, now))
	if next == StatusCompleted {
		p.AddDomainEvent(NewSplitPlanCompletedEvent(p, now))
	}
}

// PullAllEvents drains plan and leg events in emission order: legs first
func (p *SplitPlan) PullAllEvents() []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, leg := range p.Legs() {
		if leg != nil {
			events = append(events, leg.PullDomainEvents()...)
		}
	}
	return append(events, p.PullDomainEvents()...)
}

// CheckInvariants verifies amounts and the derived status
func (p *SplitPlan) CheckInvariants() error {
	if !p.DepositAmount.Add(p.BalanceAmount).Equal(p.TotalAmount) {
		return shared.NewValidationError("split plan %s: deposit and balance do not add up to total", p.ID)
	}
	if p.Deposit == nil || p.Balance == nil {
		return shared.NewValidationError("split plan %s: both legs are required", p.ID)
	}
	if !p.Deposit.Amount.Equal(p.DepositAmount) || !p.Balance.Amount.Equal(p.BalanceAmount) {
		return shared.NewValidationError("split plan %s: leg amounts diverge from plan", p.ID)
	}
	if p.Status != p.DerivedStatus() {
		return shared.NewValidationError("split plan %s: stored status %s differs from derived %s", p.ID, p.Status, p.DerivedStatus())
	}
	return nil
}
