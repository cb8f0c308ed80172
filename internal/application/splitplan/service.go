// Package splitplan creates and administers deposit/balance split plans.
package splitplan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateCommand describes a new split plan
type CreateCommand struct {
	ContractID        uuid.UUID
	TotalAmount       decimal.Decimal
	DepositPercentage int
	Description       string
}

// ServiceConfig holds the collaborators and settings of a Service
type ServiceConfig struct {
	Plans     splitplan.Repository
	Contracts contract.Reader
	Publisher shared.EventPublisher
	Logger    *zap.Logger
	Clock     func() time.Time

	// DepositDueWindow is how long the payer has to settle the deposit
	DepositDueWindow time.Duration
	// BalanceDueOffset places the balance due date when the contract has already started
	BalanceDueOffset time.Duration
}

// Service manages split plans. Leg mutations always go through the aggregate.
type Service struct {
	cfg    ServiceConfig
	logger *zap.Logger
}

// NewService creates a Service
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.DepositDueWindow <= 0 {
		cfg.DepositDueWindow = 48 * time.Hour
	}
	if cfg.BalanceDueOffset <= 0 {
		cfg.BalanceDueOffset = 30 * 24 * time.Hour
	}
	return &Service{cfg: cfg, logger: cfg.Logger.Named("split_plan")}
}

// Create validates the contract, computes the split and persists the plan
// together with both legs
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*splitplan.SplitPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "split_plan", "create",
		telemetry.WithAttribute("contract_id", cmd.ContractID.String()))
	defer span.End()

	c, err := s.cfg.Contracts.GetContract(ctx, cmd.ContractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !c.IsActive() {
		return nil, shared.NewValidationError("contract %s is %s, split plans need an active contract", c.ID, c.Status)
	}

	now := s.cfg.Clock()
	depositDue, balanceDue := s.dueDates(c, now)
	plan, err := splitplan.NewSplitPlan(splitplan.Terms{
		ContractID:        c.ID,
		TotalAmount:       cmd.TotalAmount,
		DepositPercentage: cmd.DepositPercentage,
		Currency:          c.Currency,
		Description:       cmd.Description,
		DepositDueDate:    depositDue,
		BalanceDueDate:    balanceDue,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.cfg.Plans.Create(ctx, plan); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, plan)

	s.logger.Info("split plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("contract_id", c.ID.String()),
		zap.String("deposit", plan.DepositAmount.String()),
		zap.String("balance", plan.BalanceAmount.String()))
	return plan, nil
}

// dueDates returns the deposit and balance due dates for a plan created now
func (s *Service) dueDates(c *contract.Contract, now time.Time) (time.Time, time.Time) {
	deposit := now.Add(s.cfg.DepositDueWindow)
	if c.StartDate.After(deposit) {
		return deposit, c.StartDate.UTC()
	}
	balance := now.Add(s.cfg.BalanceDueOffset)
	if balance.Before(deposit) {
		balance = deposit
	}
	return deposit, balance
}

// Get loads a plan with both legs
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*splitplan.SplitPlan, error) {
	return s.cfg.Plans.FindByID(ctx, id)
}

// ListByContract returns the plans of a contract, newest first
func (s *Service) ListByContract(ctx context.Context, contractID uuid.UUID) ([]*splitplan.SplitPlan, error) {
	return s.cfg.Plans.FindByContract(ctx, contractID)
}

// Cancel cancels every payable leg of the plan
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*splitplan.SplitPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "split_plan", "cancel",
		telemetry.WithAttribute("plan_id", id.String()))
	defer span.End()

	plan, err := s.cfg.Plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := plan.Cancel(reason, s.cfg.Clock()); err != nil {
		return nil, err
	}
	if err := s.cfg.Plans.SaveWithLock(ctx, plan); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, plan)

	s.logger.Info("split plan cancelled",
		zap.String("plan_id", plan.ID.String()),
		zap.String("reason", reason))
	return plan, nil
}

func (s *Service) publish(ctx context.Context, plan *splitplan.SplitPlan) {
	events := plan.PullAllEvents()
	if s.cfg.Publisher == nil || len(events) == 0 {
		return
	}
	if err := s.cfg.Publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish split plan events",
			zap.String("plan_id", plan.ID.String()),
			zap.Error(err))
	}
}
