// Package obligation schedules rent installments and runs the
// administrative obligation operations.
package obligation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/contract"
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ScheduleResult reports how many installments a schedule call added
type ScheduleResult struct {
	ContractID uuid.UUID `json:"contract_id"`
	Planned    int       `json:"planned"`
	Created    int       `json:"created"`
}

// ServiceConfig holds the collaborators of a Service
type ServiceConfig struct {
	UnitOfWork  shared.UnitOfWork
	Obligations obligation.Repository
	Plans       splitplan.Repository
	Contracts   contract.Reader
	Publisher   shared.EventPublisher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// Service runs obligation reads and administrative transitions. Settlement
// belongs to the reconciler and never happens here.
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
	return &Service{cfg: cfg, logger: cfg.Logger.Named("obligation")}
}

// ScheduleInstallments creates one RENT_INSTALLMENT per month of an active
// contract. Installments already scheduled are left alone, so the call can be
// repeated safely.
func (s *Service) ScheduleInstallments(ctx context.Context, contractID uuid.UUID) (*ScheduleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "schedule_installments",
		telemetry.WithAttribute("contract_id", contractID.String()))
	defer span.End()

	c, err := s.cfg.Contracts.GetContract(ctx, contractID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !c.IsActive() {
		return nil, shared.NewValidationError("contract %s is %s, installments need an active contract", c.ID, c.Status)
	}

	now := s.cfg.Clock()
	dates := c.InstallmentDueDates()
	installments := make([]*obligation.PaymentObligation, 0, len(dates))
	for _, due := range dates {
		o, err := obligation.NewPaymentObligation(c.ID, obligation.KindRentInstallment, c.MonthlyRent, c.Currency, due, now)
		if err != nil {
			return nil, err
		}
		installments = append(installments, o)
	}

	created, err := s.cfg.Obligations.CreateIfAbsent(ctx, installments)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("rent installments scheduled",
		zap.String("contract_id", c.ID.String()),
		zap.Int("planned", len(installments)),
		zap.Int("created", created))
	return &ScheduleResult{ContractID: c.ID, Planned: len(installments), Created: created}, nil
}

// Get loads one obligation
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*obligation.PaymentObligation, error) {
	return s.cfg.Obligations.FindByID(ctx, id)
}

// List returns one page of obligations
func (s *Service) List(ctx context.Context, filter obligation.Filter) (shared.Paginated[obligation.PaymentObligation], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return shared.Paginated[obligation.PaymentObligation]{}, shared.NewValidationError("unknown status %q", filter.Status)
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return shared.Paginated[obligation.PaymentObligation]{}, shared.NewValidationError("unknown kind %q", filter.Kind)
	}
	filter.Filter = filter.Filter.Normalize()
	items, total, err := s.cfg.Obligations.List(ctx, filter)
	if err != nil {
		return shared.Paginated[obligation.PaymentObligation]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Cancel terminates a PENDING or OVERDUE obligation
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error) {
	return s.administer(ctx, "cancel", id, func(o *obligation.PaymentObligation, plan *splitplan.SplitPlan, now time.Time) error {
		if plan != nil {
			return plan.CancelLeg(o.ID, reason, now)
		}
		return o.Cancel(reason, now)
	})
}

// Refund reverses a PAID obligation
func (s *Service) Refund(ctx context.Context, id uuid.UUID, reason string) (*obligation.PaymentObligation, error) {
	return s.administer(ctx, "refund", id, func(o *obligation.PaymentObligation, plan *splitplan.SplitPlan, now time.Time) error {
		if plan != nil {
			return plan.RefundLeg(o.ID, reason, now)
		}
		return o.Refund(reason, now)
	})
}

type mutation func(o *obligation.PaymentObligation, plan *splitplan.SplitPlan, now time.Time) error

// administer loads the obligation, routes split legs through their plan and
// persists the result in one unit of work
func (s *Service) administer(ctx context.Context, action string, id uuid.UUID, mutate mutation) (*obligation.PaymentObligation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", action,
		telemetry.WithAttribute("obligation_id", id.String()))
	defer span.End()

	var (
		result *obligation.PaymentObligation
		events []shared.DomainEvent
	)
	err := s.cfg.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		o, err := s.cfg.Obligations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.cfg.Clock()

		if !o.IsSplitLeg() {
			if err := mutate(o, nil, now); err != nil {
				return err
			}
			if err := s.cfg.Obligations.SaveWithLock(ctx, o); err != nil {
				return err
			}
			result, events = o, o.PullDomainEvents()
			return nil
		}

		plan, err := s.cfg.Plans.FindByID(ctx, *o.SplitPlanID)
		if err != nil {
			return err
		}
		if err := mutate(o, plan, now); err != nil {
			return err
		}
		if err := s.cfg.Plans.SaveWithLock(ctx, plan); err != nil {
			return err
		}
		leg, err := plan.Leg(o.ID)
		if err != nil {
			return err
		}
		result, events = leg, plan.PullAllEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.cfg.Publisher != nil && len(events) > 0 {
		if err := s.cfg.Publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish obligation events",
				zap.String("obligation_id", id.String()),
				zap.Error(err))
		}
	}
	s.logger.Info("obligation "+action,
		zap.String("obligation_id", id.String()),
		zap.String("status", result.Status.String()))
	return result, nil
}
