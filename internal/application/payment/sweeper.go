package payment

import (
	"context"
	"errors"
	"time"

	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/domain/payment"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SweepReport summarizes one overdue sweep
type SweepReport struct {
	Scanned      int `json:"scanned"`
	Transitioned int `json:"transitioned"`
	Skipped      int `json:"skipped"`
}

// ExpiryReport summarizes one stale-transaction pass
type ExpiryReport struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

// SweeperConfig holds the collaborators and settings of a Sweeper
type SweeperConfig struct {
	UnitOfWork   shared.UnitOfWork
	Obligations  obligation.Repository
	Plans        splitplan.Repository
	Transactions payment.TransactionRepository
	Publisher    shared.EventPublisher
	Policy       *PolicyStore
	Metrics      Metrics
	Logger       *zap.Logger
	Clock        Clock

	BatchSize          int
	TransactionExpiry  time.Duration
	MaxDepositAttempts int
}

// Sweeper flags PENDING obligations past their due date as OVERDUE and
// expires transactions that never received a callback
type Sweeper struct {
	cfg    SweeperConfig
	logger *zap.Logger
	now    Clock
}

// NewSweeper creates a Sweeper
func NewSweeper(cfg SweeperConfig) *Sweeper {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Clock == nil {
		cfg.Clock = systemClock
	}
	if cfg.Policy == nil {
		cfg.Policy = NewPolicyStore(obligation.FeePolicy{Type: obligation.FeePolicyNone})
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.TransactionExpiry <= 0 {
		cfg.TransactionExpiry = 2 * time.Hour
	}
	return &Sweeper{
		cfg:    cfg,
		logger: cfg.Logger.Named("sweeper"),
		now:    cfg.Clock,
	}
}

// Sweep moves every PENDING obligation with dueDate < now to OVERDUE. Each
// row is updated only while it is still PENDING, so an obligation the
// reconciler settled in the meantime is skipped.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sweeper", "sweep")
	defer span.End()

	var report SweepReport
	now := s.now()
	policy := s.cfg.Policy.Load()

	for {
		batch, err := s.cfg.Obligations.FindPastDue(ctx, now, s.cfg.BatchSize)
		if err != nil {
			telemetry.RecordError(span, err)
			return report, err
		}
		report.Scanned += len(batch)

		progress := 0
		for i := range batch {
			o := &batch[i]
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if err := o.MarkOverdue(policy.Compute(o), now); err != nil {
				report.Skipped++
				continue
			}
			ok, err := s.cfg.Obligations.MarkOverdueIfPending(ctx, o.ID, o.LateFee, now)
			if err != nil {
				telemetry.RecordError(span, err)
				return report, err
			}
			progress++
			if !ok {
				report.Skipped++
				continue
			}
			report.Transitioned++
			if err := publishAfterCommit(ctx, s.cfg.Publisher, o.PullDomainEvents()); err != nil {
				s.logger.Error("failed to publish overdue event",
					zap.String("obligation_id", o.ID.String()),
					zap.Error(err))
			}
		}

		if len(batch) < s.cfg.BatchSize || progress == 0 {
			break
		}
	}

	s.cfg.Metrics.RecordOverdue(ctx, report.Transitioned, report.Skipped)
	telemetry.SetAttributes(span, "transitioned", report.Transitioned, "skipped", report.Skipped)
	if report.Transitioned > 0 || report.Skipped > 0 {
		s.logger.Info("overdue sweep finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("transitioned", report.Transitioned),
			zap.Int("skipped", report.Skipped))
	}
	return report, nil
}

// ExpireStale closes PENDING transactions older than the expiry window that
// are not held for review. Expired deposit attempts count against the plan.
func (s *Sweeper) ExpireStale(ctx context.Context) (ExpiryReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sweeper", "expire_stale")
	defer span.End()

	var report ExpiryReport
	now := s.now()
	cutoff := now.Add(-s.cfg.TransactionExpiry)

	for {
		stale, err := s.cfg.Transactions.FindStale(ctx, cutoff, s.cfg.BatchSize)
		if err != nil {
			telemetry.RecordError(span, err)
			return report, err
		}
		report.Scanned += len(stale)

		progress := 0
		for i := range stale {
			tx := &stale[i]
			if err := ctx.Err(); err != nil {
				return report, err
			}
			events, err := s.expireOne(ctx, tx, now)
			switch {
			case errors.Is(err, shared.ErrConcurrencyConflict), errors.Is(err, shared.ErrDuplicateCallback):
				// a callback or another sweeper got there first
				report.Skipped++
				continue
			case err != nil:
				telemetry.RecordError(span, err)
				return report, err
			}
			progress++
			report.Expired++
			if err := publishAfterCommit(ctx, s.cfg.Publisher, events); err != nil {
				s.logger.Error("failed to publish expiry events", zap.Error(err))
			}
		}

		if len(stale) < s.cfg.BatchSize || progress == 0 {
			break
		}
	}

	s.cfg.Metrics.RecordExpired(ctx, report.Expired)
	if report.Expired > 0 {
		s.logger.Info("stale transactions expired",
			zap.Int("expired", report.Expired),
			zap.Int("skipped", report.Skipped))
	}
	return report, nil
}

func (s *Sweeper) expireOne(ctx context.Context, tx *payment.Transaction, now time.Time) ([]shared.DomainEvent, error) {
	var events []shared.DomainEvent
	err := s.cfg.UnitOfWork.Do(ctx, func(ctx context.Context) error {
		if err := tx.Expire(now); err != nil {
			return err
		}
		if err := s.cfg.Transactions.SaveWithLock(ctx, tx); err != nil {
			return err
		}

		o, err := s.cfg.Obligations.FindByID(ctx, tx.ObligationID)
		if err != nil {
			return err
		}
		if o.Kind != obligation.KindSplitDeposit || !o.IsSplitLeg() {
			return nil
		}
		plan, err := s.cfg.Plans.FindByID(ctx, *o.SplitPlanID)
		if err != nil {
			return err
		}
		events, err = countDepositFailure(ctx, s.cfg.Plans, plan, plan.Deposit, s.cfg.MaxDepositAttempts, now)
		return err
	})
	return events, err
}
