package scheduler

import (
	"context"
	"time"

	paymentapp "github.com/rentflow/backend/internal/application/payment"
	"go.uber.org/zap"
)

// Job names
const (
	JobOverdueSweep      = "overdue-sweep"
	JobTransactionExpiry = "transaction-expiry"
)

// PaymentSweeper is the part of the payment sweeper the jobs drive
type PaymentSweeper interface {
	Sweep(ctx context.Context) (paymentapp.SweepReport, error)
	ExpireStale(ctx context.Context) (paymentapp.ExpiryReport, error)
}

// RegisterPaymentJobs registers the overdue sweep and the transaction expiry
func RegisterPaymentJobs(s *Scheduler, sweeper PaymentSweeper, sweepEvery, expiryEvery time.Duration, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := s.Register(Job{
		Name:     JobOverdueSweep,
		Interval: sweepEvery,
		Run: func(ctx context.Context) error {
			report, err := sweeper.Sweep(ctx)
			if err != nil {
				return err
			}
			if report.Transitioned > 0 || report.Skipped > 0 {
				logger.Info("Overdue sweep finished",
					zap.Int("scanned", report.Scanned),
					zap.Int("transitioned", report.Transitioned),
					zap.Int("skipped", report.Skipped))
			}
			return nil
		},
	}); err != nil {
		return err
	}

	return s.Register(Job{
		Name:     JobTransactionExpiry,
		Interval: expiryEvery,
		Run: func(ctx context.Context) error {
			report, err := sweeper.ExpireStale(ctx)
			if err != nil {
				return err
			}
			if report.Expired > 0 {
				logger.Info("Stale transactions expired",
					zap.Int("scanned", report.Scanned),
					zap.Int("expired", report.Expired),
					zap.Int("skipped", report.Skipped))
			}
			return nil
		},
	})
}
