package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rentflow/backend/internal/domain/payment"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records payment engine activity: initiations,
// reconciliations, sweeps and the open reconciliation exception backlog.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	initiateTotal       *Counter
	reconciliationTotal *Counter
	overdueTotal        *Counter
	sweepSkippedTotal   *Counter
	expiredTotal        *Counter

	// Gauge metrics (point-in-time values)
	openExceptions *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	exceptionProvider ExceptionMetricsProvider
}

// ExceptionMetricsProvider reports the unresolved reconciliation exceptions
// per kind for periodic collection.
type ExceptionMetricsProvider interface {
	CountOpen(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	ExceptionProvider ExceptionMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		exceptionProvider: cfg.ExceptionProvider,
	}

	var err error
	bm.initiateTotal, err = NewCounter(cfg.Meter,
		"rentflow_payment_initiate_total",
		"Total number of payment initiations by rail and result",
		"{initiations}",
	)
	if err != nil {
		return nil, err
	}

	bm.reconciliationTotal, err = NewCounter(cfg.Meter,
		"rentflow_reconciliation_total",
		"Total number of gateway callbacks by rail and result",
		"{callbacks}",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueTotal, err = NewCounter(cfg.Meter,
		"rentflow_obligation_overdue_total",
		"Total number of obligations moved to OVERDUE",
		"{obligations}",
	)
	if err != nil {
		return nil, err
	}

	bm.sweepSkippedTotal, err = NewCounter(cfg.Meter,
		"rentflow_overdue_sweep_skipped_total",
		"Past-due obligations the sweep left untouched",
		"{obligations}",
	)
	if err != nil {
		return nil, err
	}

	bm.expiredTotal, err = NewCounter(cfg.Meter,
		"rentflow_transaction_expired_total",
		"Total number of initiated transactions expired by the sweeper",
		"{transactions}",
	)
	if err != nil {
		return nil, err
	}

	bm.openExceptions, err = NewGauge(cfg.Meter,
		"rentflow_reconciliation_exceptions_open",
		"Unresolved reconciliation exceptions",
		"{exceptions}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordInitiate counts one Initiate call
func (bm *BusinessMetrics) RecordInitiate(ctx context.Context, rail payment.Rail, result string) {
	bm.initiateTotal.Inc(ctx,
		AttrRail.String(rail.String()),
		AttrResult.String(result),
	)
}

// RecordReconciliation counts one processed callback
func (bm *BusinessMetrics) RecordReconciliation(ctx context.Context, rail payment.Rail, result string) {
	bm.reconciliationTotal.Inc(ctx,
		AttrRail.String(rail.String()),
		AttrResult.String(result),
	)
}

// RecordOverdue records the outcome of one overdue sweep
func (bm *BusinessMetrics) RecordOverdue(ctx context.Context, transitioned, skipped int) {
	if transitioned > 0 {
		bm.overdueTotal.Add(ctx, int64(transitioned))
	}
	if skipped > 0 {
		bm.sweepSkippedTotal.Add(ctx, int64(skipped))
	}
}

// RecordExpired records transactions expired by one expiry pass
func (bm *BusinessMetrics) RecordExpired(ctx context.Context, expired int) {
	if expired > 0 {
		bm.expiredTotal.Add(ctx, int64(expired))
	}
}

// RecordOpenExceptions sets the open exception gauge for one kind
func (bm *BusinessMetrics) RecordOpenExceptions(ctx context.Context, kind string, count int64) {
	bm.openExceptions.Record(ctx, count, AttrExceptionKind.String(kind))
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It is non-blocking; use Stop to end collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectExceptionMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectExceptionMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectExceptionMetrics(ctx context.Context) {
	if bm.exceptionProvider == nil {
		bm.logger.Debug("No exception provider configured, skipping exception metrics collection")
		return
	}
	counts, err := bm.exceptionProvider.CountOpen(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count open reconciliation exceptions", zap.Error(err))
		return
	}
	for _, kind := range []payment.ExceptionKind{
		payment.ExceptionOrphanCallback,
		payment.ExceptionAmountMismatch,
	} {
		// Kinds with no open rows report zero so the gauge drains.
		bm.RecordOpenExceptions(ctx, string(kind), counts[string(kind)])
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Payment attribute keys
var (
	AttrRail          = attribute.Key("rail")
	AttrResult        = attribute.Key("result")
	AttrExceptionKind = attribute.Key("exception_kind")
)
