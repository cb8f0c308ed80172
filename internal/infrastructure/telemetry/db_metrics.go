package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig controls query and pool instruments. Zero durations fall
// back to DefaultDBMetricsConfig.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
	PoolStatsInterval  time.Duration
}

func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{Enabled: true, SlowQueryThreshold: 200 * time.Millisecond, PoolStatsInterval: 15 * time.Second}
}

// DBMetrics records statement counts, latency and errors per operation, slow
// statements per table, and samples of the connection pool.
type DBMetrics struct {
	queries  *Counter
	failures *Counter
	slow     *Counter
	latency  *Histogram
	conns    *Gauge
	maxConns *Gauge

	cfg DBMetricsConfig
	log *zap.Logger

	mu       sync.RWMutex
	pool     *sql.DB
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	def := DefaultDBMetricsConfig()
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = def.SlowQueryThreshold
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = def.PoolStatsInterval
	}
	m := &DBMetrics{cfg: cfg, log: orNop(logger), stop: make(chan struct{})}

	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.failures, err = NewCounter(meter, "db_query_errors_total", "Failed statements, record-not-found excluded", "{query}"); err != nil {
		return nil, err
	}
	if m.slow, err = NewCounter(meter, "db_slow_query_total", "Statements above the slow threshold by table", "{query}"); err != nil {
		return nil, err
	}
	if m.latency, err = NewHistogram(meter, HistogramOpts{
		Name: "db_query_duration_seconds", Description: "Statement latency", Unit: "s", Boundaries: DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.conns, err = NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.maxConns, err = NewGauge(meter, "db_pool_connections_max", "Pool connection limit", "{connection}"); err != nil {
		return nil, err
	}
	return m, nil
}

// SetSQLDB sets the pool sampled by StartPoolStatsCollection.
func (m *DBMetrics) SetSQLDB(pool *sql.DB) {
	m.mu.Lock()
	m.pool = pool
	m.mu.Unlock()
}

func (m *DBMetrics) sqlDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

// StartPoolStatsCollection samples the pool immediately and then every
// PoolStatsInterval until Stop or ctx ends. Without a pool it does nothing.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.sqlDB() == nil {
		m.log.Warn("pool stats not started: no sql.DB set")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		tick := time.NewTicker(m.cfg.PoolStatsInterval)
		defer tick.Stop()
		for {
			m.samplePool(ctx)
			select {
			case <-tick.C:
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	m.log.Info("pool stats collection started", zap.Duration("interval", m.cfg.PoolStatsInterval))
}

func (m *DBMetrics) samplePool(ctx context.Context) {
	pool := m.sqlDB()
	if pool == nil {
		return
	}
	s := pool.Stats()
	m.maxConns.Record(ctx, int64(s.MaxOpenConnections))
	for state, n := range map[string]int{"idle": s.Idle, "in_use": s.InUse, "open": s.OpenConnections} {
		m.conns.Record(ctx, int64(n), AttrDBState.String(state))
	}
}

// Stop ends pool sampling; repeated calls are no-ops.
func (m *DBMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.wg.Wait()
	})
}

// RecordQuery records one finished statement.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, took time.Duration, err error) {
	if operation = strings.ToUpper(operation); operation == "" {
		operation = "UNKNOWN"
	}
	op := AttrDBOperation.String(operation)
	m.queries.Inc(ctx, op)
	m.latency.RecordDuration(ctx, took, op)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.failures.Inc(ctx, op)
	}
	if took > m.cfg.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slow.Inc(ctx, AttrDBTable.String(table))
	}
}

// DBMetricsPlugin feeds DBMetrics from GORM callbacks.
type DBMetricsPlugin struct {
	metrics *DBMetrics
	log     *zap.Logger
}

func NewDBMetricsPlugin(metrics *DBMetrics, logger *zap.Logger) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics, log: orNop(logger)}
}

func (p *DBMetricsPlugin) Name() string { return "db_metrics" }

type statementStartKey struct{}

// Initialize hooks every GORM processor. Row and Raw statements have no
// fixed operation, so theirs is read from the SQL text.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("db_metrics:before_create", markStart),
		cb.Create().After("gorm:create").Register("db_metrics:after_create", p.record("INSERT")),
		cb.Query().Before("gorm:query").Register("db_metrics:before_query", markStart),
		cb.Query().After("gorm:query").Register("db_metrics:after_query", p.record("SELECT")),
		cb.Update().Before("gorm:update").Register("db_metrics:before_update", markStart),
		cb.Update().After("gorm:update").Register("db_metrics:after_update", p.record("UPDATE")),
		cb.Delete().Before("gorm:delete").Register("db_metrics:before_delete", markStart),
		cb.Delete().After("gorm:delete").Register("db_metrics:after_delete", p.record("DELETE")),
		cb.Row().Before("gorm:row").Register("db_metrics:before_row", markStart),
		cb.Row().After("gorm:row").Register("db_metrics:after_row", p.record("")),
		cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", markStart),
		cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", p.record("")),
	)
	if err != nil {
		return err
	}
	p.log.Debug("db metrics plugin installed")
	return nil
}

func statementContext(db *gorm.DB) context.Context {
	if ctx := db.Statement.Context; ctx != nil {
		return ctx
	}
	return context.Background()
}

func markStart(db *gorm.DB) {
	db.Statement.Context = context.WithValue(statementContext(db), statementStartKey{}, time.Now())
}

func (p *DBMetricsPlugin) record(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := statementContext(db)
		var took time.Duration
		if start, ok := ctx.Value(statementStartKey{}).(time.Time); ok {
			took = time.Since(start)
		}
		op := operation
		if op == "" {
			op = detectOperationType(db.Statement.SQL.String())
		}
		p.metrics.RecordQuery(ctx, op, db.Statement.Table, took, db.Error)
	}
}

func detectOperationType(stmt string) string {
	stmt = strings.ToUpper(strings.TrimSpace(stmt))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(stmt, op) {
			return op
		}
	}
	return "OTHER"
}

// RegisterDBMetrics installs the plugin on db when cfg and the provider both
// have metrics on. It returns nil metrics otherwise; callers Stop non-nil ones.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	logger = orNop(logger)
	if !cfg.Enabled || meterProvider == nil || !meterProvider.IsEnabled() {
		logger.Debug("db metrics disabled")
		return nil, nil
	}
	metrics, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := db.DB()
	if err != nil {
		return nil, err
	}
	metrics.SetSQLDB(pool)
	if err := db.Use(NewDBMetricsPlugin(metrics, logger)); err != nil {
		return nil, err
	}
	logger.Info("db metrics registered",
		zap.Duration("slow_query_threshold", metrics.cfg.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", metrics.cfg.PoolStatsInterval))
	return metrics, nil
}
