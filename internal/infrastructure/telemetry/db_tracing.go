package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls statement spans. LogFullSQL keeps bound values,
// which include amounts and gateway references, so it stays off outside
// development.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{SlowQueryThresh: 200 * time.Millisecond, DBSystem: "postgresql"}
}

// DBTracingPlugin installs otelgorm and adds row counts, the table and a
// slow-statement marker to each statement span.
type DBTracingPlugin struct {
	cfg DBTracingConfig
	log *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	def := DefaultDBTracingConfig()
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = def.SlowQueryThresh
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = def.DBSystem
	}
	return &DBTracingPlugin{cfg: cfg, log: orNop(logger)}
}

// RegisterOtelGorm does nothing while tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
	if !p.cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// annotate must run before otelgorm's after hook ends the span
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("otel_timing:before_create", markStart),
		cb.Create().After("gorm:create").Before("otel:after_create").Register("otel_slow_query:create", p.annotate),
		cb.Query().Before("gorm:query").Register("otel_timing:before_query", markStart),
		cb.Query().After("gorm:query").Before("otel:after_query").Register("otel_slow_query:query", p.annotate),
		cb.Update().Before("gorm:update").Register("otel_timing:before_update", markStart),
		cb.Update().After("gorm:update").Before("otel:after_update").Register("otel_slow_query:update", p.annotate),
		cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", markStart),
		cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("otel_slow_query:delete", p.annotate),
		cb.Row().Before("gorm:row").Register("otel_timing:before_row", markStart),
		cb.Row().After("gorm:row").Before("otel:after_row").Register("otel_slow_query:row", p.annotate),
		cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", markStart),
		cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("otel_slow_query:raw", p.annotate),
	)
	if err != nil {
		return err
	}
	p.log.Info("db tracing enabled",
		zap.Bool("log_full_sql", p.cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThresh))
	return nil
}

// annotate leaves record-not-found spans unset: a missing obligation or
// transaction is a lookup result, not a database failure.
func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		RecordError(span, err)
	}

	start, ok := ctx.Value(statementStartKey{}).(time.Time)
	if !ok {
		return
	}
	took := time.Since(start)
	if took <= p.cfg.SlowQueryThresh {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", took.Milliseconds()),
	)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", took.Milliseconds()),
		attribute.Int64("threshold_ms", p.cfg.SlowQueryThresh.Milliseconds()),
	))
}
