package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds settings for query span instrumentation
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bind variables in span statements; never enable it
	// where spans leave the developer's machine
	LogFullSQL bool
	// SlowQueryThreshold marks queries slower than this on their span;
	// zero disables the marker
	SlowQueryThreshold time.Duration
	// DBName tags every query span with the logical database name
	DBName string
}

// DefaultDBTracingConfig returns the default query tracing configuration
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:            false,
		LogFullSQL:         false,
		SlowQueryThreshold: 200 * time.Millisecond,
		DBName:             "supplyhub",
	}
}

type ctxKey int

const queryStartKey ctxKey = iota

// RegisterDBTracing attaches the otelgorm plugin to the connection and, when
// a threshold is set, a callback pair that flags slow queries on their span
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if cfg.SlowQueryThreshold > 0 {
		if err := registerSlowQueryMarker(db, cfg.SlowQueryThreshold, logger); err != nil {
			return err
		}
	}

	logger.Info("database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
		zap.String("db_name", cfg.DBName))
	return nil
}

// registerSlowQueryMarker brackets every operation with a timing pair. The
// after callback runs inside the otelgorm span, so the attributes land on
// the query span itself.
func registerSlowQueryMarker(db *gorm.DB, threshold time.Duration, logger *zap.Logger) error {
	before := func(db *gorm.DB) {
		if db.Statement.Context != nil {
			db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey, time.Now())
		}
	}
	after := func(db *gorm.DB) {
		if db.Statement.Context == nil {
			return
		}
		start, ok := db.Statement.Context.Value(queryStartKey).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		if elapsed < threshold {
			return
		}
		if span := trace.SpanFromContext(db.Statement.Context); span.IsRecording() {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.duration_ms", elapsed.Milliseconds()),
			)
		}
		logger.Warn("slow query",
			zap.Duration("elapsed", elapsed),
			zap.String("table", db.Statement.Table))
	}

	registrations := []func() error{
		func() error { return db.Callback().Create().Before("gorm:create").Register("slowquery:before_create", before) },
		func() error { return db.Callback().Create().After("gorm:create").Register("slowquery:after_create", after) },
		func() error { return db.Callback().Query().Before("gorm:query").Register("slowquery:before_query", before) },
		func() error { return db.Callback().Query().After("gorm:query").Register("slowquery:after_query", after) },
		func() error { return db.Callback().Update().Before("gorm:update").Register("slowquery:before_update", before) },
		func() error { return db.Callback().Update().After("gorm:update").Register("slowquery:after_update", after) },
		func() error { return db.Callback().Delete().Before("gorm:delete").Register("slowquery:before_delete", before) },
		func() error { return db.Callback().Delete().After("gorm:delete").Register("slowquery:after_delete", after) },
		func() error { return db.Callback().Row().Before("gorm:row").Register("slowquery:before_row", before) },
		func() error { return db.Callback().Row().After("gorm:row").Register("slowquery:after_row", after) },
		func() error { return db.Callback().Raw().Before("gorm:raw").Register("slowquery:before_raw", before) },
		func() error { return db.Callback().Raw().After("gorm:raw").Register("slowquery:after_raw", after) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
