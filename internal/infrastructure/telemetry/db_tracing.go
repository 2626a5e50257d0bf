package telemetry

import (
	"errors"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for remote data service tracing.
type DBTracingConfig struct {
	Enabled    bool
	LogFullSQL bool   // Include query variables in spans (dev only)
	DBSystem   string // Database system name (default: "postgresql")
	// TracerProvider defaults to the global provider when nil
	TracerProvider trace.TracerProvider
}

// RegisterDBTracing installs the otelgorm plugin on db plus a callback that
// tags every statement span with its table and row count and marks failed
// statements. A missing row is not a failure.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// Annotations go on the statement span, so they run before otelgorm ends it.
	cb := db.Callback()
	registrations := []error{
		cb.Create().After("gorm:create").Before("otel:after:create").Register("portal_trace:create", annotateStatement),
		cb.Query().After("gorm:query").Before("otel:after:query").Register("portal_trace:query", annotateStatement),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("portal_trace:update", annotateStatement),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("portal_trace:delete", annotateStatement),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("portal_trace:row", annotateStatement),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("portal_trace:raw", annotateStatement),
	}
	if err := errors.Join(registrations...); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

func annotateStatement(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
}
