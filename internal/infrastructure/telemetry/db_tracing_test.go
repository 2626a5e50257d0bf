package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedProduct struct {
	ID        uint   `gorm:"primaryKey"`
	SKU       string `gorm:"size:64"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedProduct{}))
	return db
}

func setupRecorder(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupRecorder(t)

	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{TracerProvider: tp}, zap.NewNop()))
	require.NoError(t, db.Create(&tracedProduct{SKU: "CH-100"}).Error)

	assert.Empty(t, sr.Ended())
}

func TestRegisterDBTracing_Enabled(t *testing.T) {
	db := setupTestDB(t)
	tp, sr := setupRecorder(t)

	err := RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite", TracerProvider: tp}, nil)
	require.NoError(t, err)

	ctx, parent := tp.Tracer("test").Start(context.Background(), "order.create")
	require.NoError(t, db.WithContext(ctx).Create(&tracedProduct{SKU: "CH-100"}).Error)
	var found tracedProduct
	require.NoError(t, db.WithContext(ctx).First(&found, "sku = ?", "CH-100").Error)
	parent.End()

	spans := sr.Ended()
	assert.Greater(t, len(spans), 1, "statement spans are recorded beside the parent")
}

func TestRegisterDBTracing_DoubleRegistration(t *testing.T) {
	db := setupTestDB(t)
	tp, _ := setupRecorder(t)
	cfg := DBTracingConfig{Enabled: true, TracerProvider: tp}

	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	assert.Error(t, RegisterDBTracing(db, cfg, zap.NewNop()))
}

func TestAnnotateStatement(t *testing.T) {
	t.Run("missing row is not an error", func(t *testing.T) {
		db := setupTestDB(t)
		tp, sr := setupRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "lookup")

		var result tracedProduct
		tx := db.WithContext(ctx).First(&result, 99999)
		require.ErrorIs(t, tx.Error, gorm.ErrRecordNotFound)
		annotateStatement(tx)
		span.End()

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
		table, ok := attrValue(spans[0].Attributes(), "db.sql.table")
		require.True(t, ok)
		assert.Equal(t, "traced_products", table.AsString())
	})

	t.Run("failed statement marks the span", func(t *testing.T) {
		db := setupTestDB(t)
		tp, sr := setupRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "broken")

		var rows []map[string]any
		tx := db.WithContext(ctx).Table("missing_table").Find(&rows)
		require.Error(t, tx.Error)
		annotateStatement(tx)
		span.End()

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("ended span is left alone", func(t *testing.T) {
		db := setupTestDB(t)
		tp, sr := setupRecorder(t)
		ctx, span := tp.Tracer("test").Start(context.Background(), "done")
		span.End()

		var result tracedProduct
		annotateStatement(db.WithContext(ctx).First(&result, 1))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		_, ok := attrValue(spans[0].Attributes(), "db.sql.table")
		assert.False(t, ok)
	})
}
