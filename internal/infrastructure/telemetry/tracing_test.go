package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dealerportal/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	companyID := uuid.New()
	_, span := telemetry.StartServiceSpan(context.Background(), "order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrCompanyID, companyID),
		telemetry.WithAttribute(telemetry.SpanAttrLines, 2),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	telemetry.SetAttribute(span, telemetry.SpanAttrTotal, decimal.RequireFromString("259.20"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "order.create", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, companyID.String(), attrs[telemetry.SpanAttrCompanyID].AsString())
	assert.Equal(t, int64(2), attrs[telemetry.SpanAttrLines].AsInt64())
	assert.Equal(t, "259.2", attrs[telemetry.SpanAttrTotal].AsString())
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "quote.fetch")
	telemetry.RecordError(span, nil)
	telemetry.RecordError(span, errors.New("connection refused"))
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection refused", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "order.create")
	telemetry.AddEvent(span, "header_compensated", "number", "ORD-1", 42, "skipped", "ok", true, "dangling")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "header_compensated", events[0].Name)
	attrs := attrMap(events[0].Attributes)
	assert.Len(t, attrs, 2)
	assert.Equal(t, "ORD-1", attrs["number"].AsString())
	assert.True(t, attrs["ok"].AsBool())
}

func TestGetTraceID(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "parent")
	defer span.End()
	assert.Len(t, telemetry.GetTraceID(ctx), 32)

	child, childSpan := telemetry.StartSpan(ctx, "child")
	defer childSpan.End()
	assert.Equal(t, telemetry.GetTraceID(ctx), telemetry.GetTraceID(child))
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttribute(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.AddEvent(nil, "e")
	})
}
