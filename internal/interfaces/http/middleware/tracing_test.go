package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerportal/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

// setupTestTracer returns a provider recording into the returned recorder
func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})
	return tp, sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) string {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.AsString()
		}
	}
	return ""
}

func TestTracing_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp, sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false, ServiceName: "test", TracerProvider: tp}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_EnrichesSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp, sr := setupTestTracer(t)

	router := gin.New()
	router.Use(
		Tracing(TracingConfig{Enabled: true, ServiceName: "test", TracerProvider: tp}),
		logger.GinMiddleware(zap.NewNop()),
		SpanEnricher(),
	)
	router.GET("/orders/:id", func(c *gin.Context) {
		ctx := logger.WithSessionID(c.Request.Context(), "sess-1")
		c.Request = c.Request.WithContext(ctx)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set(logger.RequestIDHeader, "req-123")
	router.ServeHTTP(httptest.NewRecorder(), req)

	span := findSpan(t, sr, "GET /orders/:id")
	assert.Equal(t, "req-123", spanAttr(span, "request_id"))
	assert.Equal(t, "sess-1", spanAttr(span, "session_id"))
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_MarksServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tp, sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: true, ServiceName: "test", TracerProvider: tp}), SpanEnricher())
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	span := findSpan(t, sr, "GET /boom")
	assert.Equal(t, codes.Error, span.Status().Code)
}
