package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})

	return sr
}

func newTracingRouter(cfg TracingConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Tracing(cfg), SpanAttributes())
	router.GET("/invoices/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/invoices/:id/pay", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "already paid"})
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return router
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracingRouter(TracingConfig{Enabled: false, ServiceName: "test"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_AnnotatesSpan(t *testing.T) {
	sr := setupTestTracer(t)
	router := newTracingRouter(DefaultTracingConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/invoices/42", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /invoices/:id", span.Name())
	v, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-123", v.AsString())
	v, ok = spanAttr(span, "document.id")
	require.True(t, ok)
	assert.Equal(t, "42", v.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"client error", http.MethodPost, "/invoices/42/pay", http.StatusUnprocessableEntity},
		{"server error", http.MethodGet, "/boom", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			router := newTracingRouter(DefaultTracingConfig())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			spans := sr.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, codes.Error, spans[0].Status().Code)
		})
	}
}

func TestSpanAttributes_WithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SpanAttributes())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "billing", cfg.ServiceName)
}
