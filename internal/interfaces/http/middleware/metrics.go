package middleware

import (
	"strconv"
	"time"

	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const httpMeterName = "github.com/erp/billing/http"

// HTTP metric attribute keys
const (
	attrHTTPMethod = attribute.Key("http.method")
	attrHTTPRoute  = attribute.Key("http.route")
	attrHTTPStatus = attribute.Key("http.status_code")
)

// httpMetrics holds the request instruments
type httpMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
	active   metric.Int64UpDownCounter
}

// HTTPMetrics records request counts, durations and in-flight requests using
// the global meter provider
func HTTPMetrics() gin.HandlerFunc {
	return HTTPMetricsWithMeter(otel.GetMeterProvider().Meter(httpMeterName))
}

// HTTPMetricsWithMeter is HTTPMetrics with an explicit meter. If an instrument
// cannot be created the middleware passes requests through unmeasured.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		otel.Handle(err)
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		base := []attribute.KeyValue{
			attrHTTPMethod.String(c.Request.Method),
			attrHTTPRoute.String(route),
		}

		m.active.Add(ctx, 1, metric.WithAttributes(base...))
		c.Next()
		m.active.Add(ctx, -1, metric.WithAttributes(base...))

		attrs := append(base, attrHTTPStatus.String(strconv.Itoa(c.Writer.Status())))
		m.requests.Inc(ctx, attrs...)
		m.duration.RecordDuration(ctx, time.Since(start), attrs...)
	}
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := telemetry.NewCounter(meter, "http_server_requests_total",
		"Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, active: active}, nil
}
