package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewBillingMetrics(t *testing.T) {
	m, err := telemetry.NewBillingMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewBillingMetrics(nil)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.Equal(t, "NewBillingMetrics: meter cannot be nil", err.Error())
}

func TestBillingMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *telemetry.BillingMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordNumbered(ctx, "offer", true)
		m.RecordLockFallback(ctx, "offer", "proceed")
		m.RecordConversion(ctx, "ok")
		m.RecordMovements(ctx, "OUT", "angebote", 2)
		m.RecordDunningRecord(ctx, 0, false)
		m.RecordSweep(ctx, time.Second)
	})
}

func TestBillingMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := telemetry.NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNumbered(ctx, "offer", true)
	m.RecordNumbered(ctx, "invoice-year", false)
	m.RecordLockFallback(ctx, "invoice-year", "proceed")
	m.RecordConversion(ctx, "ok")
	m.RecordConversion(ctx, "NOT_FOUND")
	m.RecordConversion(ctx, "ok")
	m.RecordMovements(ctx, "OUT", "angebote", 3)
	m.RecordMovements(ctx, "OUT", "angebote", 0)
	m.RecordDunningRecord(ctx, 1, true)
	m.RecordSweep(ctx, 250*time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["billing_documents_numbered_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["billing_numbering_lock_fallback_total"]))
	assert.Equal(t, int64(3), sumOf(t, data["billing_offer_conversions_total"]))
	assert.Equal(t, int64(3), sumOf(t, data["billing_stock_movements_total"]))
	assert.Equal(t, int64(1), sumOf(t, data["billing_dunning_records_total"]))

	hist, ok := data["billing_dunning_sweep_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	conversions := data["billing_offer_conversions_total"].(metricdata.Sum[int64])
	byResult := map[string]int64{}
	for _, dp := range conversions.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("result"))
		byResult[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 2, "NOT_FOUND": 1}, byResult)
}
