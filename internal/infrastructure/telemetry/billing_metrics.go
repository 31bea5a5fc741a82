package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when NewBillingMetrics gets no meter
var ErrMeterNil = &MetricsError{Op: "NewBillingMetrics", Err: "meter cannot be nil"}

// MetricsError describes a failed metrics setup
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// BillingMetrics counts numbering, conversion, ledger and dunning activity.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	documentsNumbered *Counter
	lockFallbacks     *Counter
	conversions       *Counter
	stockMovements    *Counter
	dunningRecords    *Counter
	sweepDuration     *Histogram
}

// NewBillingMetrics registers the billing instruments on meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &BillingMetrics{}
	counters := []struct {
		dst  **Counter
		name string
		desc string
		unit string
	}{
		{&m.documentsNumbered, "billing_documents_numbered_total", "Document numbers handed out", "{documents}"},
		{&m.lockFallbacks, "billing_numbering_lock_fallback_total", "Number allocations that ran without the sequence lock", "{allocations}"},
		{&m.conversions, "billing_offer_conversions_total", "Offer to invoice conversions by result", "{conversions}"},
		{&m.stockMovements, "billing_stock_movements_total", "Ledger movements appended", "{movements}"},
		{&m.dunningRecords, "billing_dunning_records_total", "Dunning records created", "{records}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.sweepDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "billing_dunning_sweep_duration_seconds",
		Description: "Duration of a dunning sweep",
		Unit:        "s",
		Boundaries:  SweepDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// NewNoopBillingMetrics returns instruments backed by the no-op meter.
func NewNoopBillingMetrics() *BillingMetrics {
	m, _ := NewBillingMetrics(noop.NewMeterProvider().Meter("billing"))
	return m
}

// RecordNumbered counts a minted document number.
func (m *BillingMetrics) RecordNumbered(ctx context.Context, scope string, locked bool) {
	if m == nil {
		return
	}
	m.documentsNumbered.Inc(ctx, AttrScope.String(scope), AttrLocked.Bool(locked))
}

// RecordLockFallback counts an allocation that could not take the lock.
func (m *BillingMetrics) RecordLockFallback(ctx context.Context, scope, policy string) {
	if m == nil {
		return
	}
	m.lockFallbacks.Inc(ctx, AttrScope.String(scope), AttrPolicy.String(policy))
}

// RecordConversion counts a conversion attempt. result is "ok" or an error code.
func (m *BillingMetrics) RecordConversion(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.conversions.Inc(ctx, AttrResult.String(result))
}

// RecordMovements counts appended ledger movements.
func (m *BillingMetrics) RecordMovements(ctx context.Context, kind, sourceType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.stockMovements.Add(ctx, int64(n), AttrKind.String(kind), AttrSourceType.String(sourceType))
}

// RecordDunningRecord counts a created dunning record.
func (m *BillingMetrics) RecordDunningRecord(ctx context.Context, stage int, manual bool) {
	if m == nil {
		return
	}
	m.dunningRecords.Inc(ctx, AttrStage.String(strconv.Itoa(stage)), AttrManual.Bool(manual))
}

// RecordSweep records the duration of a dunning sweep.
func (m *BillingMetrics) RecordSweep(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.RecordDuration(ctx, d)
}
