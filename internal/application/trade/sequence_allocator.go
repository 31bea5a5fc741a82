package trade

import (
	"context"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LockFailurePolicy decides what happens when the sequence lock is not obtained in time
type LockFailurePolicy string

const (
	// LockPolicyProceed numbers without the lock. A racing duplicate then fails on the unique index.
	LockPolicyProceed LockFailurePolicy = "proceed"
	// LockPolicyFail aborts the save with a persistence error
	LockPolicyFail LockFailurePolicy = "fail"
)

// DefaultLockWait bounds how long Allocate waits for the sequence lock
const DefaultLockWait = 5 * time.Second

// Allocation is the number handed to a persist callback
type Allocation struct {
	Scope    trade.NumberScope
	Date     time.Time
	Sequence int
	Number   string
	// Locked is false when the number was derived without holding the sequence lock
	Locked bool
}

// PersistFunc stores the document under the allocated number. It runs while the lock is held.
type PersistFunc func(ctx context.Context, a Allocation) error

// AllocatorOptions configures a SequenceAllocator
type AllocatorOptions struct {
	LockWait      time.Duration
	FailurePolicy LockFailurePolicy
}

// SequenceAllocator hands out gap-tolerant, per-bucket document numbers.
// The next sequence is the count of committed documents in the bucket plus one, so
// the count and the insert must both happen under the bucket lock.
type SequenceAllocator struct {
	locker  shared.Locker
	counter trade.NumberCounter
	opts    AllocatorOptions
	metrics *telemetry.BillingMetrics
	logger  *zap.Logger
}

// NewSequenceAllocator creates a new SequenceAllocator
func NewSequenceAllocator(locker shared.Locker, counter trade.NumberCounter, opts AllocatorOptions, logger *zap.Logger) *SequenceAllocator {
	if opts.LockWait <= 0 {
		opts.LockWait = DefaultLockWait
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = LockPolicyProceed
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequenceAllocator{
		locker:  locker,
		counter: counter,
		opts:    opts,
		metrics: telemetry.NewNoopBillingMetrics(),
		logger:  logger,
	}
}

// SetMetrics sets the metrics recorder
func (a *SequenceAllocator) SetMetrics(m *telemetry.BillingMetrics) {
	if m != nil {
		a.metrics = m
	}
}

// Allocate derives the next number of scope for date and calls persist with it.
// The lock is held until persist returns.
func (a *SequenceAllocator) Allocate(ctx context.Context, scope trade.NumberScope, date time.Time, persist PersistFunc) error {
	if !scope.IsValid() {
		return shared.NewValidationError("unknown number scope %q", scope)
	}
	if date.IsZero() {
		return shared.NewValidationError("document date is required for numbering")
	}
	date = shared.DateOf(date)

	ctx, span := telemetry.StartServiceSpan(ctx, "SequenceAllocator", "Allocate",
		telemetry.SpanAttrScope, string(scope))
	defer span.End()

	key := scope.LockKey(date)
	locked := true
	lock, err := a.locker.Acquire(ctx, key, a.opts.LockWait)
	if err != nil {
		if a.opts.FailurePolicy == LockPolicyFail {
			a.metrics.RecordLockFallback(ctx, string(scope), string(LockPolicyFail))
			telemetry.RecordError(span, err)
			return shared.NewPersistenceError("acquire sequence lock "+key, err)
		}
		locked = false
		a.metrics.RecordLockFallback(ctx, string(scope), string(LockPolicyProceed))
		a.logger.Warn("numbering without sequence lock",
			zap.String("scope", string(scope)),
			zap.String("lock_key", key),
			zap.Duration("wait", a.opts.LockWait),
			zap.Error(err))
	} else {
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				a.logger.Warn("release sequence lock", zap.String("lock_key", key), zap.Error(err))
			}
		}()
	}

	from, to := scope.Bucket(date)
	count, err := a.counter.CountInBucket(ctx, scope, scope.Prefix(date), from, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	seq := int(count) + 1
	alloc := Allocation{
		Scope:    scope,
		Date:     date,
		Sequence: seq,
		Number:   scope.Format(date, seq),
		Locked:   locked,
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrNumber, alloc.Number, telemetry.SpanAttrLocked, locked)

	if err := persist(ctx, alloc); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	a.metrics.RecordNumbered(ctx, string(scope), locked)
	return nil
}
