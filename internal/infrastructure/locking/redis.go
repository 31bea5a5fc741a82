package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultRetryInterval is the linear backoff between Redis lock attempts
const DefaultRetryInterval = 50 * time.Millisecond

// RedisLocker takes locks through bsm/redislock. The TTL bounds how long a
// crashed holder can block the key.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  DefaultRetryInterval,
	}
}

// Acquire implements shared.Locker
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration) (shared.Lock, error) {
	obtainCtx := ctx
	retry := redislock.NoRetry()
	if wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
		retry = redislock.LinearBackoff(l.retry)
	}

	lock, err := l.client.Obtain(obtainCtx, key, l.ttl, &redislock.Options{RetryStrategy: retry})
	switch {
	case err == nil:
		return &redisLock{lock: lock}, nil
	case errors.Is(err, redislock.ErrNotObtained), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("%w: %s after %s", shared.ErrLockUnavailable, key, wait)
	}
	return nil, fmt.Errorf("redis lock %s: %w", key, err)
}

type redisLock struct {
	lock *redislock.Lock
}

// Release drops the key. A lock that already expired is not an error.
func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if err == nil || errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return fmt.Errorf("redis unlock %s: %w", r.lock.Key(), err)
}

var _ shared.Locker = (*RedisLocker)(nil)
