package shared

import (
	"context"
	"errors"
	"time"
)

// ErrLockUnavailable is returned by Locker.Acquire when the lock was not obtained within the wait
var ErrLockUnavailable = errors.New("lock unavailable")

// Lock is a held mutex. Release is safe to call more than once.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out named mutual-exclusion locks, possibly shared across processes
type Locker interface {
	// Acquire blocks for at most wait. A timeout yields an error matching ErrLockUnavailable.
	Acquire(ctx context.Context, key string, wait time.Duration) (Lock, error)
}
