package locking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/billing/internal/domain/shared"
)

// MemoryLocker serializes callers of one process. Keys are never evicted.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewMemoryLocker creates a new MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

// Acquire implements shared.Locker
func (l *MemoryLocker) Acquire(ctx context.Context, key string, wait time.Duration) (shared.Lock, error) {
	ch := l.slot(key)

	select {
	case ch <- struct{}{}:
		return &memoryLock{slot: ch}, nil
	default:
	}
	if wait <= 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrLockUnavailable, key)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return &memoryLock{slot: ch}, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s after %s", shared.ErrLockUnavailable, key, wait)
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrLockUnavailable, key, ctx.Err())
	}
}

type memoryLock struct {
	slot chan struct{}
	once sync.Once
}

func (m *memoryLock) Release(context.Context) error {
	m.once.Do(func() { <-m.slot })
	return nil
}

var _ shared.Locker = (*MemoryLocker)(nil)
