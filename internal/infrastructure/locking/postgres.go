package locking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/billing/internal/domain/shared"
)

const (
	tryAdvisoryLock = "SELECT pg_try_advisory_lock(hashtext($1))"
	advisoryUnlock  = "SELECT pg_advisory_unlock(hashtext($1))"

	// DefaultPollInterval is the pause between pg_try_advisory_lock attempts
	DefaultPollInterval = 50 * time.Millisecond
)

// PostgresAdvisoryLocker uses session-level advisory locks. Each held lock pins
// one connection of db until released, so db should be a dedicated pool
// (see OpenPostgresPool) rather than the one serving queries.
type PostgresAdvisoryLocker struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewPostgresAdvisoryLocker creates a new PostgresAdvisoryLocker
func NewPostgresAdvisoryLocker(db *sql.DB) *PostgresAdvisoryLocker {
	return &PostgresAdvisoryLocker{db: db, pollInterval: DefaultPollInterval}
}

// WithPollInterval overrides the retry pause
func (l *PostgresAdvisoryLocker) WithPollInterval(d time.Duration) *PostgresAdvisoryLocker {
	if d > 0 {
		l.pollInterval = d
	}
	return l
}

// Acquire implements shared.Locker. It tries once, then polls until wait elapses.
// Waiting for a free connection of the lock pool counts against wait.
func (l *PostgresAdvisoryLocker) Acquire(ctx context.Context, key string, wait time.Duration) (shared.Lock, error) {
	deadline := time.Now().Add(wait)

	conn, err := l.conn(ctx, wait)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: lock pool exhausted after %s", shared.ErrLockUnavailable, key, wait)
		}
		return nil, fmt.Errorf("advisory lock %s: get connection: %w", key, err)
	}

	for {
		var ok bool
		if err := conn.QueryRowContext(ctx, tryAdvisoryLock, key).Scan(&ok); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("advisory lock %s: %w", key, err)
		}
		if ok {
			return &advisoryLock{conn: conn, key: key}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %s after %s", shared.ErrLockUnavailable, key, wait)
		}
		pause := l.pollInterval
		if pause > remaining {
			pause = remaining
		}
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrLockUnavailable, key, ctx.Err())
		case <-time.After(pause):
		}
	}
}

func (l *PostgresAdvisoryLocker) conn(ctx context.Context, wait time.Duration) (*sql.Conn, error) {
	if wait < l.pollInterval {
		wait = l.pollInterval
	}
	connCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	return l.db.Conn(connCtx)
}

type advisoryLock struct {
	conn *sql.Conn
	key  string
	once sync.Once
	err  error
}

// Release unlocks and hands the connection back to the pool
func (a *advisoryLock) Release(ctx context.Context) error {
	a.once.Do(func() {
		var released bool
		if err := a.conn.QueryRowContext(ctx, advisoryUnlock, a.key).Scan(&released); err != nil {
			a.err = fmt.Errorf("advisory unlock %s: %w", a.key, err)
		} else if !released {
			a.err = fmt.Errorf("advisory unlock %s: lock was not held", a.key)
		}
		if err := a.conn.Close(); err != nil && a.err == nil {
			a.err = err
		}
	})
	return a.err
}

var _ shared.Locker = (*PostgresAdvisoryLocker)(nil)
