package locking

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable is returned when the configured backend has no client
var ErrBackendUnavailable = errors.New("lock backend unavailable")

// New builds the Locker selected by cfg.LockBackend. Postgres needs sqlDB, the
// advisory lock pool from OpenPostgresPool; redis needs rdb.
func New(cfg config.NumberingConfig, sqlDB *sql.DB, rdb redis.UniversalClient) (shared.Locker, error) {
	switch cfg.LockBackend {
	case config.LockBackendPostgres:
		if sqlDB == nil {
			return nil, fmt.Errorf("%w: postgres needs a database handle", ErrBackendUnavailable)
		}
		return NewPostgresAdvisoryLocker(sqlDB), nil
	case config.LockBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("%w: redis needs a client", ErrBackendUnavailable)
		}
		return NewRedisLocker(rdb, cfg.LockTTL), nil
	case config.LockBackendMemory, "":
		return NewMemoryLocker(), nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
}
