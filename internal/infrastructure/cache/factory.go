package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Idempotency store backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	cfg                   config.IdempotencyConfig
	client                redis.UniversalClient
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to the in-memory store.
// Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory. client may be nil for the memory backend.
func NewIdempotencyStoreFactory(cfg config.IdempotencyConfig, client redis.UniversalClient, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		cfg:                   cfg,
		client:                client,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the configured store. A Redis backend is pinged first.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	switch f.cfg.Backend {
	case BackendMemory, "":
		return NewInMemoryIdempotencyStore(), nil
	case BackendRedis:
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", f.cfg.Backend)
	}

	err := f.ping(ctx)
	if err == nil {
		f.logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(f.client, ""), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}

func (f *IdempotencyStoreFactory) ping(ctx context.Context) error {
	if f.client == nil {
		return fmt.Errorf("no redis client configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return f.client.Ping(ctx).Err()
}
