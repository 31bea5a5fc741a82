package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/billing/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "billing:idempotency:"
	pendingMarker    = "\x00pending"
)

// RedisIdempotencyStore implements IdempotencyStore using Redis so that
// every server instance sees the same request keys
type RedisIdempotencyStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store over an existing client
func NewRedisIdempotencyStore(client redis.UniversalClient, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim sets the pending marker with SETNX
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, pendingMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return ok, nil
}

// Complete overwrites the marker with the response
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, response, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Lookup reads the stored response. The pending marker reads as not done.
func (s *RedisIdempotencyStore) Lookup(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if string(val) == pendingMarker {
		return nil, false, nil
	}
	return val, true, nil
}

// Forget deletes key
func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to forget idempotency key: %w", err)
	}
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
