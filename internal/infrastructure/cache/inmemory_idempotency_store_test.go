package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_ClaimCompleteLookup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first claim wins", func(t *testing.T) {
		ok, err := store.Claim(ctx, "convert-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "convert-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("in flight key is not done", func(t *testing.T) {
		_, err := store.Claim(ctx, "convert-2", time.Hour)
		require.NoError(t, err)

		resp, done, err := store.Lookup(ctx, "convert-2")
		require.NoError(t, err)
		assert.False(t, done)
		assert.Nil(t, resp)
	})

	t.Run("completed key replays response", func(t *testing.T) {
		_, err := store.Claim(ctx, "convert-3", time.Hour)
		require.NoError(t, err)
		body := []byte(`{"success":true}`)
		require.NoError(t, store.Complete(ctx, "convert-3", body, time.Hour))
		body[0] = 'X'

		resp, done, err := store.Lookup(ctx, "convert-3")
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, `{"success":true}`, string(resp))

		ok, err := store.Claim(ctx, "convert-3", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok, "completed key cannot be claimed again")
	})

	t.Run("forget allows retry", func(t *testing.T) {
		_, err := store.Claim(ctx, "convert-4", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "convert-4"))

		ok, err := store.Claim(ctx, "convert-4", time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, done, err := store.Lookup(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, done)
	})
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Claim(ctx, "short-1", 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, "short-2", []byte("x"), 10*time.Millisecond))
	require.NoError(t, store.Complete(ctx, "long", []byte("y"), time.Hour))
	assert.Equal(t, 3, store.Size())

	time.Sleep(20 * time.Millisecond)

	_, done, err := store.Lookup(ctx, "short-2")
	require.NoError(t, err)
	assert.False(t, done, "expired response is gone")

	ok, err := store.Claim(ctx, "short-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim can be taken again")

	store.cleanup()
	assert.Equal(t, 2, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 100
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		go func() {
			ok, err := store.Claim(ctx, "same-key", time.Hour)
			results <- err == nil && ok
		}()
	}

	won := 0
	for i := 0; i < workers; i++ {
		if <-results {
			won++
		}
	}
	assert.Equal(t, 1, won)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Backend: BackendMemory}, nil).CreateStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis without client falls back", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Backend: BackendRedis}, nil).CreateStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("redis required", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Backend: BackendRedis}, nil,
			WithInMemoryFallback(false)).CreateStore(ctx)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStoreFactory(config.IdempotencyConfig{Backend: "memcached"}, nil).CreateStore(ctx)
		assert.Error(t, err)
	})
}
