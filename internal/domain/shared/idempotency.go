package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried mutation replays its first result
// instead of running twice.
type IdempotencyStore interface {
	// Claim marks key as in flight. It returns false if the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Complete stores the response recorded for key.
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error

	// Lookup returns the stored response. done is false while the key is still in flight.
	Lookup(ctx context.Context, key string) (response []byte, done bool, err error)

	// Forget drops the key so the request may be retried.
	Forget(ctx context.Context, key string) error
}
