package cache

import (
	"context"
	"time"
)

// Cache is the transparent read-through layer injected into each resolver.
// A miss or cold cache must never change a computed result, only its latency.
// Invalidation is triggered by the write paths that mutate the cached data.
type Cache interface {
	// Get unmarshals the cached value into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Put stores the value under key with the given TTL.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate removes the given keys.
	Invalidate(ctx context.Context, keys ...string) error
	// InvalidatePrefix removes every key under the given prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error
}
