// Package cache provides the best-effort read-aside cache for aggregate
// views. Implementations never return errors: a cache that cannot be
// reached behaves as a cache that holds nothing, and callers fall back to
// direct computation.
package cache

import (
	"context"
	"time"
)

// Cache is the read-aside contract. Get reports a miss (not an error) for
// any failure; Set is fire-and-forget.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Noop satisfies Cache for deployments without a cache backend and for
// tests. Every Get is a miss and every Set is dropped.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {}
