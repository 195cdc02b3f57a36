// Package cache defines the port interface for response caching.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for TTL key-value caching of serialized
// responses. Implementations must treat an expired entry as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
