// Package cache stores per-cell culling results between runs.
//
// A [Cache] is a byte store with optional expiry. Implementations:
//
//   - [FileCache]: one file per key under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers and batch workers
//   - [NullCache]: stores nothing, for --no-cache and tests
//   - [CompressedCache]: zstd-compresses values on top of any other cache
//
// Keys come from a [Keyer]. The default keyer hashes the input fingerprint
// together with every setting that affects a cell's output, so changing the
// cell size, technique or overlay engine never returns stale results.
package cache

import (
	"context"
	"time"
)

// Cache is a key-value byte store.
//
// Get reports a miss with (nil, false, nil). Errors are reserved for backend
// failures. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
