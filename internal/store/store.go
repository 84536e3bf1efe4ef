// Package store provides the key-value substrates behind the timings cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by Get for a missing or expired key.
var ErrNotFound = eris.New("store: key not found")

// KV is a string-keyed byte store with per-entry expiry.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key, replacing any previous value. A ttl of zero
	// or less stores the entry without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteExpired removes expired entries and reports how many were removed.
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// expiresAt converts a ttl into an absolute deadline; the zero time means none.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

var (
	_ KV = (*MemoryStore)(nil)
	_ KV = (*SQLiteStore)(nil)
	_ KV = (*PostgresStore)(nil)
	_ KV = (*RedisStore)(nil)
)
