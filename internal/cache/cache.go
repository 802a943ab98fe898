// Package cache provides the key/value cache abstraction used for Pokemon
// data, with SQLite, Redis and in-memory implementations. The cache is a
// best-effort accelerator: a miss is never an error, and backend failures are
// downgraded to misses by callers rather than propagated.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the capability contract for cache backends. Any store implementing
// Get/Set is substitutable.
type Store interface {
	// Set saves or overwrites a value, serialized as JSON text. A ttl > 0
	// makes the entry unreadable after that duration; ttl <= 0 stores the
	// entry without expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get retrieves a value. A missing or expired key returns (nil, nil);
	// only backend failures return an error.
	Get(ctx context.Context, key string) (json.RawMessage, error)
}
