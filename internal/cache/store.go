package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable wraps every failure to reach a backing store.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Store is the shared key/value store behind the coordinator. Entries expire
// after their TTL; there is no delete.
type Store interface {
	// Get returns found=false for a missing or expired key.
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// SetNX stores val only if key is absent or expired, atomically.
	SetNX(ctx context.Context, key string, val []byte, ttl time.Duration) (bool, error)
}
