package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys. Get reports a missing key as
// (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value; an expiration of zero or less keeps it until evicted
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error

	Health(ctx context.Context) error
}

// CacheError wraps a failed cache command
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " " + e.Key + ": " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// New returns a Valkey-backed multi-level cache when valkeyURL is set and an
// in-process cache otherwise.
func New(valkeyURL string, l1MaxItems int) (Cache, error) {
	if valkeyURL == "" {
		return NewMemoryCache(l1MaxItems), nil
	}
	return NewValkeyMultiLevelCache(valkeyURL, l1MaxItems)
}
