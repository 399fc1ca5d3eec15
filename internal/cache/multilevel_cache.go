package cache

import (
	"context"
	"time"
)

// l1MaxTTL caps how long a value may live in the in-process level
const l1MaxTTL = time.Hour

// MultiLevelCache implements a multi-level cache with an in-memory L1 over any L2
type MultiLevelCache struct {
	l1 *MemoryCache
	l2 Cache
}

type cacheItem struct {
	data      []byte
	expiresAt time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// NewMultiLevelCache creates a new multi-level cache over l2
func NewMultiLevelCache(l2 Cache, l1MaxItems int) *MultiLevelCache {
	return &MultiLevelCache{
		l1: NewMemoryCache(l1MaxItems),
		l2: l2,
	}
}

// Get retrieves from L1 first, then L2
func (c *MultiLevelCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, _ := c.l1.Get(ctx, key); data != nil {
		return data, nil
	}

	data, err := c.l2.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if data != nil {
		_ = c.l1.Set(ctx, key, data, l1MaxTTL)
	}

	return data, nil
}

// Set stores in both L1 and L2
func (c *MultiLevelCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}

	// L1 never outlives l1MaxTTL
	l1Expiration := expiration
	if l1Expiration <= 0 || l1Expiration > l1MaxTTL {
		l1Expiration = l1MaxTTL
	}
	return c.l1.Set(ctx, key, value, l1Expiration)
}

// Delete removes from both levels
func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = c.l1.Delete(ctx, key)
	return c.l2.Delete(ctx, key)
}

// Close closes both levels
func (c *MultiLevelCache) Close() error {
	_ = c.l1.Close()
	return c.l2.Close()
}

// Health checks L2 health
func (c *MultiLevelCache) Health(ctx context.Context) error {
	return c.l2.Health(ctx)
}
