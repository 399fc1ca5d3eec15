package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errCacheClosed = errors.New("cache closed")

// MemoryCache is an in-process Cache. It backs single-node deployments
// without Valkey and serves as the L2 stand-in in tests.
type MemoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	maxItems int
	closed   bool
}

// NewMemoryCache creates a memory cache holding at most maxItems keys (0 = unbounded)
func NewMemoryCache(maxItems int) *MemoryCache {
	return &MemoryCache{
		items:    make(map[string]cacheItem),
		maxItems: maxItems,
	}
}

// Get retrieves a value, treating expired entries as missing
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, &CacheError{Operation: "get", Key: key, Err: errCacheClosed}
	}

	item, exists := c.items[key]
	if !exists || item.expired(time.Now()) {
		return nil, nil
	}
	return item.data, nil
}

// Set stores a value; a non-positive expiration never expires
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &CacheError{Operation: "set", Key: key, Err: errCacheClosed}
	}

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictLocked()
	}

	item := cacheItem{data: value}
	if expiration > 0 {
		item.expiresAt = time.Now().Add(expiration)
	}
	c.items[key] = item
	return nil
}

// Delete removes a key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	c.closed = true
	return nil
}

// Health always succeeds for an open cache
func (c *MemoryCache) Health(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return errCacheClosed
	}
	return nil
}

// evictLocked drops expired entries, or the entry closest to expiry when none have expired
func (c *MemoryCache) evictLocked() {
	now := time.Now()
	oldestKey := ""
	var oldest time.Time

	for k, item := range c.items {
		if item.expired(now) {
			delete(c.items, k)
			continue
		}
		if item.expiresAt.IsZero() {
			if oldestKey == "" {
				oldestKey = k
			}
			continue
		}
		if oldest.IsZero() || item.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = item.expiresAt
		}
	}

	if len(c.items) >= c.maxItems && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
