package storage

import (
	"context"
	"time"

	"fossils/internal/cache"
)

const cacheKVTimeout = 2 * time.Second

// CacheKV stores keys in a cache.Cache without expiration, which lets a
// Valkey instance hold client state shared between machines.
type CacheKV struct {
	cache  cache.Cache
	prefix string
}

// NewCacheKV namespaces every key under prefix
func NewCacheKV(c cache.Cache, prefix string) *CacheKV {
	return &CacheKV{cache: c, prefix: prefix}
}

func (s *CacheKV) Get(key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheKVTimeout)
	defer cancel()

	data, err := s.cache.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, false, err
	}
	return data, data != nil, nil
}

func (s *CacheKV) Set(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheKVTimeout)
	defer cancel()

	return s.cache.Set(ctx, s.prefix+key, value, 0)
}

func (s *CacheKV) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cacheKVTimeout)
	defer cancel()

	return s.cache.Delete(ctx, s.prefix+key)
}
