package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"fossils/internal/cache"
)

const (
	searchCacheTTL = 5 * time.Minute
	cacheTimeout   = 500 * time.Millisecond
)

// CachedProvider memoizes Search results. Everything else is served by the
// wrapped provider directly.
type CachedProvider struct {
	Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps p with a search cache
func NewCachedProvider(p Provider, c cache.Cache) *CachedProvider {
	return &CachedProvider{
		Provider: p,
		cache:    c,
		ttl:      searchCacheTTL,
	}
}

func catalogSearchKey(query string) string { return "catalog:search:" + strings.ToLower(query) }

// Search checks the cache first and stores misses
func (p *CachedProvider) Search(query string) SearchResult {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	key := catalogSearchKey(query)

	if data, err := p.cache.Get(ctx, key); err != nil {
		slog.Warn("Catalog search cache read failed", "query", query, "error", err)
	} else if data != nil {
		var result SearchResult
		if err := json.Unmarshal(data, &result); err == nil {
			return result
		}
		slog.Warn("Discarding corrupt catalog search cache entry", "query", query)
	}

	result := p.Provider.Search(query)

	if data, err := json.Marshal(result); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl); err != nil {
			slog.Warn("Catalog search cache write failed", "query", query, "error", err)
		}
	}

	return result
}
