// Package cachemanager provides a typed TTL cache used to avoid
// refetching slow collaborator answers (VCS head content, blame) for
// recently seen documents.
package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/folio/internal/log"
)

const (
	DefaultExpiration      = 5 * time.Minute
	DefaultCleanupInterval = 15 * time.Minute
)

// Manager is the cache surface the rest of the code depends on.
type Manager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}

// InMemory implements Manager on top of go-cache.
type InMemory[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewInMemory creates an in-memory cache. useCase labels log entries.
func NewInMemory[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemory[K, V] {
	return &InMemory[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

var _ Manager[string, string] = (*InMemory[string, string])(nil)

// Get retrieves an item from the cache by its key.
func (c *InMemory[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "useCase", c.useCase, "key", key)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "useCase", c.useCase, "key", key)
	return v, true
}

// Set stores a value under key with the given TTL.
func (c *InMemory[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes the given keys.
func (c *InMemory[K, V]) Delete(ctx context.Context, keys ...K) {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
}

// Flush clears the whole cache.
func (c *InMemory[K, V]) Flush(ctx context.Context) {
	c.cache.Flush()
}

// ReadThrough wraps a Manager with a fetch function consulted on miss.
type ReadThrough[K ~string, V any] struct {
	cache Manager[K, V]
	fetch func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
}

// NewReadThrough creates a read-through cache over fetch.
func NewReadThrough[K ~string, V any](cache Manager[K, V], ttl time.Duration, fetch func(ctx context.Context, key K) (V, error)) *ReadThrough[K, V] {
	return &ReadThrough[K, V]{cache: cache, fetch: fetch, ttl: ttl}
}

// Get returns the cached value for key, fetching and caching on miss.
// Fetch errors are returned uncached.
func (r *ReadThrough[K, V]) Get(ctx context.Context, key K) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	value, err := r.fetch(ctx, key)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}

// Invalidate drops the cached value for key so the next Get refetches.
func (r *ReadThrough[K, V]) Invalidate(ctx context.Context, key K) {
	r.cache.Delete(ctx, key)
}
