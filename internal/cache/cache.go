// Package cache is a small TTL cache for scraped price lists. Entries expire
// a fixed duration after insertion regardless of how often they are read.
package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// DefaultCapacity bounds the number of keys held at once.
const DefaultCapacity = 100

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache[V any] struct {
	mu       sync.RWMutex
	store    *ttlcache.Cache[string, V]
	ttl      time.Duration
	capacity uint64
}

// New creates a cache whose entries live for ttl. capacity <= 0 uses
// DefaultCapacity; past it the least recently used key is evicted.
func New[V any](ttl time.Duration, capacity int) *Cache[V] {
	c := &Cache[V]{ttl: ttl, capacity: DefaultCapacity}
	if capacity > 0 {
		c.capacity = uint64(capacity)
	}
	c.store = c.newStore(ttl)
	return c
}

func (c *Cache[V]) newStore(ttl time.Duration) *ttlcache.Cache[string, V] {
	return ttlcache.New[string, V](
		ttlcache.WithTTL[string, V](ttl),
		ttlcache.WithCapacity[string, V](c.capacity),
		ttlcache.WithDisableTouchOnHit[string, V](),
	)
}

// Get returns the value stored under key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item := c.store.Get(key)
	if item == nil {
		var zero V
		return zero, false
	}
	return item.Value(), true
}

// Put stores value under key for the configured TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.store.Set(key, value, ttlcache.DefaultTTL)
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.store.DeleteAll()
	zap.L().Info("cache cleared")
}

// Reconfigure replaces the backing store with an empty one using ttl.
// Existing entries are discarded.
func (c *Cache[V]) Reconfigure(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = c.newStore(ttl)
	c.ttl = ttl
	zap.L().Info("cache ttl changed", zap.Duration("ttl", ttl))
}

// TTL returns the current entry lifetime.
func (c *Cache[V]) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

// Len returns the number of stored entries, including any that have expired
// but not yet been evicted.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}
