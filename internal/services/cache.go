package services

import (
	"fmt"
	"sync"
	"time"

	"local-events-aggregator/internal/models"
)

// DefaultCacheTTL is how long an aggregation result is reused before the next
// query recomputes it.
const DefaultCacheTTL = 30 * time.Minute

// Cache is the aggregation cache contract. It is injected into the
// aggregator so tests can observe hits and misses and multiple aggregator
// instances stay independent.
type Cache interface {
	Get(key string) ([]models.Event, bool)
	Put(key string, events []models.Event)
	Clear()
}

// CacheKey derives the cache key from a query's rounded location and radius.
// Rounding to two decimals (~0.7 miles) makes nearby repeat queries share an
// entry.
func CacheKey(latitude, longitude, radius float64) string {
	return fmt.Sprintf("%.2f,%.2f|%g", latitude, longitude, radius)
}

type cacheEntry struct {
	events    []models.Event
	createdAt time.Time
}

// MemoryCache is an in-process TTL cache with lazy expiry: entries are never
// evicted by a timer, a read past the TTL is simply a miss and the next Put
// replaces the slot. Writes are idempotent recomputations, so last writer
// wins is acceptable.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a cache with the default TTL.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithTTL(DefaultCacheTTL)
}

// NewMemoryCacheWithTTL creates a cache with a custom TTL.
func NewMemoryCacheWithTTL(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached events for a key if the entry is within its TTL.
func (c *MemoryCache) Get(key string) ([]models.Event, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		return nil, false
	}
	return entry.events, true
}

// Put stores events under a key, replacing any previous entry.
func (c *MemoryCache) Put(key string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		events:    events,
		createdAt: c.now(),
	}
}

// Clear drops all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
