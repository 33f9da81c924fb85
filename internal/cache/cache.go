// Package cache provides the in-process key/value cache used in front of the
// document store. Entries carry a per-entry TTL and expire lazily on read;
// there is no other eviction, so growth is bounded only by key cardinality.
//
// The cache is a disposable projection of the store of record: concurrent
// writers race under last-write-wins and that is fine. One instance is created
// per process and injected everywhere; tests inject their own.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/zzuhann/stellar/internal/metrics"
)

// notFound is the sentinel stored by SetNotFound so that repeated misses
// against the store are absorbed by the cache.
type notFound struct{}

type entry struct {
	value     any
	expiresAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the live value under key. An entry past its deadline behaves as
// absent and is evicted before returning.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		metrics.CacheMisses.WithLabelValues(keyPrefix(key)).Inc()
		return nil, false
	}
	if !e.expiresAt.After(c.now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, still := c.entries[key]; still && !cur.expiresAt.After(c.now()) {
			delete(c.entries, key)
			metrics.CacheEvictions.WithLabelValues("expired").Inc()
			metrics.CacheEntries.Set(float64(len(c.entries)))
		}
		c.mu.Unlock()
		metrics.CacheMisses.WithLabelValues(keyPrefix(key)).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(keyPrefix(key)).Inc()
	return e.value, true
}

// GetNotFound reports whether key holds a cached negative result.
func (c *Cache) GetNotFound(key string) bool {
	v, ok := c.Get(key)
	if !ok {
		return false
	}
	_, isNeg := v.(notFound)
	return isNeg
}

func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	metrics.CacheEntries.Set(float64(len(c.entries)))
	c.mu.Unlock()
}

// SetNotFound records a short-lived negative entry under key.
func (c *Cache) SetNotFound(key string, ttl time.Duration) {
	c.Set(key, notFound{}, ttl)
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		metrics.CacheEvictions.WithLabelValues("deleted").Inc()
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	c.mu.Unlock()
}

// ClearPattern deletes every key containing substring. Used after writes to
// drop all cached variants of a query family in one call.
func (c *Cache) ClearPattern(substring string) int {
	if substring == "" {
		return 0
	}
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.Contains(key, substring) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("pattern").Add(float64(removed))
		metrics.CacheEntries.Set(float64(len(c.entries)))
	}
	c.mu.Unlock()
	return removed
}

// Len reports the number of entries currently held, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush drops every entry.
func (c *Cache) Flush() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	if n > 0 {
		metrics.CacheEvictions.WithLabelValues("flushed").Add(float64(n))
	}
	metrics.CacheEntries.Set(0)
	c.mu.Unlock()
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return "other"
}
