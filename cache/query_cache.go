package cache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"AutoQFM/model"
)

// QueryCache is the in-process, size-bounded, TTL'd cache of AI-generated
// query lists. Eviction is oldest-timestamp-first; hit counts are tracked
// but deliberately not used for eviction.
type QueryCache struct {
	mu         sync.Mutex
	entries    map[string]*queryEntry
	maxEntries int
	ttl        time.Duration
	clock      func() time.Time
}

type queryEntry struct {
	queries   []string
	timestamp time.Time
	hits      int
}

// NewQueryCache creates a query cache. A nil clock defaults to time.Now.
func NewQueryCache(maxEntries int, ttl time.Duration, clock func() time.Time) *QueryCache {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	if clock == nil {
		clock = time.Now
	}
	return &QueryCache{
		entries:    make(map[string]*queryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
	}
}

// QueryKey builds the cache key from seed artist, genre set and diversity.
// Genres are sorted so the key is order-independent.
func QueryKey(seedArtist string, genres []string, diversity model.DiversityLevel) string {
	sorted := append([]string(nil), genres...)
	sort.Strings(sorted)
	return strings.ToLower(strings.TrimSpace(seedArtist)) + "|" +
		strings.ToLower(strings.Join(sorted, ",")) + "|" + string(diversity)
}

// Get returns the cached query list, honoring the TTL. A stale entry is
// dropped and reported as a miss.
func (c *QueryCache) Get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock().Sub(entry.timestamp) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	entry.hits++
	return append([]string(nil), entry.queries...), true
}

// Put stores a query list, evicting the oldest entry when full.
func (c *QueryCache) Put(key string, queries []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = &queryEntry{
		queries:   append([]string(nil), queries...),
		timestamp: c.clock(),
	}
}

// Len returns the number of cached entries, stale ones included.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns entry count and accumulated hits, for diagnostics.
func (c *QueryCache) Stats() (entries int, hits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		hits += e.hits
	}
	return len(c.entries), hits
}

// evictOldest assumes the mutex is held.
func (c *QueryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.timestamp
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
