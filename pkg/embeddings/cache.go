package embeddings

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache is an in-memory embedding cache keyed by a content hash of
// model + text. Entries expire after a fixed TTL and are evicted lazily:
// a Get on an expired key removes it. There is no size-based eviction.
//
// The cache tolerates concurrent reads and writes; concurrent Sets for the
// same key resolve last-writer-wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time
}

type cacheEntry struct {
	vector     []float32
	insertedAt time.Time
}

// CacheStats reports cache occupancy.
type CacheStats struct {
	Entries int           `json:"entries"`
	TTL     time.Duration `json:"ttl"`
}

// NewCache creates a cache whose entries expire after ttlHours.
func NewCache(ttlHours uint) *Cache {
	return NewCacheWithClock(ttlHours, time.Now)
}

// NewCacheWithClock creates a cache with an injectable clock for expiry tests.
func NewCacheWithClock(ttlHours uint, now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     time.Duration(ttlHours) * time.Hour,
		now:     now,
	}
}

// cacheKey derives a stable, collision-resistant key from model and text.
func cacheKey(text, model string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached vector for (text, model), or false if absent.
// An expired entry counts as absent and is removed.
func (c *Cache) Get(text, model string) ([]float32, bool) {
	key := cacheKey(text, model)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.expired(entry) {
		c.mu.Lock()
		// Re-check under the write lock; a fresh Set may have raced in.
		if entry, ok = c.entries[key]; ok && c.expired(entry) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.vector, true
}

// Set stores the vector for (text, model), stamping it with the current time.
func (c *Cache) Set(text, model string, vector []float32) {
	key := cacheKey(text, model)

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		vector:     vector,
		insertedAt: c.now(),
	}
	c.mu.Unlock()
}

// CleanupExpired removes all expired entries and returns how many were removed.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if c.expired(entry) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Stats returns current cache occupancy.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		Entries: len(c.entries),
		TTL:     c.ttl,
	}
}

func (c *Cache) expired(entry cacheEntry) bool {
	return c.now().Sub(entry.insertedAt) >= c.ttl
}
