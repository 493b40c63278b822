// Package cache holds recently scraped target results so repeated requests
// for the same review page within a client-chosen window skip the browser
// entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/Junaid-liberatelabs/capterra-scrapper/models"
)

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    *models.TargetResult
	createdAt time.Time
}

// Cache is a simple in-memory cache for per-target scrape results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
}

// New creates a Cache with the given maximum number of entries. A background
// goroutine evicts entries older than 1 hour every 5 minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.cleanupLoop()
	return c
}

// Key derives the cache key from the target URL and the date filter, since
// the same page scraped under different filters yields different records.
func Key(url string, filter models.DateRange) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	if !filter.Start.IsZero() {
		h.Write([]byte(filter.Start.Format("2006-01-02")))
	}
	h.Write([]byte("|"))
	if !filter.End.IsZero() {
		h.Write([]byte(filter.End.Format("2006-01-02")))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get retrieves a cached result younger than maxAge. maxAge is in
// milliseconds; maxAge <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMs int) (*models.TargetResult, bool) {
	if maxAgeMs <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMs)*time.Millisecond {
		return nil, false
	}
	return e.result, true
}

// Set stores a result. Only settled outcomes are worth caching: error
// entries are skipped so a transient failure is not replayed to clients.
func (c *Cache) Set(key string, result *models.TargetResult) {
	if result == nil || result.Status == models.StatusError {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{result: result, createdAt: time.Now()}
}

// cleanupLoop evicts entries older than 1 hour every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
