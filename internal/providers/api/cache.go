package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/justchokingaround/inspire/internal/media"
)

// PageKey identifies a cached result page
type PageKey struct {
	MediaType media.MediaType
	Term      string
	Page      int
	PerPage   int
}

func (k PageKey) String() string {
	return fmt.Sprintf("%s:%s:%d:%d", k.MediaType, k.Term, k.Page, k.PerPage)
}

type pageEntry struct {
	page      *media.ResultPage
	expiresAt time.Time
	storedAt  time.Time
}

// PageCache caches upstream result pages to avoid redundant API calls.
// Entries expire after ttl; when full, the oldest entry is evicted.
type PageCache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	data       map[PageKey]pageEntry
	now        func() time.Time
}

// NewPageCache creates a new PageCache
func NewPageCache(ttl time.Duration, maxEntries int) *PageCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &PageCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		data:       make(map[PageKey]pageEntry),
		now:        time.Now,
	}
}

// Get retrieves a cached page that has not expired
func (c *PageCache) Get(key PageKey) (*media.ResultPage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.data[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	return entry.page, true
}

// Set stores a page in the cache
func (c *PageCache) Set(key PageKey, page *media.ResultPage) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.data[key] = pageEntry{page: page, expiresAt: now.Add(c.ttl), storedAt: now}
}

// SetTTL changes the lifetime of entries stored from now on
func (c *PageCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Len returns the number of stored entries, expired ones included
func (c *PageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear drops every entry
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[PageKey]pageEntry)
}

// evictLocked drops expired entries, or the oldest one if none expired
func (c *PageCache) evictLocked(now time.Time) {
	var (
		oldestKey PageKey
		oldestAt  time.Time
		removed   bool
	)
	for key, entry := range c.data {
		if !now.Before(entry.expiresAt) {
			delete(c.data, key)
			removed = true
			continue
		}
		if oldestAt.IsZero() || entry.storedAt.Before(oldestAt) {
			oldestKey, oldestAt = key, entry.storedAt
		}
	}
	if !removed && !oldestAt.IsZero() {
		delete(c.data, oldestKey)
	}
}
