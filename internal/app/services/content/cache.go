package content

import (
	"sync"
	"time"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
)

// listKey identifies one cached page of the approved feed.
type listKey struct {
	offset int
	limit  int
}

type listEntry struct {
	items      []blog.Summary
	total      int
	storedAt   time.Time
	lastAccess time.Time
}

// ListCache caches approved-feed pages under a sliding freshness window and
// an absolute ceiling. Every write to the blog table must call Invalidate,
// so readers never observe pagination staler than the last mutation. When
// full, the entry idle the longest is evicted.
type ListCache struct {
	mu         sync.Mutex
	entries    map[listKey]*listEntry
	sliding    time.Duration
	absolute   time.Duration
	maxEntries int
	now        func() time.Time
}

// NewListCache creates a cache with the given freshness windows.
func NewListCache(sliding, absolute time.Duration) *ListCache {
	return &ListCache{
		entries:    make(map[listKey]*listEntry),
		sliding:    sliding,
		absolute:   absolute,
		maxEntries: 64,
		now:        time.Now,
	}
}

// Get returns the cached page and approved total for (offset, limit), if
// still fresh. A hit extends the sliding window.
func (c *ListCache) Get(offset, limit int) ([]blog.Summary, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := listKey{offset: offset, limit: limit}
	e, ok := c.entries[key]
	if !ok {
		return nil, 0, false
	}

	now := c.now()
	if now.Sub(e.storedAt) > c.absolute || now.Sub(e.lastAccess) > c.sliding {
		delete(c.entries, key)
		return nil, 0, false
	}
	e.lastAccess = now

	items := make([]blog.Summary, len(e.items))
	copy(items, e.items)
	return items, e.total, true
}

// Put stores a page and the approved total it was computed against.
func (c *ListCache) Put(offset, limit int, items []blog.Summary, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.evictStalestLocked()
	}

	stored := make([]blog.Summary, len(items))
	copy(stored, items)

	now := c.now()
	c.entries[listKey{offset: offset, limit: limit}] = &listEntry{
		items:      stored,
		total:      total,
		storedAt:   now,
		lastAccess: now,
	}
}

// Invalidate drops every entry. Called on blog create/update/delete and on
// every moderation decision.
func (c *ListCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[listKey]*listEntry)
}

// Len reports the number of live entries, for tests.
func (c *ListCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ListCache) evictStalestLocked() {
	var stalest listKey
	var stalestAccess time.Time
	first := true
	for key, e := range c.entries {
		if first || e.lastAccess.Before(stalestAccess) {
			stalest = key
			stalestAccess = e.lastAccess
			first = false
		}
	}
	if !first {
		delete(c.entries, stalest)
	}
}
