package pipeline

import (
	"strings"
	"sync"
	"time"

	"github.com/mkoziel/vitrine/pkg/message"
)

// responseCache is a small TTL cache for finished replies. Entries are keyed
// by normalized query plus a session fingerprint, so the same question asked
// in a conversation whose memory has moved on misses the cache.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

type cacheEntry struct {
	response message.ChatResponse
	storedAt time.Time
}

func newResponseCache(ttl time.Duration, maxSize int, now func() time.Time) *responseCache {
	if now == nil {
		now = time.Now
	}
	return &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
	}
}

// cacheKey normalizes the query and appends the session fingerprint.
func cacheKey(query, fingerprint string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " ")) + "|" + fingerprint
}

func (c *responseCache) get(key string) (message.ChatResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return message.ChatResponse{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return message.ChatResponse{}, false
	}
	return entry.response, true
}

func (c *responseCache) put(key string, resp message.ChatResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Evict expired entries first; if still full, drop the oldest.
	if len(c.entries) >= c.maxSize {
		now := c.now()
		var oldestKey string
		var oldestAt time.Time
		for k, e := range c.entries {
			if now.Sub(e.storedAt) > c.ttl {
				delete(c.entries, k)
				continue
			}
			if oldestKey == "" || e.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, e.storedAt
			}
		}
		if len(c.entries) >= c.maxSize && oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}
	c.entries[key] = cacheEntry{response: resp, storedAt: c.now()}
}
