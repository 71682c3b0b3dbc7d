package client

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultCacheTTL bounds remote-mode response cache entries.
const DefaultCacheTTL = 60 * time.Second

const anonymousTargetingKey = "anonymous"

type cacheEntry struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (e cacheEntry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.Timestamp) >= ttl
}

// responseCache holds remote evaluation responses keyed by
// (request kind, flag key or "snapshot", targeting key or "anonymous").
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func cacheKey(kind, flagKey, targetingKey string) string {
	if flagKey == "" {
		flagKey = "snapshot"
	}
	if targetingKey == "" {
		targetingKey = anonymousTargetingKey
	}
	return kind + "|" + flagKey + "|" + targetingKey
}

func (c *responseCache) get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.ttl, c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.Payload, true
}

func (c *responseCache) set(key string, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{Payload: payload, Timestamp: c.now()}
}

// export returns the live entries for persistence, skipping expired ones.
func (c *responseCache) export() map[string]cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]cacheEntry, len(c.entries))
	now := c.now()
	for k, e := range c.entries {
		if !e.expired(c.ttl, now) {
			out[k] = e
		}
	}
	return out
}

// load seeds the cache from persisted entries, discarding anything already
// past the TTL. Stale entries are never served.
func (c *responseCache) load(entries map[string]cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range entries {
		if !e.expired(c.ttl, now) {
			c.entries[k] = e
		}
	}
}
