package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// PersistentStore is an optional key-value store the remote-mode response
// cache survives process restarts in. Get returns (nil, nil) when the key is
// absent.
type PersistentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// persistedCache is the stored shape: the full entry map under one key.
type persistedCache struct {
	Entries map[string]cacheEntry `json:"entries"`
}

// persistenceKey derives the storage key from the credential, so two clients
// with different credentials never share cached responses.
func persistenceKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "kitbase:cache:" + hex.EncodeToString(sum[:])
}

// loadPersistedCache seeds the response cache from the persistent store.
// Expired entries are pruned on load.
func (c *Client) loadPersistedCache(ctx context.Context) error {
	raw, err := c.persist.Get(ctx, c.persistKey)
	if err != nil {
		return fmt.Errorf("load persisted cache: %w", err)
	}
	if raw == nil {
		return nil
	}
	var stored persistedCache
	if err := json.Unmarshal(raw, &stored); err != nil {
		// A corrupt payload is dropped rather than surfaced on every start.
		return c.persist.Remove(ctx, c.persistKey)
	}
	c.cache.load(stored.Entries)
	return nil
}

// persistDebounce bounds how often evaluation paths rewrite the stored blob.
const persistDebounce = time.Second

// savePersistedCache writes the live cache entries back. Best-effort: a
// persistence failure never fails the evaluation that triggered it. Writes
// from evaluation paths are debounced so a hot loop does not pay a full-cache
// serialization per call; force bypasses the debounce (used on Close).
func (c *Client) savePersistedCache(ctx context.Context, force bool) {
	if c.persist == nil {
		return
	}

	c.persistMu.Lock()
	if !force && time.Since(c.lastPersist) < persistDebounce {
		c.persistMu.Unlock()
		return
	}
	c.lastPersist = time.Now()
	c.persistMu.Unlock()

	raw, err := json.Marshal(persistedCache{Entries: c.cache.export()})
	if err != nil {
		return
	}
	if err := c.persist.Set(ctx, c.persistKey, raw); err != nil {
		c.logger.Warn("persist response cache failed", "error", err)
	}
}
