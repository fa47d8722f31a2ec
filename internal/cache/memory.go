package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryCache implements Cache in process memory, for running without Redis
type MemoryCache struct {
	store      *ristretto.Cache[string, []byte]
	keyPrefix  string
	defaultTTL *time.Duration
}

// NewMemoryCache creates a new in-process cache instance
func NewMemoryCache(keyPrefix string, defaultTTL *time.Duration) (*MemoryCache, error) {
	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e6,      // track frequency for ~100k items
		MaxCost:     64 << 20, // 64 MiB of cached payloads
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryCache{
		store:      store,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}, nil
}

// formatKey adds prefix to avoid collisions
func (c *MemoryCache) formatKey(key string) string {
	if c.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.keyPrefix, key)
}

// Get retrieves a value by key, nil on a miss
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := c.store.Get(c.formatKey(key))
	if !ok {
		return nil, nil
	}
	return value, nil
}

// Set stores a value with optional TTL. Writes are buffered internally, so
// Wait makes the entry visible to immediate readers.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl *time.Duration) error {
	cacheTTL := ttl
	if cacheTTL == nil {
		cacheTTL = c.defaultTTL
	}

	var expiry time.Duration
	if cacheTTL != nil {
		expiry = *cacheTTL
	}

	c.store.SetWithTTL(c.formatKey(key), value, int64(len(value)), expiry)
	c.store.Wait()
	return nil
}

// GetJSON retrieves and unmarshals JSON data
func (c *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("key not found: %s", key)
	}
	return json.Unmarshal(data, dest)
}

// SetJSON marshals and stores JSON data
func (c *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl *time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Delete removes a key
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.store.Del(c.formatKey(key))
	return nil
}

// Has checks if a key exists
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, ok := c.store.Get(c.formatKey(key))
	return ok
}

// Close releases the underlying store
func (c *MemoryCache) Close() {
	c.store.Close()
}
