package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on a shared Redis instance
type RedisCache struct {
	client     *redis.Client
	keyPrefix  string
	defaultTTL *time.Duration
}

// NewRedisCache creates a new Redis-backed cache instance
func NewRedisCache(client *redis.Client, keyPrefix string, defaultTTL *time.Duration) *RedisCache {
	return &RedisCache{
		client:     client,
		keyPrefix:  keyPrefix,
		defaultTTL: defaultTTL,
	}
}

// formatKey adds prefix to avoid collisions
func (c *RedisCache) formatKey(key string) string {
	if c.keyPrefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", c.keyPrefix, key)
}

// Get retrieves a value by key, nil on a miss
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, c.formatKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set stores a value with optional TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl *time.Duration) error {
	cacheTTL := ttl
	if cacheTTL == nil {
		cacheTTL = c.defaultTTL
	}

	var expiry time.Duration
	if cacheTTL != nil {
		expiry = *cacheTTL
	}

	if err := c.client.Set(ctx, c.formatKey(key), value, expiry).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// GetJSON retrieves and unmarshals JSON data
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
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
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl *time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Delete removes a key
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.formatKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Has checks if a key exists
func (c *RedisCache) Has(ctx context.Context, key string) bool {
	count, err := c.client.Exists(ctx, c.formatKey(key)).Result()
	return err == nil && count > 0
}
