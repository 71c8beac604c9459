package secfetch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, for deployments that want fetch
// results shared across processes. Entries are stored JSON-encoded with the
// TTL delegated to Redis key expiry; lazy-eviction semantics therefore
// match MemoryCache without extra bookkeeping.
//
// The Cache interface carries no context, so operations run against a
// per-call background context bounded by opTimeout.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	opTimeout time.Duration
}

// NewRedisCache creates a cache on an existing Redis client. prefix
// namespaces the keys (pass "" for the default "secfetch:").
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "secfetch:"
	}
	return &RedisCache{
		client:    client,
		keyPrefix: prefix,
		opTimeout: 2 * time.Second,
	}
}

func (c *RedisCache) key(key string) string {
	return c.keyPrefix + key
}

// Get returns the entry for key if present. An entry that cannot be decoded
// is treated as a miss and deleted, so a corrupt value degrades to a
// refetch instead of a failed fetch.
func (c *RedisCache) Get(key string) (*CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.Delete(key)
		return nil, false
	}

	// Redis expiry is authoritative, but guard against clock drift between
	// writer and reader.
	if !entry.ExpiresAt.IsZero() && !time.Now().Before(entry.ExpiresAt) {
		c.Delete(key)
		return nil, false
	}

	return &entry, true
}

// Set stores the entry under key with the given TTL.
func (c *RedisCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	now := time.Now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	_ = c.client.Set(ctx, c.key(key), raw, ttl).Err()
}

// Delete removes the entry for key, if any.
func (c *RedisCache) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	_ = c.client.Del(ctx, c.key(key)).Err()
}

// Clear removes all entries under this cache's prefix.
func (c *RedisCache) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
	defer cancel()

	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
