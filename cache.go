package secfetch

import (
	"hash/fnv"
	"sync"
	"time"
)

const defaultNumShards = 16

// MemoryCache is the default in-memory Cache. Keys are spread over a fixed
// set of shards to reduce lock contention. Expired entries are evicted
// lazily on read; there is no background sweep.
type MemoryCache struct {
	shards      []*cacheShard
	numShards   int
	maxPerShard int
}

type cacheShard struct {
	mu    sync.Mutex
	store map[string]*CacheEntry
}

// NewMemoryCache creates an unbounded in-memory cache.
func NewMemoryCache() *MemoryCache {
	return NewBoundedMemoryCache(0)
}

// NewBoundedMemoryCache creates an in-memory cache holding at most maxEntries
// entries (rounded up to a multiple of the shard count). When a shard is
// full the oldest entry in that shard is evicted on insert. maxEntries <= 0
// means unbounded.
func NewBoundedMemoryCache(maxEntries int) *MemoryCache {
	shards := make([]*cacheShard, defaultNumShards)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[string]*CacheEntry)}
	}

	maxPerShard := 0
	if maxEntries > 0 {
		maxPerShard = (maxEntries + defaultNumShards - 1) / defaultNumShards
	}

	return &MemoryCache{
		shards:      shards,
		numShards:   defaultNumShards,
		maxPerShard: maxPerShard,
	}
}

func (c *MemoryCache) getShard(key string) *cacheShard {
	hash := fnv.New32a()
	hash.Write([]byte(key))
	return c.shards[hash.Sum32()%uint32(c.numShards)]
}

// Get returns the entry for key if present and not expired. A stale entry
// is removed as a side effect of the read.
func (c *MemoryCache) Get(key string) (*CacheEntry, bool) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.store[key]
	if !exists {
		return nil, false
	}

	if !time.Now().Before(entry.ExpiresAt) {
		delete(shard.store, key)
		return nil, false
	}

	return entry, true
}

// Set stores or overwrites the entry for key with a fresh StoredAt.
func (c *MemoryCache) Set(key string, entry *CacheEntry, ttl time.Duration) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	now := time.Now()
	entry.StoredAt = now
	entry.ExpiresAt = now.Add(ttl)

	if c.maxPerShard > 0 {
		if _, exists := shard.store[key]; !exists && len(shard.store) >= c.maxPerShard {
			shard.evictOldest()
		}
	}

	shard.store[key] = entry
}

// evictOldest drops the entry with the earliest StoredAt. Expired entries
// are preferred so a live entry is only sacrificed when the shard is truly
// full. Caller holds the shard lock.
func (s *cacheShard) evictOldest() {
	now := time.Now()
	var oldestKey string
	var oldestAt time.Time

	for k, e := range s.store {
		if !now.Before(e.ExpiresAt) {
			delete(s.store, k)
			return
		}
		if oldestKey == "" || e.StoredAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.StoredAt
		}
	}

	if oldestKey != "" {
		delete(s.store, oldestKey)
	}
}

// Delete removes the entry for key, if any.
func (c *MemoryCache) Delete(key string) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	delete(shard.store, key)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*CacheEntry)
		shard.mu.Unlock()
	}
}

// Len returns the number of stored entries, including any not yet lazily
// evicted.
func (c *MemoryCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		total += len(shard.store)
		shard.mu.Unlock()
	}
	return total
}
