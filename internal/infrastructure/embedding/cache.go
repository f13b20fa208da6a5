package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/shelfmatch/backend/internal/domain"
)

// cacheItem is a cached vector with its expiration.
type cacheItem struct {
	vector     []float32
	expiration time.Time
}

// MemoryVectorCache is a thread-safe in-memory vector cache with TTL
// support. It is the only shared mutable state in a matching run, keyed by
// normalized product name.
type MemoryVectorCache struct {
	data  map[string]cacheItem
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewMemoryVectorCache creates a vector cache. A zero TTL defaults to one
// hour, long enough to cover any single batch run.
func NewMemoryVectorCache(ttl time.Duration) *MemoryVectorCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	cache := &MemoryVectorCache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached vector.
func (c *MemoryVectorCache) Get(ctx context.Context, key string) ([]float32, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}
	return item.vector, nil
}

// Set stores a vector.
func (c *MemoryVectorCache) Set(ctx context.Context, key string, vector []float32) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		vector:     vector,
		expiration: time.Now().Add(c.ttl),
	}
	return nil
}

// Size returns the current number of cached vectors.
func (c *MemoryVectorCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// cleanupExpired removes expired entries periodically.
func (c *MemoryVectorCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
