package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheKey derives the cache key for a piece of text: an "emb_" prefix over
// its SHA-256 digest, so identical content shares a cache entry regardless
// of which document or chunk it came from.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb_" + hex.EncodeToString(sum[:])
}

func entryBytes(key string, vec []float32) int64 {
	return int64(len(key) + len(vec)*4)
}

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	Hits      int64
	Misses    int64
	UsedBytes int64
	Entries   int
}

// Cache is a byte-budgeted, TTL-bounded cache of text -> embedding vector.
// Each entry expires a fixed TTL after it was stored; reading it does not
// extend that. It wraps an expirable.LRU sized by entry count (effectively unbounded)
// and separately tracks total bytes, evicting the oldest entries whenever a
// Put pushes usage over the configured byte budget — closer to how an
// embedding cache is actually sized in practice than a fixed item count,
// since vector byte size varies by model.
type Cache struct {
	lru       *lru.LRU[string, []float32]
	maxBytes  int64
	usedBytes atomic.Int64
	hits      atomic.Int64
	misses    atomic.Int64
	mu        sync.Mutex // serializes Put's evict-to-fit loop
}

// NewCache builds a cache with the given TTL (measured from insertion) and
// byte budget.
func NewCache(ttl time.Duration, maxBytes int64) *Cache {
	c := &Cache{maxBytes: maxBytes}
	c.lru = lru.NewLRU[string, []float32](0, c.onEvict, ttl)
	return c
}

func (c *Cache) onEvict(key string, value []float32) {
	c.usedBytes.Add(-entryBytes(key, value))
}

// Get looks up text's embedding and counts the lookup as a hit or a miss.
// Accessing an entry does not extend its TTL — the underlying library
// measures TTL from insertion.
func (c *Cache) Get(text string) ([]float32, bool) {
	vec, ok := c.lru.Get(CacheKey(text))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return vec, ok
}

// Put stores text's embedding, evicting the least-recently-used entries
// until the cache is back within its byte budget.
func (c *Cache) Put(text string, vec []float32) {
	key := CacheKey(text)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, vec)
	c.usedBytes.Add(entryBytes(key, vec))

	for c.usedBytes.Load() > c.maxBytes {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		UsedBytes: c.usedBytes.Load(),
		Entries:   c.lru.Len(),
	}
}
