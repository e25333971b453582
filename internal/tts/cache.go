package tts

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Cache is a bounded store of synthesized audio keyed by the SHA-256 of
// the exact response text. Eviction is insertion-order: at capacity the
// earliest-inserted surviving entry goes first. A repeated Put of the
// same text refreshes the bytes without growing the cache.
type Cache struct {
	mu       sync.Mutex
	enabled  bool
	capacity int
	entries  map[string][]byte
	order    []string
}

func NewCache(enabled bool, capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		enabled:  enabled,
		capacity: capacity,
		entries:  make(map[string][]byte),
	}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(text string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[cacheKey(text)]
	return data, ok
}

func (c *Cache) Put(text string, data []byte) {
	if !c.enabled {
		return
	}
	key := cacheKey(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = data
		return
	}
	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = data
	c.order = append(c.order, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
