// Package stream fetches and caches slice regions from multi-resolution
// volume sources, selecting the level that best matches the current zoom and
// superseding in-flight fetches whenever the request generation advances.
package stream

import (
	"log"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/golang/groupcache/lru"

	"volscope/internal/volume"
)

// DefaultMaxEntries bounds the region cache.
const DefaultMaxEntries = 32

// Key identifies one cached region: the layer it belongs to, the mip level,
// the slice at that level, and the region rectangle in level-local pixels.
type Key struct {
	Layer  int
	Level  int
	Slice  int
	X      int
	Y      int
	Width  int
	Height int
}

// Cache is a bounded region cache. Eviction is handled by the underlying
// LRU; with insert-only traffic the oldest insertion is evicted first.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache
}

// NewCache creates a cache bounded to maxEntries regions (DefaultMaxEntries
// when non-positive).
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	c := &Cache{lru: lru.New(maxEntries)}
	c.lru.OnEvicted = func(key lru.Key, value interface{}) {
		if r, ok := value.(*volume.Region); ok {
			log.Printf("region cache: evicted %+v (%s)", key, humanize.Bytes(uint64(r.Bytes())))
		}
	}
	return c
}

// Get returns the cached region for key, if present.
func (c *Cache) Get(k Key) (*volume.Region, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Get(k)
	if !ok {
		return nil, false
	}
	return v.(*volume.Region), true
}

// Add inserts a region, evicting the oldest entry if the cache is full.
func (c *Cache) Add(k Key, r *volume.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(k, r)
}

// Len returns the number of cached regions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear drops every cached region.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}
