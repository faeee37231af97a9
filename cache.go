package vlist

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheStats is a snapshot of geometry cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
	Capacity  int
}

// ExtentCache remembers measured item extents keyed by item index, so a
// dynamically sized item is measured once and reused across scroll frames.
// It holds at most Capacity entries and evicts the least recently used.
//
// Like the pool, the cache is owned by one list and is not safe for
// concurrent use.
type ExtentCache struct {
	entries  *lru.Cache[int, int]
	capacity int

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewExtentCache creates a cache holding up to capacity extents.
func NewExtentCache(capacity int) (*ExtentCache, error) {
	if capacity < 1 {
		return nil, InvalidConfig(fmt.Sprintf("cache capacity must be positive, got %d", capacity))
	}
	entries, err := lru.New[int, int](capacity)
	if err != nil {
		return nil, Wrap(KindResource, "extent cache", err)
	}
	return &ExtentCache{entries: entries, capacity: capacity}, nil
}

// Get returns the cached extent for index.
func (c *ExtentCache) Get(index int) (int, bool) {
	extent, ok := c.entries.Get(index)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return extent, ok
}

// Put stores a measured extent.
func (c *ExtentCache) Put(index, extent int) error {
	if index < 0 {
		return CacheError("put", fmt.Sprintf("negative index %d", index))
	}
	if extent <= 0 {
		return CacheError("put", fmt.Sprintf("non-positive extent %d for item %d", extent, index))
	}
	if c.entries.Add(index, extent) {
		c.evictions++
	}
	return nil
}

// Invalidate forgets the extent of one item.
func (c *ExtentCache) Invalidate(index int) {
	c.entries.Remove(index)
}

// InvalidateFrom forgets the extents of every item at or after index. Use it
// when items are inserted or removed, which shifts later indices.
func (c *ExtentCache) InvalidateFrom(index int) {
	for _, k := range c.entries.Keys() {
		if k >= index {
			c.entries.Remove(k)
		}
	}
}

// Purge forgets every extent.
func (c *ExtentCache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached extents.
func (c *ExtentCache) Len() int {
	return c.entries.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *ExtentCache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Len:       c.entries.Len(),
		Capacity:  c.capacity,
	}
}
