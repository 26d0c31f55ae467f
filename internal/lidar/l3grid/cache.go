package l3grid

import (
	"container/list"
	"context"
	"sync"
)

// TileCache is a bounded LRU cache of tiles in front of a Source. It is owned
// by the caller and injected into processors, so that many lookups across a
// labelling run share one reader. Safe for concurrent use.
type TileCache struct {
	src      Source
	capacity int

	mu      sync.Mutex
	order   *list.List               // front = most recently used
	entries map[string]*list.Element // code -> element holding *cacheEntry

	hits, misses, evictions int64
}

type cacheEntry struct {
	code string
	tile *Tile
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Hits, Misses, Evictions int64
	Size                    int
}

// NewTileCache wraps src with an LRU cache holding at most capacity tiles.
// A capacity below 1 is treated as 1.
func NewTileCache(src Source, capacity int) *TileCache {
	if capacity < 1 {
		capacity = 1
	}
	return &TileCache{
		src:      src,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Tile implements Accessor using a background context.
func (c *TileCache) Tile(code string) (*Tile, error) {
	return c.TileContext(context.Background(), code)
}

// TileContext returns the cached tile for code, loading it from the source
// on a miss. Load errors (including ErrTileNotFound) are returned unchanged
// and are not cached.
func (c *TileCache) TileContext(ctx context.Context, code string) (*Tile, error) {
	c.mu.Lock()
	if el, ok := c.entries[code]; ok {
		c.order.MoveToFront(el)
		c.hits++
		t := el.Value.(*cacheEntry).tile
		c.mu.Unlock()
		return t, nil
	}
	c.misses++
	c.mu.Unlock()

	// Load outside the lock; concurrent misses for the same code may both
	// hit the source, and the last one wins.
	t, err := c.src.LoadTile(ctx, code)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[code]; ok {
		el.Value.(*cacheEntry).tile = t
		c.order.MoveToFront(el)
		return t, nil
	}
	c.entries[code] = c.order.PushFront(&cacheEntry{code: code, tile: t})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).code)
		c.evictions++
	}
	return t, nil
}

// Invalidate drops code from the cache.
func (c *TileCache) Invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[code]; ok {
		c.order.Remove(el)
		delete(c.entries, code)
	}
}

// Stats returns a snapshot of the cache counters.
func (c *TileCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      c.order.Len(),
	}
}

var _ Accessor = (*TileCache)(nil)
