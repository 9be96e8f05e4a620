package texture

import (
	"image"
	"sync"
)

// Resolver resolves a texture name to a decoded image.
type Resolver interface {
	Resolve(texName string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
	load  func(path string) (*image.NRGBA, error)
}

type cacheEntry struct {
	img *image.NRGBA
	err error // load failure, remembered so a bad file is read once
}

// NewCache creates a texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
		load:  Load,
	}
}

// Resolve loads and caches a texture by name. Returns nil if it is not
// indexed or failed to decode.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := c.load(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img, err: err}
	return img
}

// Err returns the load error recorded for texName, if any.
func (c *Cache) Err(texName string) error {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, exists := c.items[path]; exists {
		return entry.err
	}
	return nil
}

// Len returns the number of cached entries, failures included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
