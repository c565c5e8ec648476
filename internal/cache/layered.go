package cache

import "time"

// LayeredCache implements a multi-layer cache (memory + disk)
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// Get retrieves an entry (checks memory first, then disk)
func (c *LayeredCache) Get(key string) (Entry, bool) {
	if entry, found := c.memory.Get(key); found {
		return entry, true
	}

	if entry, found := c.disk.Get(key); found {
		// Promote to memory cache
		_ = c.memory.Set(key, entry, 0)
		return entry, true
	}

	return Entry{}, false
}

// Set stores an entry in both layers
func (c *LayeredCache) Set(key string, entry Entry, ttl time.Duration) error {
	if err := c.memory.Set(key, entry, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, entry, ttl)
}

// Delete removes an entry from both layers
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear removes all entries from both layers
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
