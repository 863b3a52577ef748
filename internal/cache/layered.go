package cache

// LayeredCache is a two-layer cache (memory + disk). Disk carries entries
// across runs; memory avoids re-reading files within a run.
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a new layered cache backed by diskDir.
func NewLayeredCache(diskDir string) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(),
		disk:   NewDiskCache(diskDir),
	}
}

// Get checks memory first, then disk, promoting disk hits to memory.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val)
		return val, true
	}
	return nil, false
}

// Set stores a value in both layers.
func (c *LayeredCache) Set(key string, value []byte) error {
	if err := c.memory.Set(key, value); err != nil {
		return err
	}
	return c.disk.Set(key, value)
}

// Delete removes a value from both layers.
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear removes all values from both layers.
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
