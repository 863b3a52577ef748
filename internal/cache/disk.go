package cache

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskCache implements persistent disk-based caching, one JSON file per
// image identifier.
type DiskCache struct {
	dir string
}

// NewDiskCache creates a new disk cache rooted at dir.
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir}
}

// Get retrieves a value from the disk cache.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value in the disk cache.
func (c *DiskCache) Set(key string, value []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path(key), value, 0644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes a value from the disk cache.
func (c *DiskCache) Delete(key string) error {
	return os.Remove(c.path(key))
}

// Clear removes all cached files.
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
