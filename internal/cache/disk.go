package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/remitflat/internal/document"
	"github.com/ppiankov/remitflat/internal/model"
)

// DiskCache persists extraction results as one JSON file per key
type DiskCache struct {
	dir string
	ttl time.Duration
}

// NewDiskCache creates a new disk cache
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: ttl,
	}
}

// Rows stay raw so they can be decoded in document order
type cacheEntry struct {
	Path      model.ExtractionPath `json:"path"`
	Claims    int                  `json:"claims"`
	Rows      json.RawMessage      `json:"rows"`
	Warnings  []string             `json:"warnings,omitempty"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// Get retrieves an entry from the disk cache
func (c *DiskCache) Get(key string) (Entry, bool) {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	var stored cacheEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return Entry{}, false
	}

	// Check expiration
	if time.Now().After(stored.ExpiresAt) {
		_ = os.Remove(path)
		return Entry{}, false
	}

	rows, err := document.DecodeRows(stored.Rows)
	if err != nil {
		// Corrupt entry, drop it so the document is extracted again
		_ = os.Remove(path)
		return Entry{}, false
	}

	return Entry{Path: stored.Path, Claims: stored.Claims, Rows: rows, Warnings: stored.Warnings}, true
}

// Set stores an entry in the disk cache
func (c *DiskCache) Set(key string, entry Entry, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	rows := entry.Rows
	if rows == nil {
		rows = []model.Row{}
	}
	encoded, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	data, err := json.Marshal(cacheEntry{
		Path:      entry.Path,
		Claims:    entry.Claims,
		Rows:      encoded,
		Warnings:  entry.Warnings,
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file
	// Each writer gets its own temp file; two workers may store the same key
	tmp, err := os.CreateTemp(c.dir, ".entry-*.tmp")
	if err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}

	return nil
}

// Delete removes an entry from the disk cache
func (c *DiskCache) Delete(key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes all cached files
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// path generates the file path for a cache key
func (c *DiskCache) path(key string) string {
	// Keys carry a "remitflat:v1:" prefix; colons are not portable in file names
	return filepath.Join(c.dir, strings.ReplaceAll(key, ":", "_")+".cache")
}
