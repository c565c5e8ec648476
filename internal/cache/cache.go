package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/remitflat/internal/model"
)

// Entry is the cached outcome of extracting one document
type Entry struct {
	Path     model.ExtractionPath `json:"path"`
	Claims   int                  `json:"claims"`
	Rows     []model.Row          `json:"rows"`
	Warnings []string             `json:"warnings,omitempty"`
}

// Cache defines the interface for caching extraction results
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey generates a cache key from raw document bytes
func CacheKey(data []byte) string {
	hash := sha256.Sum256(data)
	return "remitflat:v1:" + hex.EncodeToString(hash[:])
}
