package worker

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces out repeated work on the same key, e.g. rebuilding the
// workbook for a watched directory. Each key gets its own token bucket.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter allows one run per interval for each key, with the given burst
func NewLimiter(interval time.Duration, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	r := rate.Inf
	if interval > 0 {
		r = rate.Every(interval)
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until key may run again or ctx ends
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(normalizeKey(key)).Wait(ctx)
}

// Allow reports whether key may run now, consuming a token if so
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(normalizeKey(key)).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// SetInterval overrides the spacing for one key
func (l *Limiter) SetInterval(key string, interval time.Duration, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[normalizeKey(key)] = rate.NewLimiter(rate.Every(interval), burst)
}

// normalizeKey makes "dir", "dir/" and "./dir" share a bucket
func normalizeKey(key string) string {
	if key == "" {
		return "."
	}
	return filepath.Clean(key)
}
