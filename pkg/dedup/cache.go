// Package dedup suppresses webhook echoes. Every change the replication
// engine applies is recorded here; when the provider's webhook for that
// same change arrives, the match tells the processor to acknowledge
// without propagating, which is what breaks the replication loop.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"labelsync/pkg/labels"
)

type key struct {
	repo string
	name string
	hash string
}

// Cache is an in-memory TTL store of recently applied label changes.
// Entries expire after the TTL so an echo that never arrives cannot mask a
// later genuine change. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[key]time.Time
	now     func() time.Time
}

// Option adjusts cache construction.
type Option func(*Cache)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache whose entries live for ttl.
func NewCache(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		entries: make(map[key]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ContentHash fingerprints a label state on a repository. Deletions hash
// with empty color and description. The NUL separator keeps adjacent
// fields from colliding.
func ContentHash(repo labels.Repository, labelName, color, description string) string {
	h := sha256.New()
	for i, part := range []string{repo.String(), labelName, labels.NormalizeColor(color), description} {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Record stores an applied change. Re-recording refreshes the expiry.
func (c *Cache) Record(repo labels.Repository, labelName, contentHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key{repo: repo.String(), name: labelName, hash: contentHash}] = c.now().Add(c.ttl)
}

// Match reports whether a live entry matches the change, consuming it on
// match. Each propagated apply produces exactly one echo, so consuming
// keeps stale entries from masking the next genuine edit of the same
// label.
func (c *Cache) Match(repo labels.Repository, labelName, contentHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{repo: repo.String(), name: labelName, hash: contentHash}
	expiry, ok := c.entries[k]
	if !ok {
		return false
	}
	delete(c.entries, k)
	return c.now().Before(expiry)
}

// PurgeExpired drops dead entries and returns how many were removed.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, expiry := range c.entries {
		if !now.Before(expiry) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Janitor purges expired entries every interval until the context ends.
func (c *Cache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.PurgeExpired()
		}
	}
}
