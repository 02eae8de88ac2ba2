// Package cache holds fetched manifests in memory with age-based
// freshness. A record is fresh while its age is within maxAge, stale up
// to twice maxAge, and evicted beyond that. Callers are expected to
// re-fetch on stale; whether a stale value is still usable as a fallback
// is the caller's policy.
package cache

import (
	"sync"
	"time"

	"github.com/rabit-sh/rabit/pkg/types"
)

type record struct {
	manifest  types.Manifest
	fetchedAt time.Time
	maxAge    time.Duration
}

// Cache is a per-URI manifest cache. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	records map[string]record

	// now is swappable for freshness tests.
	now func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		records: make(map[string]record),
		now:     time.Now,
	}
}

// Set stores m under uri. A non-positive maxAgeSeconds falls back to the
// manifest default. Existing records are replaced whole, never partially
// updated.
func (c *Cache) Set(uri string, m types.Manifest, maxAgeSeconds int) {
	if maxAgeSeconds <= 0 {
		maxAgeSeconds = types.DefaultMaxAgeSeconds
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[uri] = record{
		manifest:  m,
		fetchedAt: c.now(),
		maxAge:    time.Duration(maxAgeSeconds) * time.Second,
	}
}

// Get returns the cached manifest for uri. stale reports that the record
// is past maxAge but within the 2x staleness window. Records beyond the
// staleness window are evicted and reported absent.
func (c *Cache) Get(uri string) (m types.Manifest, stale bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[uri]
	if !ok {
		return nil, false, false
	}
	age := c.now().Sub(rec.fetchedAt)
	switch {
	case age <= rec.maxAge:
		return rec.manifest, false, true
	case age <= 2*rec.maxAge:
		return rec.manifest, true, true
	default:
		delete(c.records, uri)
		return nil, false, false
	}
}

// Len reports the number of live records, evicting any that have aged
// out of the staleness window.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for uri, rec := range c.records {
		if c.now().Sub(rec.fetchedAt) > 2*rec.maxAge {
			delete(c.records, uri)
		}
	}
	return len(c.records)
}

// SetClock replaces the cache's time source. Tests use this to step
// through the freshness windows without sleeping.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
