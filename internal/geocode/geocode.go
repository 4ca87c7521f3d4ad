// Package geocode resolves a map coordinate into the place-name
// string used by the discovery filters. Lookup failures are never
// fatal: the raw coordinate becomes the label instead.
package geocode

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/example/ride-share/internal/models"
	"github.com/example/ride-share/internal/observability"
)

// Place is the component record a reverse lookup yields. Any field
// may be empty.
type Place struct {
	City    string
	Region  string
	Country string
}

func (p Place) empty() bool {
	return p.City == "" && p.Region == "" && p.Country == ""
}

// Resolver performs a reverse geocode lookup.
type Resolver interface {
	Reverse(ctx context.Context, c models.Coord) (Place, error)
}

// Label joins the non-empty place components. An all-empty place
// yields "".
func Label(p Place) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.Region, p.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// FallbackLabel renders the coordinate at fixed precision, e.g.
// "(12.3456, 65.4321)".
func FallbackLabel(c models.Coord) string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Lat, c.Lon)
}

// Service resolves coordinates through an optional resolver and an
// in-memory result cache. A nil resolver always falls back.
type Service struct {
	Resolver Resolver
	Cache    *Cache
}

// ResolveLabel returns the filter string for a tapped coordinate.
// The coordinate fallback guarantees the result is never empty.
func (s *Service) ResolveLabel(ctx context.Context, c models.Coord) string {
	if s.Cache != nil {
		if v, ok := s.Cache.Get(c); ok {
			return v
		}
	}

	label := ""
	if s.Resolver != nil {
		if p, err := s.Resolver.Reverse(ctx, c); err == nil {
			label = Label(p)
		}
	}
	if label == "" {
		observability.GeocodeFallbacks.Inc()
		return FallbackLabel(c)
	}

	if s.Cache != nil {
		s.Cache.Set(c, label)
	}
	return label
}

// Cache is a tiny in-memory cache for reverse lookups keyed by
// coordinate.
type Cache struct {
	mu    sync.RWMutex
	store map[string]cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	v  string
	ts time.Time
}

// NewCache creates a cache with the provided TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{store: make(map[string]cacheEntry), ttl: ttl}
}

func keyFor(c models.Coord) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Get returns the cached label and true if present and not expired.
func (c *Cache) Get(coord models.Coord) (string, bool) {
	k := keyFor(coord)
	c.mu.RLock()
	e, ok := c.store[k]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if time.Since(e.ts) > c.ttl {
		c.mu.Lock()
		delete(c.store, k)
		c.mu.Unlock()
		return "", false
	}
	return e.v, true
}

// Set stores a label in the cache.
func (c *Cache) Set(coord models.Coord, v string) {
	k := keyFor(coord)
	c.mu.Lock()
	c.store[k] = cacheEntry{v: v, ts: time.Now()}
	c.mu.Unlock()
}
