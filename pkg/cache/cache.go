// Package cache memoizes computed API responses between sync cycles.
package cache

import (
	"github.com/jellydator/ttlcache/v3"
)

// Cache holds a single computed value keyed by the freshness marker of
// the data it was derived from. Writing the read model changes the
// marker, so a sync cycle invalidates the slot implicitly: the next
// lookup under the new marker misses and the capacity-1 eviction drops
// the stale entry.
type Cache[V any] struct {
	inner *ttlcache.Cache[string, V]
}

// New returns an empty cache. Entries never expire by time; they are
// only displaced when the freshness marker moves.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		inner: ttlcache.New[string, V](
			ttlcache.WithCapacity[string, V](1),
			ttlcache.WithTTL[string, V](ttlcache.NoTTL),
			ttlcache.WithDisableTouchOnHit[string, V](),
		),
	}
}

// Get returns the cached value for the marker, if present.
func (c *Cache[V]) Get(marker string) (V, bool) {
	item := c.inner.Get(marker)
	if item == nil {
		var zero V
		return zero, false
	}
	return item.Value(), true
}

// Set stores the value under the marker, displacing any older entry.
func (c *Cache[V]) Set(marker string, value V) {
	c.inner.Set(marker, value, ttlcache.DefaultTTL)
}
