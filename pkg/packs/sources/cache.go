package sources

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long remote sources keep fetched manifests and
// components.
const DefaultTTL = 5 * time.Minute

// Cache is an instance-owned TTL cache. Concurrent lookups of the same key
// share one fetch.
type Cache struct {
	store *gocache.Cache
	group singleflight.Group
}

// NewCache creates a cache whose entries expire after ttl. A ttl of zero or
// less keeps entries until Clear.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		return &Cache{store: gocache.New(gocache.NoExpiration, 0)}
	}
	return &Cache{store: gocache.New(ttl, 2*ttl)}
}

// Get returns a cached value.
func (c *Cache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// GetOrFetch returns the cached value for key, calling fetch on a miss.
// Failed fetches are not cached. hit reports whether the value came from the
// cache.
func (c *Cache) GetOrFetch(key string, fetch func() (interface{}, error)) (value interface{}, hit bool, err error) {
	if v, ok := c.store.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, false, err
}

// Delete drops one entry.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
