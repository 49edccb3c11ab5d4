package location

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// NameCache maps rounded coordinate keys to resolved place names for the
// process lifetime. It is bounded: least-recently-used entries are evicted
// at capacity.
type NameCache struct {
	cache *lru.Cache[string, string]
}

// DefaultNameCacheSize bounds the cache when no size is configured.
const DefaultNameCacheSize = 512

// NewNameCache creates a bounded name cache. A non-positive size falls back
// to the default.
func NewNameCache(size int) *NameCache {
	if size <= 0 {
		size = DefaultNameCacheSize
	}
	c, err := lru.New[string, string](size)
	if err != nil {
		// lru.New only fails on non-positive size, which is guarded above.
		panic(err)
	}
	return &NameCache{cache: c}
}

func (c *NameCache) Get(key string) (string, bool) {
	return c.cache.Get(key)
}

func (c *NameCache) Add(key, name string) {
	c.cache.Add(key, name)
}

func (c *NameCache) Len() int {
	return c.cache.Len()
}
