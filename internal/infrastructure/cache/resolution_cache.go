package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"prinsight.ai/cli/internal/application/ports"
	configdomain "prinsight.ai/cli/internal/core/domain/config"
)

// Defaults for NewResolutionCache
const (
	DefaultSize = 256
	DefaultTTL  = 10 * time.Minute
)

type entry struct {
	value    ports.CachedResolution
	storedAt time.Time
}

// ResolutionCache is an in-memory LRU of merge results. Entries expire after
// ttl. Values are copied on the way in and out so callers never share state.
type ResolutionCache struct {
	cache *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time
}

var _ ports.ResolutionCache = (*ResolutionCache)(nil)

// NewResolutionCache creates a cache holding at most size entries
func NewResolutionCache(size int, ttl time.Duration) *ResolutionCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// size is positive, the only failure mode of lru.New
	c, _ := lru.New[string, entry](size)
	return &ResolutionCache{cache: c, ttl: ttl, now: time.Now}
}

func (c *ResolutionCache) Get(key string) (ports.CachedResolution, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		return ports.CachedResolution{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.cache.Remove(key)
		return ports.CachedResolution{}, false
	}
	return copyResolution(e.value), true
}

func (c *ResolutionCache) Add(key string, value ports.CachedResolution) {
	c.cache.Add(key, entry{value: copyResolution(value), storedAt: c.now()})
}

func (c *ResolutionCache) Len() int { return c.cache.Len() }

// Purge drops every entry
func (c *ResolutionCache) Purge() { c.cache.Purge() }

func copyResolution(v ports.CachedResolution) ports.CachedResolution {
	out := ports.CachedResolution{
		Metadata: v.Metadata.Clone(),
		Warnings: append([]configdomain.Warning(nil), v.Warnings...),
	}
	if v.Config != nil {
		out.Config = v.Config.Clone()
	}
	return out
}
