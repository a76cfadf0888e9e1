package apconst

import (
	"sort"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes named values with compute-once-per-name semantics, so many
// goroutines may ask for the same name while it is being computed.
// Stored values are shared; callers must treat them as read-only.
type Cache struct {
	mu    sync.RWMutex
	vals  map[string]*Real
	group singleflight.Group

	hits     *atomic.Int64
	computes *atomic.Int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries  int
	Hits     int64
	Computes int64
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		vals:     make(map[string]*Real),
		hits:     atomic.NewInt64(0),
		computes: atomic.NewInt64(0),
	}
}

// Get returns the value stored under name, calling compute at most once per
// name across concurrent callers. Failures are not stored.
func (c *Cache) Get(name string, compute func() (*Real, error)) (*Real, error) {
	if v, ok := c.lookup(name); ok {
		c.hits.Inc()
		return v, nil
	}
	out, err, _ := c.group.Do(name, func() (interface{}, error) {
		if v, ok := c.lookup(name); ok {
			return v, nil
		}
		c.computes.Inc()
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.vals[name] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*Real), nil
}

func (c *Cache) lookup(name string) (*Real, bool) {
	c.mu.RLock()
	v, ok := c.vals[name]
	c.mu.RUnlock()
	return v, ok
}

// Names returns the cached names in sorted order.
func (c *Cache) Names() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.vals))
	for k := range c.vals {
		out = append(out, k)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Stats reads the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.vals)
	c.mu.RUnlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Computes: c.computes.Load()}
}
