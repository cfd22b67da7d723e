package griddata

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/shark-hsi-service/internal/domain"
	"github.com/couchcryptid/shark-hsi-service/internal/engine"
	"github.com/couchcryptid/shark-hsi-service/internal/grid"
	"github.com/couchcryptid/shark-hsi-service/internal/observability"
)

const bathymetryKey = "bathymetry"

// CachedSource wraps a GridSource with an in-memory LRU cache keyed by
// variable and day. Grids are immutable, so cached values are shared.
type CachedSource struct {
	inner   domain.GridSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a grid source.
func NewCachedSource(inner domain.GridSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) FetchGrid(ctx context.Context, v engine.Variable, day time.Time) (*grid.Grid, error) {
	return c.lookup(string(v)+"|"+grid.Day(day), func() (*grid.Grid, error) {
		return c.inner.FetchGrid(ctx, v, day)
	})
}

func (c *CachedSource) FetchBathymetry(ctx context.Context) (*grid.Grid, error) {
	return c.lookup(bathymetryKey, func() (*grid.Grid, error) {
		return c.inner.FetchBathymetry(ctx)
	})
}

// lookup only caches successful fetches so a grid published after a
// not-found response is picked up on the next request.
func (c *CachedSource) lookup(key string, fetch func() (*grid.Grid, error)) (*grid.Grid, error) {
	if g, ok := c.cache.get(key); ok {
		c.metrics.GridCache.WithLabelValues("hit").Inc()
		return g, nil
	}
	c.metrics.GridCache.WithLabelValues("miss").Inc()
	g, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.put(key, g)
	return g, nil
}

// lruCache is a simple thread-safe LRU cache of grids.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *grid.Grid
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*grid.Grid, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *grid.Grid) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
