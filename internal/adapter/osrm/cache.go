package osrm

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	"github.com/couchcryptid/park-tour-etl/internal/observability"
)

// CachedProvider wraps a RouteProvider with an in-memory LRU cache keyed
// by the directed endpoint pair. Park coordinates repeat across runs and
// subcluster passes, so caching avoids duplicate calls to the routing
// service.
type CachedProvider struct {
	inner   domain.RouteProvider
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a routing provider.
func NewCachedProvider(inner domain.RouteProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) Route(ctx context.Context, from, to domain.Geo) (domain.RoutePath, error) {
	key := fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", from.Lat, from.Lon, to.Lat, to.Lon)
	if path, ok := c.cache.get(key); ok {
		c.metrics.RouteCache.WithLabelValues("hit").Inc()
		return path, nil
	}
	c.metrics.RouteCache.WithLabelValues("miss").Inc()

	path, err := c.inner.Route(ctx, from, to)
	if err != nil {
		return path, err
	}
	// Only cache non-empty geometries so transient failures can be retried.
	if !path.Empty() {
		c.cache.put(key, path)
	}
	return path, nil
}

// lruCache is a simple thread-safe LRU cache for route paths.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.RoutePath
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.RoutePath, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RoutePath{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.RoutePath) {
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
