package internal

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRouteCacheSize is the default route match cache capacity.
const DefaultRouteCacheSize = 1000

// cacheEntry remembers a previously resolved route and its extracted
// parameters so hot paths skip re-matching. Because the cache key
// contains the full pathname, the parameters are identical for every
// request that hits the entry.
type cacheEntry struct {
	lastUsed time.Time
	route    *Route
	params   Params
	key      string
	hits     uint64
}

// CacheStats is a point-in-time snapshot of route match cache counters.
type CacheStats struct {
	Size    int
	Hits    uint64
	Misses  uint64
	HitRate float64
}

// matchCache is a bounded LRU cache over route match results, keyed by
// "<METHOD>:<pathname>" (query strings excluded). A hash map provides
// O(1) lookup and a doubly-linked list provides O(1) recency ordering:
// most recently used entries sit at the front, eviction takes the back.
//
// The cache is process-wide shared state; a mutex keeps get-then-promote
// and evict-then-insert atomic under concurrent requests. Entries are
// never invalidated by later route registration: registration is assumed
// to complete before traffic begins.
type matchCache struct {
	items    map[string]*list.Element
	eviction *list.List
	group    singleflight.Group
	capacity int
	hits     uint64
	misses   uint64
	mu       sync.Mutex
}

func newMatchCache(capacity int) *matchCache {
	if capacity <= 0 {
		capacity = DefaultRouteCacheSize
	}
	return &matchCache{
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		capacity: capacity,
	}
}

// get returns the entry for the key, promoting it to most recently used
// and counting a hit. A miss counts and returns nil.
func (c *matchCache) get(key string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil
	}

	c.eviction.MoveToFront(elem)
	c.hits++

	e := elem.Value.(*cacheEntry)
	e.hits++
	e.lastUsed = time.Now()
	return e
}

// set stores a resolved match, evicting the least recently used entry
// when at capacity.
func (c *matchCache) set(key string, route *Route, params Params) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*cacheEntry)
		e.route = route
		e.params = params
		e.lastUsed = time.Now()
		c.eviction.MoveToFront(elem)
		return
	}

	if c.eviction.Len() >= c.capacity {
		oldest := c.eviction.Back()
		if oldest != nil {
			c.eviction.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}

	e := &cacheEntry{key: key, route: route, params: params, lastUsed: time.Now()}
	c.items[key] = c.eviction.PushFront(e)
}

// resolve answers a match through the cache, falling back to the route
// table on a miss. Concurrent misses for the same key are deduplicated
// with singleflight so the table is walked once. Unmatched paths are not
// cached; they stay misses.
func (c *matchCache) resolve(table *routeTable, method, path string) (*Route, Params, error) {
	key := method + ":" + path

	if e := c.get(key); e != nil {
		return e.route, e.params, nil
	}

	type result struct {
		route  *Route
		params Params
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		route, params, err := table.match(method, path)
		if err != nil {
			return nil, err
		}
		c.set(key, route, params)
		return result{route: route, params: params}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	r := v.(result)
	return r.route, r.params, nil
}

// clear drops all entries and resets the hit/miss counters.
func (c *matchCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.hits = 0
	c.misses = 0
}

// stats snapshots the cache counters. The hit rate denominator is
// floored at 1 so an untouched cache reports 0 instead of NaN.
func (c *matchCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		total = 1
	}

	return CacheStats{
		Size:    len(c.items),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: float64(c.hits) / float64(total),
	}
}
