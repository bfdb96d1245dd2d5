package api

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type (
	// CacheOption configures a resultCache.
	CacheOption[K comparable, V any] func(*cacheConfig[K, V])
	cacheItem[V any]                 struct {
		data    V
		expires time.Time
	}
	cacheConfig[K comparable, V any] struct {
		expiration time.Duration
		now        func() time.Time
		l          logrus.FieldLogger
	}
	// resultCache memoizes loaded values until they expire. The lock is not
	// held while loading, so concurrent misses on one key may load twice.
	resultCache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]cacheItem[V]
		config *cacheConfig[K, V]
	}
)

// WithExpiration sets how long an entry stays valid. Zero or less disables caching.
func WithExpiration[K comparable, V any](expiration time.Duration) CacheOption[K, V] {
	return func(c *cacheConfig[K, V]) {
		c.expiration = expiration
	}
}

// WithClock replaces time.Now, for tests.
func WithClock[K comparable, V any](now func() time.Time) CacheOption[K, V] {
	return func(c *cacheConfig[K, V]) {
		c.now = now
	}
}

// WithCacheLogger sets the logger for cache debug output.
func WithCacheLogger[K comparable, V any](l logrus.FieldLogger) CacheOption[K, V] {
	return func(c *cacheConfig[K, V]) {
		c.l = l
	}
}

func newResultCache[K comparable, V any](opts ...CacheOption[K, V]) *resultCache[K, V] {
	c := &cacheConfig[K, V]{
		expiration: 5 * time.Minute,
		now:        time.Now,
		l:          logrus.WithField("component", "cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &resultCache[K, V]{
		items:  make(map[K]cacheItem[V]),
		config: c,
	}
}

// Get returns the cached value for key or calls load and stores its result.
// hit reports whether the value came from the cache. Errors are not cached.
func (c *resultCache[K, V]) Get(key K, load func() (V, error)) (value V, hit bool, err error) {
	if c.config.expiration <= 0 {
		value, err = load()
		return value, false, err
	}
	c.mutex.Lock()
	if item, ok := c.items[key]; ok {
		if c.config.now().Before(item.expires) {
			c.mutex.Unlock()
			return item.data, true, nil
		}
		delete(c.items, key)
	}
	c.mutex.Unlock()

	value, err = load()
	if err != nil {
		return value, false, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.config.now()
	for k, item := range c.items {
		if !now.Before(item.expires) {
			delete(c.items, k)
		}
	}
	c.items[key] = cacheItem[V]{data: value, expires: now.Add(c.config.expiration)}
	c.config.l.WithField("entries", len(c.items)).Debug("cache stored")
	return value, false, nil
}

// Invalidate drops every entry.
func (c *resultCache[K, V]) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[K]cacheItem[V])
}

// Len returns the number of stored entries, expired or not.
func (c *resultCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}
