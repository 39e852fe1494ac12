// Package cache implements the tag-keyed store used to memoize collection
// metadata and document reads. It wraps github.com/patrickmn/go-cache (a
// plain TTL key/value store with no tag concept) with a tag -> key-set index
// so that any write can invalidate every cache entry carrying a given tag.
package cache

import (
	"sync"
	"time"

	"github.com/forbearing/docdb/logger"
	gocache "github.com/patrickmn/go-cache"
)

// Cache is a tag-keyed, best-effort read-through cache. Cache failures are
// never fatal: callers should treat a failed Set/Get as a miss and fall
// back to the adapter, logging at warn level.
type Cache struct {
	store *gocache.Cache
	log   logger.Logger

	mu   sync.Mutex
	tags map[string]map[string]struct{} // tag -> set of keys
}

// New returns a Cache with the given default expiration and cleanup
// interval, matching go-cache's own constructor shape.
func New(defaultExpiration, cleanupInterval time.Duration, log logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		store: gocache.New(defaultExpiration, cleanupInterval),
		log:   log,
		tags:  make(map[string]map[string]struct{}),
	}
}

// Set stores value under key with the given ttl, recording key against
// every tag so a later FlushByTags can evict it.
func (c *Cache) Set(key string, value any, ttl time.Duration, tags ...string) {
	c.store.Set(key, value, ttl)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		set, ok := c.tags[tag]
		if !ok {
			set = make(map[string]struct{})
			c.tags[tag] = set
		}
		set[key] = struct{}{}
	}
}

// Get returns the value stored under key, if present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// FlushByTags evicts every key recorded against any of tags.
func (c *Cache) FlushByTags(tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		for key := range c.tags[tag] {
			c.store.Delete(key)
		}
		delete(c.tags, tag)
	}
}

// SafeGet is a best-effort Get: a panic recovered from the underlying store
// is logged and treated as a miss, per the "cache failures are logged, not
// fatal" propagation rule.
func (c *Cache) SafeGet(key string) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warnw("cache get panicked, treating as miss", "key", key, "recover", r)
			value, ok = nil, false
		}
	}()
	return c.Get(key)
}

// SafeSet is a best-effort Set: a panic recovered from the underlying store
// is logged and swallowed.
func (c *Cache) SafeSet(key string, value any, ttl time.Duration, tags ...string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Warnw("cache set panicked, dropping", "key", key, "recover", r)
		}
	}()
	c.Set(key, value, ttl, tags...)
}
