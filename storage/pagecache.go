package storage

import (
	"sync"
	"time"
)

type cachedPage struct {
	body       string
	expiration time.Time
}

// pageCache keeps recently served campaign pages in memory. Public campaign
// links can be hit by every recipient at once, so reads avoid the disk.
type pageCache struct {
	items map[string]*cachedPage
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

func newPageCache(ttl time.Duration) *pageCache {
	return &pageCache{
		items: make(map[string]*cachedPage),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *pageCache) set(name, body string) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	c.items[name] = &cachedPage{body: body, expiration: c.now().Add(c.ttl)}
}

func (c *pageCache) get(name string) (string, bool) {
	c.mu.RLock()
	item, exists := c.items[name]
	c.mu.RUnlock()

	if !exists {
		return "", false
	}
	if c.now().After(item.expiration) {
		c.delete(name)
		return "", false
	}
	return item.body, true
}

func (c *pageCache) delete(name string) {
	c.mu.Lock()
	delete(c.items, name)
	c.mu.Unlock()
}

func (c *pageCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// cleanupLocked drops expired pages; callers hold mu
func (c *pageCache) cleanupLocked() {
	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
}
