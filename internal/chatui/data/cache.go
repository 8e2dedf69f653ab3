package data

import (
	"container/list"
	"sync"
	"time"

	"github.com/tOgg1/chatroom/internal/models"
)

// profileCache is a TTL-bounded LRU of resolved profiles. Misses and errors
// are never cached.
type profileCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List
	entries  map[string]*list.Element
	now      func() time.Time
}

type profileCacheEntry struct {
	key     string
	expires time.Time
	profile models.Profile
}

func newProfileCache(ttl time.Duration, capacity int) *profileCache {
	capacity = orInt(capacity, defaultProfileCacheSize)
	return &profileCache{
		ttl:      orDuration(ttl, defaultProfileCacheTTL),
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

func (c *profileCache) get(userID string) (models.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[userID]
	if !ok {
		return models.Profile{}, false
	}
	entry := elem.Value.(*profileCacheEntry)
	if !c.now().Before(entry.expires) {
		c.order.Remove(elem)
		delete(c.entries, userID)
		return models.Profile{}, false
	}
	c.order.MoveToFront(elem)
	return entry.profile, true
}

func (c *profileCache) put(profile models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if elem, ok := c.entries[profile.ID]; ok {
		entry := elem.Value.(*profileCacheEntry)
		entry.expires = expires
		entry.profile = profile
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&profileCacheEntry{key: profile.ID, expires: expires, profile: profile})
	c.entries[profile.ID] = elem

	for c.order.Len() > c.capacity {
		last := c.order.Back()
		if last == nil {
			break
		}
		c.order.Remove(last)
		delete(c.entries, last.Value.(*profileCacheEntry).key)
	}
}

func (c *profileCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
