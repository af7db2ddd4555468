package finance

import (
	"sync"
	"time"
)

// chartCache keeps rendered PNGs for a short time so repeated requests for the
// same analysis do not re-render.
type chartCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]chartCacheEntry
	now     func() time.Time
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{ttl: ttl, entries: map[string]chartCacheEntry{}, now: time.Now}
}

func (c *chartCache) get(key string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

func (c *chartCache) set(key string, img []byte) {
	if c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	// drop expired entries so keys that are never read again do not accumulate
	for k, e := range c.entries {
		if !now.Before(e.createdAt.Add(c.ttl)) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = chartCacheEntry{createdAt: now, image: img}
}
