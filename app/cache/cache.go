package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cloudpulse/gcp-pulse/app/feed"
)

// Cache is the single process-wide slot holding the last aggregated
// payload. Two states: fresh (age < TTL) and stale. Writes replace the
// whole entry; there is no partial invalidation. Concurrent stale readers
// are coalesced into one upstream refresh via singleflight.
type Cache struct {
	mu        sync.RWMutex
	payload   *feed.Payload
	fetchedAt time.Time
	ttl       time.Duration
	group     singleflight.Group
	now       func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached payload if it is still fresh.
func (c *Cache) Get() (*feed.Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.payload == nil || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return c.payload, true
}

// GetOrRefresh returns the cached payload when fresh, otherwise runs
// refresh and stores the result. A failed refresh leaves the previous
// entry untouched.
func (c *Cache) GetOrRefresh(ctx context.Context, refresh func(ctx context.Context) (*feed.Payload, error)) (*feed.Payload, error) {
	if payload, ok := c.Get(); ok {
		return payload, nil
	}

	result, err, _ := c.group.Do("feed", func() (interface{}, error) {
		// A prior flight may have refreshed the slot while this caller
		// was queued behind it.
		if payload, ok := c.Get(); ok {
			return payload, nil
		}

		payload, err := refresh(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.payload = payload
		c.fetchedAt = c.now()
		c.mu.Unlock()

		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*feed.Payload), nil
}

// Age returns how old the cached entry is, or zero when the cache is
// empty.
func (c *Cache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.payload == nil {
		return 0
	}
	return c.now().Sub(c.fetchedAt)
}
