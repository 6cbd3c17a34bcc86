package moonrise

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

type cachedDay struct {
	eph DayEphemeris
	err error
}

// dayCache memoizes primary engine results for the lifetime of one scan so the
// next-sunrise lookup for day d reuses the computation done for day d+1.
type dayCache struct {
	mu    sync.Mutex
	items map[string]cachedDay
	group singleflight.Group
}

func newDayCache() *dayCache {
	return &dayCache{items: make(map[string]cachedDay)}
}

func (c *dayCache) get(key string, compute func() (DayEphemeris, error)) (DayEphemeris, error) {
	c.mu.Lock()
	if hit, ok := c.items[key]; ok {
		c.mu.Unlock()
		return hit.eph, hit.err
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if hit, ok := c.items[key]; ok {
			c.mu.Unlock()
			return hit.eph, hit.err
		}
		c.mu.Unlock()

		eph, err := compute()
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.mu.Lock()
			c.items[key] = cachedDay{eph: eph, err: err}
			c.mu.Unlock()
		}
		return eph, err
	})
	eph, _ := v.(DayEphemeris)
	return eph, err
}

func (c *dayCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
