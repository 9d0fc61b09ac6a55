package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often MemoryCache drops expired entries.
const DefaultSweepInterval = time.Minute

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// MemoryCache is a process-local Cache. Entries expire lazily on read and
// are swept periodically. It has no capacity bound.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a MemoryCache and starts its sweeper.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	return newMemoryCache(sweepInterval, time.Now)
}

func newMemoryCache(sweepInterval time.Duration, now func() time.Time) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]memoryItem),
		now:   now,
		stop:  make(chan struct{}),
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	go c.sweepLoop(sweepInterval)
	return c
}

// Get returns the value for key if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if item.expired(c.now()) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

// Set stores a copy of value.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the sweeper.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		if item.expired(now) {
			delete(c.items, key)
		}
	}
}
