// Package cache implements the per-client time-window response cache
// described in spec §4.B: a generic text-keyed map with monotonic
// time-of-entry, used by the G2 transport to avoid redundant network I/O
// within a configured window.
package cache

import (
	"sync"
	"time"
)

// Clock abstracts monotonic time reads for deterministic testing, mirroring
// the Clock abstraction used by internal/retry.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// entry pairs a cached value with its monotonic creation time.
type entry struct {
	value     any
	createdAt time.Time
}

// Cache is a single-threaded-per-client, window-bounded cache. The client
// that owns it is expected to be driven from one cooperative execution
// context (per spec §5); the embedded mutex exists only to make the type
// safe to share across goroutines when an embedder chooses to, not because
// concurrent contention is expected.
type Cache struct {
	mu     sync.Mutex
	window time.Duration
	clock  Clock
	data   map[string]entry
}

// New constructs a Cache with the given window. window == 0 disables the
// cache: Get always misses and Put is a no-op, per spec §4.B.
func New(window time.Duration) *Cache {
	return &Cache{window: window, clock: realClock{}, data: make(map[string]entry)}
}

// WithClock overrides the clock, for deterministic tests.
func (c *Cache) WithClock(clock Clock) *Cache {
	if clock != nil {
		c.clock = clock
	}
	return c
}

// Get returns the cached value and true iff an entry exists and
// now-createdAt <= window. A disabled cache (window == 0) always misses.
func (c *Cache) Get(key string) (any, bool) {
	if c.window <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.createdAt) > c.window {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key with created_at = now. A disabled cache
// (window == 0) is a no-op: failed upstream operations must never call
// Put, so Put has no failure path of its own.
func (c *Cache) Put(key string, value any) {
	if c.window <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{value: value, createdAt: c.clock.Now()}
}

// Clear drops every entry. Used by write operations (relay, priority,
// simulation overrides), which must invalidate the entire cache per
// spec §4.D.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]entry)
}

// Enabled reports whether this cache has a positive window.
func (c *Cache) Enabled() bool { return c.window > 0 }
