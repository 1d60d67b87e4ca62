package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestGetMissWhenEmpty(t *testing.T) {
	c := New(time.Second)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestPutThenGetWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(time.Second).WithClock(clock)
	c.Put("k", 42)
	clock.advance(500 * time.Millisecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestGetExpiresAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(time.Second).WithClock(clock)
	c.Put("k", 42)
	clock.advance(1500 * time.Millisecond)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestZeroWindowDisablesCache(t *testing.T) {
	c := New(0)
	c.Put("k", 1)
	_, ok := c.Get("k")
	require.False(t, ok)
	require.False(t, c.Enabled())
}

func TestClearDropsAllEntries(t *testing.T) {
	c := New(time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()
	_, ok := c.Get("a")
	require.False(t, ok)
	_, ok = c.Get("b")
	require.False(t, ok)
}

func TestFailedUpstreamMustNotCallPut(t *testing.T) {
	// Documents the contract: Put is only ever called on success paths by
	// callers (g2 endpoints); the cache itself has no knowledge of failure,
	// it simply never refreshes an entry unless Put is invoked.
	c := New(time.Minute)
	_, ok := c.Get("never-put")
	require.False(t, ok)
}
