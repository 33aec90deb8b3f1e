package cache

import (
	"fmt"
	"testing"
	"time"

	"AutoQFM/model"

	"github.com/stretchr/testify/require"
)

type tickClock struct {
	now time.Time
}

func newTickClock() *tickClock {
	return &tickClock{now: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)}
}

func (c *tickClock) Now() time.Time { return c.now }

func (c *tickClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestQueryKeyIsGenreOrderIndependent(t *testing.T) {
	a := QueryKey("Nova", []string{"shoegaze", "dream pop"}, model.DiversityMedium)
	b := QueryKey("nova", []string{"dream pop", "shoegaze"}, model.DiversityMedium)
	c := QueryKey("Nova", []string{"dream pop", "shoegaze"}, model.DiversityHigh)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestQueryCacheTTLBoundary(t *testing.T) {
	clock := newTickClock()
	c := NewQueryCache(200, 6*time.Hour, clock.Now)

	c.Put("k", []string{"q1"})

	clock.advance(6*time.Hour - time.Millisecond)
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []string{"q1"}, got)

	clock.advance(2 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, c.Len())
}

func TestQueryCacheEvictsOldestFirst(t *testing.T) {
	clock := newTickClock()
	c := NewQueryCache(3, 6*time.Hour, clock.Now)

	for i := 0; i < 3; i++ {
		c.Put(fmt.Sprintf("k%d", i), []string{"q"})
		clock.advance(time.Minute)
	}

	c.Put("k3", []string{"q"})

	require.Equal(t, 3, c.Len())
	_, ok := c.Get("k0")
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get("k1")
	require.True(t, ok)
	_, ok = c.Get("k3")
	require.True(t, ok)
}

func TestQueryCacheOverwriteDoesNotEvict(t *testing.T) {
	clock := newTickClock()
	c := NewQueryCache(2, 6*time.Hour, clock.Now)

	c.Put("k0", []string{"old"})
	clock.advance(time.Minute)
	c.Put("k1", []string{"q"})
	clock.advance(time.Minute)
	c.Put("k0", []string{"new"})

	require.Equal(t, 2, c.Len())
	got, ok := c.Get("k0")
	require.True(t, ok)
	require.Equal(t, []string{"new"}, got)
}

func TestQueryCacheTracksHits(t *testing.T) {
	c := NewQueryCache(10, 6*time.Hour, nil)
	c.Put("k", []string{"q"})

	for i := 0; i < 3; i++ {
		_, ok := c.Get("k")
		require.True(t, ok)
	}

	entries, hits := c.Stats()
	require.Equal(t, 1, entries)
	require.Equal(t, 3, hits)
}
