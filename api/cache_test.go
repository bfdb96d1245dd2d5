package api

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestResultCache_HitUntilExpiry(t *testing.T) {
	// GIVEN a cache with a one-minute expiry and a controllable clock
	clock := &fakeClock{now: time.Unix(1000, 0)}
	cache := newResultCache(
		WithExpiration[string, int](time.Minute),
		WithClock[string, int](clock.Now),
	)
	loads := 0
	load := func() (int, error) { loads++; return loads, nil }

	// WHEN the same key is requested repeatedly
	v, hit, err := cache.Get("k", load)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, hit)

	clock.now = clock.now.Add(59 * time.Second)
	v, hit, err = cache.Get("k", load)
	require.NoError(t, err)

	// THEN it is served from cache until the entry expires
	assert.Equal(t, 1, v)
	assert.True(t, hit)

	clock.now = clock.now.Add(2 * time.Second)
	v, hit, err = cache.Get("k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
}

func TestResultCache_ErrorsNotCached(t *testing.T) {
	cache := newResultCache[string, int]()
	boom := errors.New("boom")

	_, _, err := cache.Get("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())

	v, hit, err := cache.Get("k", func() (int, error) { return 5, nil })
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.False(t, hit)
}

func TestResultCache_Disabled(t *testing.T) {
	cache := newResultCache(WithExpiration[string, int](0))
	loads := 0
	for i := 0; i < 3; i++ {
		_, hit, err := cache.Get("k", func() (int, error) { loads++; return 1, nil })
		require.NoError(t, err)
		assert.False(t, hit)
	}
	assert.Equal(t, 3, loads)
	assert.Equal(t, 0, cache.Len())
}

func TestResultCache_PrunesExpiredOnStore(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	cache := newResultCache(
		WithExpiration[string, int](time.Minute),
		WithClock[string, int](clock.Now),
	)
	load := func() (int, error) { return 1, nil }

	_, _, _ = cache.Get("a", load)
	_, _, _ = cache.Get("b", load)
	assert.Equal(t, 2, cache.Len())

	clock.now = clock.now.Add(time.Hour)
	_, _, _ = cache.Get("c", load)
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate()
	assert.Equal(t, 0, cache.Len())
}
