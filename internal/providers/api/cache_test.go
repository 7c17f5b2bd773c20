package api

import (
	"testing"
	"time"

	"github.com/justchokingaround/inspire/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, maxEntries int) (*PageCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewPageCache(ttl, maxEntries)
	cache.now = clock.now
	return cache, clock
}

func key(term string, page int) PageKey {
	return PageKey{MediaType: media.MediaTypeImages, Term: term, Page: page, PerPage: 80}
}

func TestPageCache_GetSet(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 10)

	_, ok := cache.Get(key("nature", 1))
	assert.False(t, ok)

	page := &media.ResultPage{Page: 1, TotalResults: 10}
	cache.Set(key("nature", 1), page)

	got, ok := cache.Get(key("nature", 1))
	require.True(t, ok)
	assert.Same(t, page, got)

	// different page, size or type is a different entry
	_, ok = cache.Get(key("nature", 2))
	assert.False(t, ok)
	_, ok = cache.Get(PageKey{MediaType: media.MediaTypeVideos, Term: "nature", Page: 1, PerPage: 80})
	assert.False(t, ok)

	clock.advance(time.Minute)
	_, ok = cache.Get(key("nature", 1))
	assert.False(t, ok, "entry should expire after ttl")
}

func TestPageCache_Eviction(t *testing.T) {
	cache, clock := newTestCache(time.Hour, 2)

	cache.Set(key("a", 1), &media.ResultPage{})
	clock.advance(time.Second)
	cache.Set(key("b", 1), &media.ResultPage{})
	clock.advance(time.Second)
	cache.Set(key("c", 1), &media.ResultPage{})

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(key("a", 1))
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = cache.Get(key("c", 1))
	assert.True(t, ok)

	// overwriting an existing key does not evict
	cache.Set(key("b", 1), &media.ResultPage{Page: 9})
	assert.Equal(t, 2, cache.Len())
}

func TestPageCache_EvictsExpiredFirst(t *testing.T) {
	cache, clock := newTestCache(time.Minute, 2)

	cache.Set(key("old", 1), &media.ResultPage{})
	clock.advance(30 * time.Second)
	cache.Set(key("newer", 1), &media.ResultPage{})
	clock.advance(45 * time.Second) // "old" has expired, "newer" has not

	cache.Set(key("newest", 1), &media.ResultPage{})

	_, ok := cache.Get(key("newer", 1))
	assert.True(t, ok)
	_, ok = cache.Get(key("newest", 1))
	assert.True(t, ok)
}

func TestPageCache_DisabledAndClear(t *testing.T) {
	cache, _ := newTestCache(0, 10)
	cache.Set(key("x", 1), &media.ResultPage{})
	assert.Equal(t, 0, cache.Len())

	cache.SetTTL(time.Minute)
	cache.Set(key("x", 1), &media.ResultPage{})
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, "images:x:1:80", key("x", 1).String())
}
