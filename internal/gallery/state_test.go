package gallery

import (
	"testing"

	"github.com/justchokingaround/inspire/internal/media"
	"github.com/stretchr/testify/assert"
)

func TestQueryState_Setters(t *testing.T) {
	s := NewQueryState(media.Query{Term: "nature"})
	assert.Equal(t, media.Query{Term: "nature", MediaType: media.MediaTypeImages}, s.Get())

	var seen []media.Query
	s.Subscribe(func(q media.Query) { seen = append(seen, q) })

	assert.False(t, s.SetTerm("  nature "), "same term after trimming is not a change")
	assert.True(t, s.SetTerm("mountains"))
	assert.True(t, s.SetMediaType(media.MediaTypeVideos))
	assert.False(t, s.SetMediaType(media.MediaTypeVideos))

	assert.True(t, s.SetCategory("Architecture"))
	assert.Equal(t, media.Query{Category: "architecture", MediaType: media.MediaTypeVideos}, s.Get())

	assert.True(t, s.Reset())
	assert.False(t, s.Reset())
	assert.Equal(t, media.Query{MediaType: media.MediaTypeVideos}, s.Get())

	assert.True(t, s.Set(media.Query{Term: "cats"}))
	assert.Equal(t, media.MediaTypeImages, s.Get().MediaType)

	assert.Len(t, seen, 5)
	assert.Equal(t, "mountains", seen[0].Term)
	assert.Equal(t, media.MediaTypeVideos, seen[1].MediaType)
	assert.Equal(t, "architecture", seen[2].EffectiveTerm())
}

func TestQueryState_Subscribe(t *testing.T) {
	s := NewQueryState(media.Query{})

	var order []string
	unsubA := s.Subscribe(func(media.Query) { order = append(order, "a") })
	s.Subscribe(func(media.Query) { order = append(order, "b") })

	s.SetTerm("one")
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA() // idempotent
	order = nil
	s.SetTerm("two")
	assert.Equal(t, []string{"b"}, order)
}

func TestQueryState_SubscriberMayReadState(t *testing.T) {
	s := NewQueryState(media.Query{})

	var got media.Query
	s.Subscribe(func(media.Query) {
		// notifications happen outside the lock
		got = s.Get()
	})

	s.SetTerm("forest")
	assert.Equal(t, "forest", got.Term)
}
