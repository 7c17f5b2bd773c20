package gallery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinel_FiresOncePerEntry(t *testing.T) {
	fired := 0
	s := NewSentinel(func() { fired++ }, nil)

	assert.False(t, s.SetVisible(false))
	assert.True(t, s.SetVisible(true))
	assert.False(t, s.SetVisible(true), "continuously visible does not re-fire")
	assert.False(t, s.SetVisible(true))
	assert.Equal(t, 1, fired)
	assert.True(t, s.Visible())

	s.SetVisible(false)
	assert.True(t, s.SetVisible(true))
	assert.Equal(t, 2, fired)
}

func TestSentinel_ExhaustedSuppresses(t *testing.T) {
	fired := 0
	exhausted := true
	s := NewSentinel(func() { fired++ }, func() bool { return exhausted })

	assert.False(t, s.SetVisible(true))
	assert.Equal(t, 0, fired)

	// a new query clears exhaustion; the next entry fires again
	exhausted = false
	s.SetVisible(false)
	assert.True(t, s.SetVisible(true))
	assert.Equal(t, 1, fired)
}

func TestSentinel_Close(t *testing.T) {
	fired := 0
	s := NewSentinel(func() { fired++ }, nil)
	s.Close()

	assert.False(t, s.SetVisible(true))
	s.SetVisible(false)
	assert.False(t, s.SetVisible(true))
	assert.Equal(t, 0, fired)
}
