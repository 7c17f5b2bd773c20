package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzySearch_Filter(t *testing.T) {
	entries := []string{"Green leaves", "Mountain lake", "Forest path", "Lake at dawn"}

	f := NewFuzzySearch()
	assert.Equal(t, []int{0, 1, 2, 3}, f.Filter(entries), "inactive filter keeps everything")

	f.Activate()
	assert.True(t, f.Editing())
	assert.Equal(t, []int{0, 1, 2, 3}, f.Filter(entries), "empty query keeps everything")

	f.SetQuery("lake")
	got := f.Filter(entries)
	assert.ElementsMatch(t, []int{1, 3}, got)

	f.SetQuery("zzz")
	assert.Empty(t, f.Filter(entries))

	f.Lock()
	assert.True(t, f.IsLocked())
	assert.False(t, f.Editing())
	assert.Nil(t, f.Update(nil), "locked filters ignore input")

	f.Deactivate()
	assert.False(t, f.IsActive())
	assert.Equal(t, "", f.Query())
}
