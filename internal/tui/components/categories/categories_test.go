package categories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories_Navigation(t *testing.T) {
	m := New([]string{"Nature", "Travel", "Food"})
	assert.Equal(t, "", m.Selected())

	assert.Equal(t, "Nature", m.Next())
	assert.Equal(t, "Travel", m.Next())
	assert.Equal(t, "Food", m.Next())
	assert.Equal(t, "Nature", m.Next(), "wraps around")
	assert.Equal(t, "Food", m.Prev(), "wraps backwards")

	got, ok := m.Select(2)
	assert.True(t, ok)
	assert.Equal(t, "Travel", got)

	_, ok = m.Select(4)
	assert.False(t, ok)
	assert.Equal(t, "Travel", m.Selected(), "out of range keeps the selection")

	m.SetSelected("food")
	assert.Equal(t, "Food", m.Selected())
	m.SetSelected("")
	assert.Equal(t, "", m.Selected())
}

func TestCategories_ViewKeepsSelectionVisible(t *testing.T) {
	cats := []string{"Nature", "Travel", "Food", "Architecture", "Animals", "Technology", "Fashion"}
	m := New(cats)
	m.SetWidth(30)
	m.Select(7)

	view := m.View()
	assert.Contains(t, view, "Fashion")
	assert.NotContains(t, view, "Nature")
}
