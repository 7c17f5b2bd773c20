package history

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/justchokingaround/inspire/internal/history"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries []history.Entry
	deleted []uint
	cleared bool
	err     error
}

func (f *fakeStore) Recent(limit int) ([]history.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeStore) Delete(id uint) error {
	f.deleted = append(f.deleted, id)
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

func (f *fakeStore) Clear() error {
	f.cleared = true
	f.entries = nil
	return nil
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func store() *fakeStore {
	now := time.Now()
	return &fakeStore{entries: []history.Entry{
		{ID: 3, Query: media.Query{Term: "mountain lake", MediaType: media.MediaTypeImages}, UseCount: 2, LastUsed: now},
		{ID: 2, Query: media.Query{Category: "Travel", MediaType: media.MediaTypeVideos}, UseCount: 1, LastUsed: now.Add(-time.Hour)},
		{ID: 1, Query: media.Query{Term: "city at night"}, UseCount: 5, LastUsed: now.Add(-48 * time.Hour)},
	}}
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = m.Update(m.Refresh()())
	return m
}

func TestHistory_LoadAndRun(t *testing.T) {
	m := load(t, New(store()))
	require.Len(t, m.Filtered(), 3)

	m, _ = m.Update(keyMsg("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, common.RunQueryMsg{Query: media.Query{Category: "Travel", MediaType: media.MediaTypeVideos}}, cmd())
}

func TestHistory_DeleteAndClear(t *testing.T) {
	s := store()
	m := load(t, New(s))

	m, cmd := m.Update(keyMsg("x"))
	m, _ = m.Update(cmd())
	assert.Equal(t, []uint{3}, s.deleted)
	assert.Len(t, m.Filtered(), 2)

	m, cmd = m.Update(keyMsg("X"))
	m, _ = m.Update(cmd())
	assert.True(t, s.cleared)
	assert.Empty(t, m.Filtered())
	assert.Contains(t, m.View(), "No searches yet")
}

func TestHistory_Filter(t *testing.T) {
	m := load(t, New(store()))

	m, _ = m.Update(keyMsg("/"))
	require.True(t, m.IsInputActive())
	for _, r := range "city" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	filtered := m.Filtered()
	require.Len(t, filtered, 1)
	assert.Equal(t, uint(1), filtered[0].ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.IsInputActive(), "enter locks the filter")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, common.RunQueryMsg{Query: media.Query{Term: "city at night"}}, cmd())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.Filtered(), 3)
}

func TestHistory_ViewAndErrors(t *testing.T) {
	m := load(t, New(store()))
	view := m.View()
	assert.Contains(t, view, "mountain lake")
	assert.Contains(t, view, "Category: Travel")
	assert.Contains(t, view, "5 searches")
	assert.Contains(t, view, "videos")

	broken := load(t, New(&fakeStore{err: errors.New("no such table")}))
	assert.Contains(t, broken.View(), "no such table")

	_, cmd := broken.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, common.BackMsg{}, cmd())
}
