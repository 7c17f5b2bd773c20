package grid

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photos(n int) []media.Item {
	items := make([]media.Item, n)
	for i := range items {
		items[i] = &media.Photo{
			ID:           int64(i + 1),
			Width:        1920,
			Height:       1080,
			Photographer: fmt.Sprintf("Photographer %d", i+1),
			Alt:          fmt.Sprintf("Photo number %d", i+1),
			AvgColor:     "#336699",
		}
	}
	return items
}

// 4 columns, 5 visible rows
func sized() Model {
	m := New()
	m.SetSize(4*CellWidth, 5*CellHeight)
	return m
}

func TestGrid_Layout(t *testing.T) {
	m := sized()
	m.SetItems(photos(10))

	assert.Equal(t, 4, m.Columns())
	assert.Equal(t, 5, m.VisibleRows())
	assert.Equal(t, 3, m.Rows())

	narrow := New()
	narrow.SetSize(10, 2)
	assert.Equal(t, 1, narrow.Columns(), "always at least one column")
	assert.Equal(t, 1, narrow.VisibleRows())
}

func TestGrid_Navigation(t *testing.T) {
	m := sized()
	m.SetItems(photos(10))

	m.Move(0, 1)
	assert.Equal(t, 1, m.Cursor())
	m.Move(1, 0)
	assert.Equal(t, 5, m.Cursor())
	m.Move(0, 10)
	assert.Equal(t, 7, m.Cursor(), "horizontal moves stop at the row end")
	m.Move(1, 0)
	assert.Equal(t, 9, m.Cursor(), "moving below the last card clamps to it")
	m.Top()
	assert.Equal(t, 0, m.Cursor())
	m.Bottom()
	assert.Equal(t, 9, m.Cursor())

	item, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(10), item.MediaID())
}

func TestGrid_SentinelVisibility(t *testing.T) {
	m := sized()
	assert.False(t, m.SentinelVisible(0), "nothing loaded")

	m.SetItems(photos(80)) // 20 rows
	assert.False(t, m.SentinelVisible(0))
	assert.False(t, m.SentinelVisible(1))

	// scroll to the last row: the sentinel row comes into the window
	m.Bottom()
	assert.Equal(t, 16, m.Offset())
	assert.True(t, m.SentinelVisible(0))

	// appending a page pushes the sentinel back out
	m.SetItems(photos(160))
	assert.False(t, m.SentinelVisible(0))
	assert.Equal(t, 79, m.Cursor(), "appending keeps the cursor")

	// rows 30..34 shown out of 40
	m.Move(15, 0)
	assert.Equal(t, 30, m.Offset())
	assert.False(t, m.SentinelVisible(5))
	assert.True(t, m.SentinelVisible(6), "threshold counts rows ahead of the sentinel")
}

func TestGrid_SentinelVisibleWhenContentFits(t *testing.T) {
	m := sized()
	m.SetItems(photos(6))
	assert.True(t, m.SentinelVisible(0))
}

func TestGrid_FilterHidesSentinel(t *testing.T) {
	m := sized()
	m.SetItems(photos(12))

	m.Filter().Activate()
	m.Filter().SetQuery("number 1")
	m.Refilter()

	assert.NotZero(t, m.Len())
	assert.Less(t, m.Len(), 12)
	assert.False(t, m.SentinelVisible(1), "filtering never loads more")

	m.Filter().Deactivate()
	m.Refilter()
	assert.Equal(t, 12, m.Len())
	assert.True(t, m.SentinelVisible(1))
}

func TestGrid_EnterOpensPreview(t *testing.T) {
	m := sized()
	m.SetItems(photos(3))
	m.Move(0, 2)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(common.OpenPreviewMsg)
	require.True(t, ok)
	assert.Equal(t, int64(3), msg.Item.MediaID())

	empty := sized()
	_, cmd = empty.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestGrid_View(t *testing.T) {
	m := sized()
	m.SetItems([]media.Item{
		&media.Photo{ID: 1, Width: 800, Height: 600, Photographer: "Ana", Alt: "Green leaves"},
		&media.Video{ID: 2, Width: 1920, Height: 1080, Duration: 12, User: media.VideoUser{Name: "Ben"}, URL: "https://www.pexels.com/video/waves-on-rocks-2/"},
	})
	m.SetFooter("No more results")

	view := m.View()
	assert.Contains(t, view, "Green leaves")
	assert.Contains(t, view, "by Ana")
	assert.Contains(t, view, "800x600")
	assert.Contains(t, view, "Waves on rocks")
	assert.Contains(t, view, "12s")
	assert.Contains(t, view, "No more results")
}
