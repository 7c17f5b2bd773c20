package preview

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/tui/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func video() *media.Video {
	return &media.Video{
		ID:       7,
		Width:    3840,
		Height:   2160,
		Duration: 30,
		URL:      "https://www.pexels.com/video/city-lights-7/",
		User:     media.VideoUser{Name: "Cara"},
		VideoFiles: []media.VideoFile{
			{Quality: "sd", Width: 640, Height: 360, FPS: 25, FileType: "video/mp4", Link: "https://videos.example/sd.mp4"},
			{Quality: "hd", Width: 1920, Height: 1080, FPS: 25, FileType: "video/mp4", Link: "https://videos.example/hd.mp4"},
		},
	}
}

func TestPreview_Actions(t *testing.T) {
	m := New("")
	assert.False(t, m.IsOpen())

	v := video()
	m.Open(v)
	require.True(t, m.IsOpen())

	_, cmd := m.Update(key("d"))
	assert.Equal(t, common.DownloadItemMsg{Item: v}, cmd())

	_, cmd = m.Update(key("y"))
	assert.Equal(t, common.CopyURLMsg{URL: "https://videos.example/hd.mp4"}, cmd())

	_, cmd = m.Update(key("o"))
	assert.Equal(t, common.OpenURLMsg{URL: "https://www.pexels.com/video/city-lights-7/"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, common.ClosePreviewMsg{}, cmd())

	m.Close()
	_, cmd = m.Update(key("d"))
	assert.Nil(t, cmd)
}

func TestPreview_CopyUsesPreferredQuality(t *testing.T) {
	m := New("sd")
	m.Open(video())
	_, cmd := m.Update(key("y"))
	assert.Equal(t, common.CopyURLMsg{URL: "https://videos.example/sd.mp4"}, cmd())
}

func TestPreview_ViewPhoto(t *testing.T) {
	m := New("")
	m.Open(&media.Photo{
		ID:           1,
		Width:        4000,
		Height:       3000,
		Photographer: "Ana",
		Alt:          "Green leaves in the rain",
		AvgColor:     "#2E4A1F",
		URL:          "https://www.pexels.com/photo/green-leaves-1/",
	})

	view := m.View()
	assert.Contains(t, view, "Green leaves in the rain")
	assert.Contains(t, view, "Ana")
	assert.Contains(t, view, "4000 × 3000")
	assert.Contains(t, view, "#2E4A1F")
	assert.Contains(t, view, "https://www.pexels.com/photo/green-leaves-1/")
	assert.Contains(t, view, "d download")
}

func TestPreview_ViewVideo(t *testing.T) {
	m := New("")
	m.Open(video())

	view := m.View()
	assert.Contains(t, view, "City lights")
	assert.Contains(t, view, "30s")
	assert.Contains(t, view, "Variants")
	assert.Contains(t, view, "▸ hd")
}
