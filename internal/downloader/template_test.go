package downloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justchokingaround/inspire/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		task     Task
		want     string
	}{
		{
			name:     "photo default",
			template: DefaultPhotoTemplate,
			task:     Task{MediaID: 2014422, MediaType: media.MediaTypeImages, SourceURL: "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg?auto=compress&cs=tinysrgb"},
			want:     "pexels-photo-2014422.jpeg",
		},
		{
			name:     "video default",
			template: DefaultVideoTemplate,
			task:     Task{MediaID: 856064, MediaType: media.MediaTypeVideos, SourceURL: "https://videos.pexels.com/video-files/856064/856064-hd_1920_1080_25fps.mp4"},
			want:     "pexels-video-856064.mp4",
		},
		{
			name:     "credit and type",
			template: "{credit} - {type} {id}",
			task:     Task{MediaID: 9, MediaType: media.MediaTypeVideos, Credit: "Ana: B/C", SourceURL: "https://example.com/v"},
			want:     "Ana - B-C - video 9.mp4",
		},
		{
			name:     "missing extension falls back",
			template: DefaultPhotoTemplate,
			task:     Task{MediaID: 1, MediaType: media.MediaTypeImages, SourceURL: "https://example.com/photos/1"},
			want:     "pexels-photo-1.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTemplate(tt.template, tt.task)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtensionFromURL(t *testing.T) {
	tests := []struct {
		url       string
		mediaType media.MediaType
		want      string
	}{
		{"https://images.pexels.com/photos/1/a.JPEG", media.MediaTypeImages, "jpeg"},
		{"https://images.pexels.com/photos/1/a.png?w=10", media.MediaTypeImages, "png"},
		{"https://player.vimeo.com/external/1.hd.mp4?s=abc", media.MediaTypeVideos, "mp4"},
		{"https://example.com/noext", media.MediaTypeVideos, "mp4"},
		{"https://example.com/weird.extension-too-long", media.MediaTypeImages, "jpg"},
		{"::not a url", media.MediaTypeImages, "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionFromURL(tt.url, tt.mediaType))
		})
	}
}

func TestTemplateFor(t *testing.T) {
	assert.Equal(t, DefaultPhotoTemplate, TemplateFor(media.MediaTypeImages, "", ""))
	assert.Equal(t, DefaultVideoTemplate, TemplateFor(media.MediaTypeVideos, "", ""))
	assert.Equal(t, "p-{id}", TemplateFor(media.MediaTypeImages, "p-{id}", "v-{id}"))
	assert.Equal(t, "v-{id}", TemplateFor(media.MediaTypeVideos, "p-{id}", "v-{id}"))
}

func TestValidateTemplate(t *testing.T) {
	assert.NoError(t, ValidateTemplate("pexels-{type}-{id} by {credit}"))
	assert.Error(t, ValidateTemplate(""))
	assert.Error(t, ValidateTemplate("pexels-{id"))
	assert.Error(t, ValidateTemplate("{title}"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b - c", SanitizeFilename("a/b: c"))
	assert.Equal(t, "what", SanitizeFilename("  what?*.. "))
	assert.Equal(t, "download", SanitizeFilename("..."))
	assert.Len(t, SanitizeFilename(strings.Repeat("x", 300)), 200)
}

func TestEnsureUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pexels-photo-1.jpg")
	assert.Equal(t, path, EnsureUniqueFilename(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "pexels-photo-1 (1).jpg"), EnsureUniqueFilename(path))
}
