package pexels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photosJSON = `{
  "page": 2,
  "per_page": 2,
  "total_results": 120,
  "next_page": "https://api.pexels.com/v1/search/?page=3&per_page=2&query=nature",
  "photos": [
    {
      "id": 2014422,
      "width": 3024,
      "height": 3024,
      "url": "https://www.pexels.com/photo/brown-rocks-during-golden-hour-2014422/",
      "photographer": "Joey Farina",
      "photographer_url": "https://www.pexels.com/@joey",
      "photographer_id": 680589,
      "avg_color": "#978E82",
      "src": {
        "original": "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg",
        "large2x": "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg?auto=compress&dpr=2&h=650&w=940",
        "large": "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg?auto=compress&h=650&w=940",
        "medium": "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg?auto=compress&h=350",
        "tiny": "https://images.pexels.com/photos/2014422/pexels-photo-2014422.jpeg?auto=compress&h=200&w=280"
      },
      "alt": "Brown Rocks During Golden Hour"
    },
    {
      "id": 2880507,
      "url": "https://www.pexels.com/photo/woman-in-white-long-sleeved-top-2880507/",
      "photographer": "Deden Dicky Ramdhani",
      "src": {"original": "https://images.pexels.com/photos/2880507/pexels-photo-2880507.jpeg"},
      "alt": ""
    }
  ]
}`

const videosJSON = `{
  "page": 1,
  "per_page": 1,
  "total_results": 20475,
  "url": "https://www.pexels.com/videos/",
  "videos": [
    {
      "id": 1448735,
      "width": 4096,
      "height": 2160,
      "url": "https://www.pexels.com/video/video-of-forest-1448735/",
      "image": "https://images.pexels.com/videos/1448735/free-video-1448735.jpg",
      "duration": 32,
      "user": {"id": 574687, "name": "Ruvim Miksanskiy", "url": "https://www.pexels.com/@digitech"},
      "video_files": [
        {"id": 58649, "quality": "sd", "file_type": "video/mp4", "width": 640, "height": 338, "fps": 23.98, "link": "https://player.vimeo.com/external/291648067.sd.mp4"},
        {"id": 58650, "quality": "hd", "file_type": "video/mp4", "width": 2048, "height": 1080, "fps": 23.98, "link": "https://player.vimeo.com/external/291648067.hd.mp4"}
      ],
      "video_pictures": [
        {"id": 133236, "picture": "https://static-videos.pexels.com/videos/1448735/pictures/preview-0.jpg", "nr": 0}
      ]
    }
  ]
}`

func newTestProvider(t *testing.T, baseURL, apiKey string) *Provider {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Pexels.BaseURL = baseURL
	cfg.Pexels.APIKey = apiKey
	cfg.Pexels.Timeout = 5 * time.Second
	return New(cfg, nil)
}

func TestProvider_Metadata(t *testing.T) {
	p := newTestProvider(t, "https://api.example.test/", "key")

	var _ providers.Provider = p
	assert.Equal(t, "pexels", p.Name())
	assert.ElementsMatch(t, []media.MediaType{media.MediaTypeImages, media.MediaTypeVideos}, p.MediaTypes())
	assert.Equal(t, "https://api.example.test/v1/curated?per_page=1", p.HealthURL())
}

func TestProvider_SearchPhotos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "nature", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(photosJSON))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "test-key")
	page, err := p.Search(context.Background(), providers.SearchRequest{
		Term:      "nature",
		MediaType: media.MediaTypeImages,
		Page:      2,
		PerPage:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, 120, page.TotalResults)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, media.MediaTypeImages, page.MediaType)
	require.Len(t, page.Items, 2)

	first, ok := page.Items[0].(*media.Photo)
	require.True(t, ok)
	assert.Equal(t, int64(2014422), first.ID)
	assert.Equal(t, "Joey Farina", first.Photographer)
	assert.Equal(t, "https://www.pexels.com/@joey", first.PhotographerURL)
	assert.Equal(t, "#978E82", first.AvgColor)
	assert.Equal(t, "Brown Rocks During Golden Hour", first.Caption())
	assert.Contains(t, first.Src.Large2x, "dpr=2")
	assert.Contains(t, first.DisplayURL(), "h=650")

	assert.Equal(t, "Photo 2880507", page.Items[1].Caption())
	assert.False(t, page.IsLast(2))
}

func TestProvider_SearchVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos/search", r.URL.Path)
		_, _ = w.Write([]byte(videosJSON))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "test-key")
	page, err := p.Search(context.Background(), providers.SearchRequest{
		Term:      "forest",
		MediaType: media.MediaTypeVideos,
		Page:      1,
		PerPage:   1,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	v, ok := page.Items[0].(*media.Video)
	require.True(t, ok)
	assert.Equal(t, 32*time.Second, v.Length())
	assert.Equal(t, "Ruvim Miksanskiy", v.Credit())
	assert.Equal(t, "https://player.vimeo.com/external/291648067.hd.mp4", v.FullURL())
	assert.Len(t, v.VideoPictures, 1)
	assert.Equal(t, 23.98, v.VideoFiles[0].FPS)
	assert.Equal(t, "Video of forest", v.Caption())
}

func TestProvider_SearchClampsPerPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "80", r.URL.Query().Get("per_page"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"photos": [], "total_results": 0}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "test-key")
	page, err := p.Search(context.Background(), providers.SearchRequest{Term: "x", PerPage: 500})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 80, page.PerPage)
	assert.True(t, page.IsLast(80))
}

func TestProvider_SearchErrors(t *testing.T) {
	t.Run("missing api key never reaches the network", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		p := newTestProvider(t, server.URL, "")
		_, err := p.Search(context.Background(), providers.SearchRequest{Term: "nature"})

		require.Error(t, err)
		assert.ErrorIs(t, err, media.ErrFetchFailed)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("empty term is an invalid query", func(t *testing.T) {
		p := newTestProvider(t, "http://127.0.0.1:1", "key")
		_, err := p.Search(context.Background(), providers.SearchRequest{Term: "  "})
		assert.ErrorIs(t, err, media.ErrInvalidQuery)
	})

	t.Run("upstream status is surfaced without retry", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "upstream exploded"}`))
		}))
		defer server.Close()

		p := newTestProvider(t, server.URL, "key")
		_, err := p.Search(context.Background(), providers.SearchRequest{Term: "nature"})

		require.Error(t, err)
		var fe *media.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
		assert.Equal(t, "upstream exploded", fe.Message)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("unauthorized without a json body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		p := newTestProvider(t, server.URL, "bad")
		_, err := p.Search(context.Background(), providers.SearchRequest{Term: "nature"})

		var fe *media.FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, 401, fe.StatusCode)
		assert.Equal(t, "Unauthorized", fe.Message)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"photos": [`))
		}))
		defer server.Close()

		p := newTestProvider(t, server.URL, "key")
		_, err := p.Search(context.Background(), providers.SearchRequest{Term: "nature"})
		assert.ErrorIs(t, err, media.ErrFetchFailed)
	})
}

func TestProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/curated", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		if r.Header.Get("Authorization") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"photos": []}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, "good")
	assert.NoError(t, p.HealthCheck(context.Background()))

	cfg := config.DefaultConfig()
	cfg.Pexels.BaseURL = server.URL
	cfg.Pexels.APIKey = "rotated-but-wrong"
	p.SetConfig(cfg, nil)

	err := p.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
