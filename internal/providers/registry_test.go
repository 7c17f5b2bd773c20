package providers

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock provider for testing
type mockProvider struct {
	name       string
	mediaTypes []media.MediaType
	healthErr  error
	configured bool
}

func (m *mockProvider) Name() string                  { return m.name }
func (m *mockProvider) MediaTypes() []media.MediaType { return m.mediaTypes }
func (m *mockProvider) Search(ctx context.Context, req SearchRequest) (*media.ResultPage, error) {
	return &media.ResultPage{Page: req.Page, PerPage: req.PerPage, MediaType: req.MediaType}, nil
}
func (m *mockProvider) HealthCheck(ctx context.Context) error { return m.healthErr }
func (m *mockProvider) HealthURL() string                     { return "https://example.test/" + m.name }
func (m *mockProvider) SetConfig(cfg *config.Config, logger *slog.Logger) {
	m.configured = true
}

var (
	imagesOnly = []media.MediaType{media.MediaTypeImages}
	videosOnly = []media.MediaType{media.MediaTypeVideos}
	both       = []media.MediaType{media.MediaTypeImages, media.MediaTypeVideos}
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()
	assert.NotNil(t, registry)
	assert.Equal(t, 0, registry.Count())
}

func TestNewSearchRequest(t *testing.T) {
	req := NewSearchRequest(media.Query{Category: "Travel", MediaType: media.MediaTypeVideos}, 3, 40)
	assert.Equal(t, SearchRequest{Term: "travel", MediaType: media.MediaTypeVideos, Page: 3, PerPage: 40}, req)
}

func TestRegistry_Register(t *testing.T) {
	t.Run("registers provider successfully", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "test", mediaTypes: imagesOnly}

		err := registry.Register(provider)
		assert.NoError(t, err)
		assert.Equal(t, 1, registry.Count())
	})

	t.Run("prevents duplicate registration", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "test", mediaTypes: imagesOnly}

		err := registry.Register(provider)
		require.NoError(t, err)

		err = registry.Register(provider)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("rejects nil provider", func(t *testing.T) {
		registry := NewRegistry()
		err := registry.Register(nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "nil provider")
	})

	t.Run("rejects provider without name", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "", mediaTypes: imagesOnly}

		err := registry.Register(provider)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "must have a name")
	})

	t.Run("registers provider under every media type it serves", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "pexels", mediaTypes: both}

		err := registry.Register(provider)
		require.NoError(t, err)

		assert.Len(t, registry.GetByType(media.MediaTypeImages), 1)
		assert.Len(t, registry.GetByType(media.MediaTypeVideos), 1)
	})
}

func TestRegistry_Unregister(t *testing.T) {
	t.Run("unregisters provider successfully", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "test", mediaTypes: both}

		err := registry.Register(provider)
		require.NoError(t, err)

		err = registry.Unregister("test")
		assert.NoError(t, err)
		assert.Equal(t, 0, registry.Count())
		assert.Empty(t, registry.GetByType(media.MediaTypeImages))
		assert.Empty(t, registry.GetByType(media.MediaTypeVideos))
		assert.Empty(t, registry.GetProviderStatuses())
	})

	t.Run("returns error for non-existent provider", func(t *testing.T) {
		registry := NewRegistry()
		err := registry.Unregister("nonexistent")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not registered")
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("gets provider by name", func(t *testing.T) {
		registry := NewRegistry()
		provider := &mockProvider{name: "test", mediaTypes: imagesOnly}

		err := registry.Register(provider)
		require.NoError(t, err)

		retrieved, err := registry.Get("test")
		assert.NoError(t, err)
		assert.Equal(t, "test", retrieved.Name())
	})

	t.Run("returns error for non-existent provider", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.Get("nonexistent")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestRegistry_ForType(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockProvider{name: "photos", mediaTypes: imagesOnly})
	_ = registry.Register(&mockProvider{name: "clips", mediaTypes: videosOnly})
	_ = registry.Register(&mockProvider{name: "pexels", mediaTypes: both})

	p, err := registry.ForType(media.MediaTypeImages)
	require.NoError(t, err)
	assert.Equal(t, "photos", p.Name())

	p, err = registry.ForType(media.MediaTypeVideos)
	require.NoError(t, err)
	assert.Equal(t, "clips", p.Name())

	_, err = NewRegistry().ForType(media.MediaTypeImages)
	assert.Error(t, err)
}

func TestRegistry_GetByType(t *testing.T) {
	t.Run("returns empty slice for type with no providers", func(t *testing.T) {
		registry := NewRegistry()
		assert.Empty(t, registry.GetByType(media.MediaTypeVideos))
	})

	t.Run("returns copy of provider slice", func(t *testing.T) {
		registry := NewRegistry()
		_ = registry.Register(&mockProvider{name: "test", mediaTypes: imagesOnly})

		providers1 := registry.GetByType(media.MediaTypeImages)
		providers2 := registry.GetByType(media.MediaTypeImages)

		// Modifying one slice shouldn't affect the other
		providers1[0] = &mockProvider{name: "modified", mediaTypes: imagesOnly}
		assert.NotEqual(t, providers1[0].Name(), providers2[0].Name())
	})
}

func TestRegistry_ListKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockProvider{name: "zeta", mediaTypes: imagesOnly})
	_ = registry.Register(&mockProvider{name: "alpha", mediaTypes: imagesOnly})
	_ = registry.Register(&mockProvider{name: "mid", mediaTypes: imagesOnly})
	_ = registry.Unregister("alpha")

	assert.Equal(t, []string{"zeta", "mid"}, registry.List())
	all := registry.GetAll()
	require.Len(t, all, 2)
	assert.Equal(t, "zeta", all[0].Name())
}

func TestRegistry_Clear(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockProvider{name: "p1", mediaTypes: imagesOnly})
	_ = registry.Register(&mockProvider{name: "p2", mediaTypes: videosOnly})
	assert.Equal(t, 2, registry.Count())

	registry.Clear()

	assert.Equal(t, 0, registry.Count())
	assert.Empty(t, registry.GetAll())
	assert.Empty(t, registry.List())
}

func TestRegistry_CheckAllProviders(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockProvider{name: "healthy", mediaTypes: imagesOnly})
	_ = registry.Register(&mockProvider{
		name:       "broken",
		mediaTypes: imagesOnly,
		healthErr:  &media.FetchError{StatusCode: 401, Message: "unauthorized"},
	})

	registry.CheckAllProviders(context.Background())

	statuses := registry.GetProviderStatuses()
	require.Len(t, statuses, 2)

	// sorted by name
	broken, healthy := statuses[0], statuses[1]
	assert.Equal(t, "broken", broken.ProviderName)
	assert.False(t, broken.Healthy)
	assert.Contains(t, broken.Status, "Offline")
	require.NotNil(t, broken.LastResult)
	assert.Equal(t, 401, broken.LastResult.StatusCode)
	assert.Equal(t, "https://example.test/broken", broken.LastResult.URL)

	assert.Equal(t, "healthy", healthy.ProviderName)
	assert.True(t, healthy.Healthy)
	assert.Equal(t, "Online", healthy.Status)
	assert.False(t, healthy.LastCheck.IsZero())
}

func TestRegistry_CheckAllProviders_PlainError(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockProvider{name: "down", mediaTypes: imagesOnly, healthErr: errors.New("dial tcp: refused")})

	registry.CheckAllProviders(context.Background())

	statuses := registry.GetProviderStatuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, 0, statuses[0].LastResult.StatusCode)
	assert.Contains(t, statuses[0].LastResult.Error, "refused")
}

func TestRegistry_ConfigureAll(t *testing.T) {
	registry := NewRegistry()
	p := &mockProvider{name: "p", mediaTypes: imagesOnly}
	_ = registry.Register(p)

	registry.ConfigureAll(config.DefaultConfig(), slog.Default())
	assert.True(t, p.configured)
}

func TestFormatCurlCommand(t *testing.T) {
	cmd := formatCurlCommand("https://api.pexels.com/v1/curated?per_page=1", map[string]string{
		"Authorization": "real-secret",
		"Accept":        "application/json",
	})

	assert.NotContains(t, cmd, "real-secret")
	assert.Equal(t, "curl -v -H 'Accept: application/json' -H 'Authorization: $PEXELS_API_KEY' 'https://api.pexels.com/v1/curated?per_page=1'", cmd)
}
