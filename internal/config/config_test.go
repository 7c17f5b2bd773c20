package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, 80, cfg.Pexels.MaxPerPage)
	assert.Equal(t, 80, cfg.Gallery.PageSize)
	assert.Equal(t, "nature", cfg.Gallery.DefaultTerm)
	assert.Equal(t, "images", cfg.Gallery.DefaultMediaType)
	assert.Len(t, cfg.Gallery.Categories, 15)
	assert.Equal(t, "hd", cfg.Downloads.PreferredVideoQuality)
	assert.Empty(t, cfg.Pexels.APIKey)
}

func TestLoad(t *testing.T) {
	t.Run("uses defaults without a config file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("PEXELS_API_KEY", "")

		cfg, v, err := Load("")
		require.NoError(t, err)
		require.NotNil(t, v)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Pexels.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
server:
  port: 9090
  read_timeout: 3s
gallery:
  page_size: 40
  default_term: ocean
pexels:
  api_key: from-file
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		t.Setenv("PEXELS_API_KEY", "")

		cfg, _, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 40, cfg.Gallery.PageSize)
		assert.Equal(t, "ocean", cfg.Gallery.DefaultTerm)
		assert.Equal(t, "from-file", cfg.Pexels.APIKey)
		// untouched sections keep their defaults
		assert.Equal(t, "images", cfg.Gallery.DefaultMediaType)
	})

	t.Run("api key comes from PEXELS_API_KEY", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("PEXELS_API_KEY", "secret-key")

		cfg, _, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "secret-key", cfg.Pexels.APIKey)
	})

	t.Run("prefixed env overrides", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("INSPIRE_SERVER_PORT", "7000")

		cfg, _, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 7000, cfg.Server.Port)
	})

	t.Run("fails on malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0600))

		_, _, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "read_timeout: 15s")
	assert.Contains(t, string(data), "api_key: \"\"")

	t.Setenv("PEXELS_API_KEY", "")
	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DefaultConfig().Gallery.Categories, cfg.Gallery.Categories)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "pics"), expandPath("~/pics"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "", expandPath(""))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestInitLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	path := filepath.Join(t.TempDir(), "logs", "inspire.log")
	logger, err := InitLogger(&LoggingConfig{
		Level:  "debug",
		Format: "json",
		File:   path,
	})
	require.NoError(t, err)

	logger.Info("hello", "term", "nature")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"term":"nature"`)
}

func TestSetLogLevel(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	path := filepath.Join(t.TempDir(), "inspire.log")
	logger, err := InitLogger(&LoggingConfig{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("dropped")
	SetLogLevel("info")
	logger.Info("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestColorize(t *testing.T) {
	line := colorize("time=now level=ERROR msg=boom\n", slog.LevelError)
	assert.Contains(t, line, "\033[31mtime=now\033[0m")
	assert.Contains(t, line, "msg=boom")
}
