package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for inspire
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Pexels    PexelsConfig    `mapstructure:"pexels" yaml:"pexels"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Gallery   GalleryConfig   `mapstructure:"gallery" yaml:"gallery"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Downloads DownloadsConfig `mapstructure:"downloads" yaml:"downloads"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Advanced  AdvancedConfig  `mapstructure:"advanced" yaml:"advanced"`
}

// ServerConfig configures the search proxy
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PexelsConfig configures the upstream stock-media API.
// APIKey is only ever read server-side.
type PexelsConfig struct {
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxPerPage int           `mapstructure:"max_per_page" yaml:"max_per_page"`
}

// APIConfig points the gallery client at a running proxy
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// GalleryConfig holds gallery browsing defaults
type GalleryConfig struct {
	PageSize          int      `mapstructure:"page_size" yaml:"page_size"`
	DefaultTerm       string   `mapstructure:"default_term" yaml:"default_term"`
	DefaultMediaType  string   `mapstructure:"default_media_type" yaml:"default_media_type"`
	Categories        []string `mapstructure:"categories" yaml:"categories"`
	SentinelThreshold int      `mapstructure:"sentinel_threshold" yaml:"sentinel_threshold"` // rows before the end that count as "visible"
}

// CacheConfig configures the proxy's page cache
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
}

// DownloadsConfig configures the asset download manager
type DownloadsConfig struct {
	Path                  string `mapstructure:"path" yaml:"path"`
	Concurrent            int    `mapstructure:"concurrent" yaml:"concurrent"`
	PhotoTemplate         string `mapstructure:"photo_template" yaml:"photo_template"`
	VideoTemplate         string `mapstructure:"video_template" yaml:"video_template"`
	PreferredVideoQuality string `mapstructure:"preferred_video_quality" yaml:"preferred_video_quality"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path           string `mapstructure:"path" yaml:"path"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode" yaml:"wal_mode"`
}

// LoggingConfig configures slog output and rotation
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // text or json
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	Color      bool   `mapstructure:"color" yaml:"color"`
}

// AdvancedConfig holds rarely changed settings
type AdvancedConfig struct {
	Debug     bool            `mapstructure:"debug" yaml:"debug"`
	Clipboard ClipboardConfig `mapstructure:"clipboard" yaml:"clipboard"`
}

// ClipboardConfig allows overriding the clipboard command
type ClipboardConfig struct {
	Command string `mapstructure:"command" yaml:"command"`
}

// DefaultCategories mirrors the category bar of the gallery
var DefaultCategories = []string{
	"Nature", "Animals", "City", "Food", "Architecture",
	"Travel", "Technology", "People", "Business", "Space",
	"Sports", "Cars", "Fashion", "Art", "Abstract",
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Pexels: PexelsConfig{
			BaseURL:    "https://api.pexels.com",
			Timeout:    30 * time.Second,
			MaxPerPage: 80,
		},
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8080",
			Timeout: 30 * time.Second,
		},
		Gallery: GalleryConfig{
			PageSize:          80,
			DefaultTerm:       "nature",
			DefaultMediaType:  "images",
			Categories:        append([]string(nil), DefaultCategories...),
			SentinelThreshold: 1,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 256,
		},
		Downloads: DownloadsConfig{
			Path:                  filepath.Join(getHomeDir(), "Pictures", "inspire"),
			Concurrent:            2,
			PhotoTemplate:         "pexels-photo-{id}",
			VideoTemplate:         "pexels-video-{id}",
			PreferredVideoQuality: "hd",
		},
		Database: DatabaseConfig{
			Path:           filepath.Join(getDataDir(), "inspire", "inspire.db"),
			MaxConnections: 4,
			WALMode:        true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
			Color:      true,
		},
	}
}

// Load reads configuration from file and environment.
// The returned viper instance can be used to watch the file for changes.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("INSPIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The upstream credential keeps its conventional name
	if err := v.BindEnv("pexels.api_key", "PEXELS_API_KEY", "INSPIRE_PEXELS_API_KEY"); err != nil {
		return nil, nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(&cfg)
	return &cfg, v, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	v.SetDefault("pexels.api_key", "")
	v.SetDefault("pexels.base_url", cfg.Pexels.BaseURL)
	v.SetDefault("pexels.timeout", cfg.Pexels.Timeout)
	v.SetDefault("pexels.max_per_page", cfg.Pexels.MaxPerPage)

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("gallery.page_size", cfg.Gallery.PageSize)
	v.SetDefault("gallery.default_term", cfg.Gallery.DefaultTerm)
	v.SetDefault("gallery.default_media_type", cfg.Gallery.DefaultMediaType)
	v.SetDefault("gallery.categories", cfg.Gallery.Categories)
	v.SetDefault("gallery.sentinel_threshold", cfg.Gallery.SentinelThreshold)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("cache.max_entries", cfg.Cache.MaxEntries)

	v.SetDefault("downloads.path", cfg.Downloads.Path)
	v.SetDefault("downloads.concurrent", cfg.Downloads.Concurrent)
	v.SetDefault("downloads.photo_template", cfg.Downloads.PhotoTemplate)
	v.SetDefault("downloads.video_template", cfg.Downloads.VideoTemplate)
	v.SetDefault("downloads.preferred_video_quality", cfg.Downloads.PreferredVideoQuality)

	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("database.max_connections", cfg.Database.MaxConnections)
	v.SetDefault("database.wal_mode", cfg.Database.WALMode)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.max_size", cfg.Logging.MaxSize)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age", cfg.Logging.MaxAge)
	v.SetDefault("logging.compress", cfg.Logging.Compress)
	v.SetDefault("logging.color", cfg.Logging.Color)

	v.SetDefault("advanced.debug", false)
	v.SetDefault("advanced.clipboard.command", "")
}

// SaveDefaultConfig writes the default configuration as YAML.
// The API key is deliberately left empty.
func SaveDefaultConfig(path string) error {
	cfg := DefaultConfig()
	cfg.Pexels.APIKey = ""

	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	humanizeDurations(&root)

	data, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := "# inspire configuration\n# The Pexels API key can also be supplied via PEXELS_API_KEY.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// durationKeys are the config keys holding a time.Duration
var durationKeys = map[string]bool{
	"read_timeout":     true,
	"write_timeout":    true,
	"shutdown_timeout": true,
	"timeout":          true,
	"ttl":              true,
}

// humanizeDurations rewrites nanosecond integers as "30s" style strings
func humanizeDurations(node *yaml.Node) {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.Tag == "!!int" {
				if n, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
					val.Value = time.Duration(n).String()
					val.Tag = "!!str"
				}
			}
		}
	}
	for _, child := range node.Content {
		humanizeDurations(child)
	}
}

// InitializeDirs creates the config, data and state directories
func InitializeDirs() error {
	dirs := []string{
		GetConfigDir(),
		filepath.Join(getDataDir(), "inspire"),
		filepath.Join(getStateDir(), "inspire"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// GetConfigDir returns the directory holding config.yaml
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "inspire")
	}
	return filepath.Join(getHomeDir(), ".config", "inspire")
}

func getDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(getHomeDir(), ".local", "share")
}

func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(getHomeDir(), ".local", "state")
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// expandPath expands ~ to the home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(getHomeDir(), path[2:])
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Downloads.Path = expandPath(cfg.Downloads.Path)
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Logging.File = expandPath(cfg.Logging.File)
}

// Reload re-reads the watched config into a fresh Config
func Reload(v *viper.Viper) (*Config, error) {
	var next Config
	if err := v.Unmarshal(&next); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	expandPaths(&next)
	return &next, nil
}
