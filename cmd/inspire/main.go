package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/database"
	"github.com/justchokingaround/inspire/internal/downloader"
	"github.com/justchokingaround/inspire/internal/history"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/providers"
	"github.com/justchokingaround/inspire/internal/providers/api"
	"github.com/justchokingaround/inspire/internal/providers/pexels"
	"github.com/justchokingaround/inspire/internal/server"
	"github.com/justchokingaround/inspire/internal/tui"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
	// Global flags
	cfgFile   string
	logLevel  string
	noColor   bool
	debugMode bool

	// Global config and logger
	cfg    *config.Config
	v      *viper.Viper
	logger *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "inspire",
	Short: "Browse and download stock photos and videos from the terminal",
	Long: `inspire is a terminal gallery for Pexels photos and videos.

Run "inspire serve" to start the search proxy that holds the API key, then
run "inspire" to browse an endlessly scrolling grid of results, preview
items and download them.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for config init command
		if cmd.Name() == "init" && cmd.Parent().Name() == "config" {
			return nil
		}

		if err := config.InitializeDirs(); err != nil {
			return fmt.Errorf("failed to initialize directories: %w", err)
		}

		var err error
		cfg, v, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if debugMode {
			cfg.Advanced.Debug = true
			if logLevel == "" {
				cfg.Logging.Level = "debug"
			}
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if noColor {
			cfg.Logging.Color = false
		}
		// the proxy is a console program; everything else keeps the terminal clean
		if cmd.Name() == "serve" {
			if file, _ := cmd.Flags().GetString("log-file"); file != "" {
				cfg.Logging.File = file
			} else if !v.InConfig("logging.file") {
				cfg.Logging.File = config.LogToStderr
			}
		}

		logger, err = config.InitLogger(&cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := database.Close(); err != nil && logger != nil {
			logger.Error("failed to close database", "error", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("inspire starting...", "version", version, "api", cfg.API.BaseURL)

		db, err := openDatabase()
		if err != nil {
			return err
		}

		mgr, err := downloader.NewManager(db, &cfg.Downloads, logger)
		if err != nil {
			return fmt.Errorf("failed to create download manager: %w", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start download manager: %w", err)
		}
		defer func() {
			if err := mgr.Stop(); err != nil {
				logger.Error("failed to stop download manager", "error", err)
			}
		}()

		client := api.NewClient(cfg, logger)
		return tui.Start(tui.Options{
			Config:    cfg,
			Fetcher:   client,
			Health:    client,
			Downloads: mgr,
			History:   history.NewService(db),
			Logger:    logger,
		})
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/inspire/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode (verbose HTTP logging)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(providersCmd)
}

// openDatabase opens the SQLite database shared by downloads and history
func openDatabase() (*gorm.DB, error) {
	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database.GetDB(), nil
}

// versionCmd displays version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inspire version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
	},
}

// configCmd handles configuration operations
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = filepath.Join(config.GetConfigDir(), "config.yaml")
		}

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		if err := config.SaveDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to save default configuration: %w", err)
		}

		fmt.Printf("Default configuration generated successfully at: %s\n", configPath)
		fmt.Printf("Set PEXELS_API_KEY (or pexels.api_key) before running inspire serve.\n")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Pexels.APIKey != "" {
			shown.Pexels.APIKey = "********"
		}

		out, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Printf("# %s\n", used)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Display configuration file path",
	Run: func(cmd *cobra.Command, args []string) {
		switch {
		case cfgFile != "":
			fmt.Println(cfgFile)
		case v != nil && v.ConfigFileUsed() != "":
			fmt.Println(v.ConfigFileUsed())
		default:
			fmt.Println(filepath.Join(config.GetConfigDir(), "config.yaml"))
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

// serveCmd runs the search proxy
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the search proxy",
	Long: `Run the HTTP search proxy. The proxy holds the Pexels API key and
exposes GET /api/search and GET /api/health to gallery clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyServeFlags(cmd, cfg)

		registry := providers.NewRegistry()
		if err := registry.Register(pexels.New(cfg, logger)); err != nil {
			return fmt.Errorf("failed to register provider: %w", err)
		}
		if cfg.Pexels.APIKey == "" {
			logger.Warn("no API key configured; searches will fail until PEXELS_API_KEY is set")
		}

		srv := server.New(cfg, registry, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Setup hot reload
		if v.ConfigFileUsed() != "" {
			v.OnConfigChange(func(e fsnotify.Event) {
				logger.Info("config file changed", "name", e.Name)
				next, err := config.Reload(v)
				if err != nil {
					logger.Error("failed to reload config", "error", err)
					return
				}
				applyServeFlags(cmd, next)
				config.SetLogLevel(next.Logging.Level)
				srv.Reload(next)
			})
			v.WatchConfig()
		}

		return srv.Run(ctx)
	},
}

// applyServeFlags lets --host and --port win over the config file
func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("host") {
		c.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		c.Server.Port, _ = cmd.Flags().GetInt("port")
	}
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	serveCmd.Flags().String("log-file", "", "log file (default: stderr)")
}

// searchCmd fetches one page of results through the proxy
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for photos or videos",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typeFlag, _ := cmd.Flags().GetString("type")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")
		asJSON, _ := cmd.Flags().GetBool("json")
		downloadCount, _ := cmd.Flags().GetInt("download")

		mediaType, err := media.ParseMediaType(typeFlag)
		if err != nil {
			return err
		}
		if perPage == 0 {
			perPage = cfg.Gallery.PageSize
		}
		q := media.Query{Term: strings.Join(args, " "), MediaType: mediaType}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client := api.NewClient(cfg, logger)
		result, err := client.FetchPage(ctx, q, page, perPage)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(api.NewSearchResponse(result)); err != nil {
				return err
			}
		} else {
			printResults(q, result, perPage)
		}

		if downloadCount <= 0 || len(result.Items) == 0 {
			return nil
		}
		return downloadItems(result.Items[:min(downloadCount, len(result.Items))])
	},
}

func init() {
	searchCmd.Flags().StringP("type", "t", "images", "media type (images, videos)")
	searchCmd.Flags().IntP("page", "p", 1, "page number")
	searchCmd.Flags().Int("per-page", 0, "results per page (default: gallery.page_size)")
	searchCmd.Flags().Bool("json", false, "print the proxy response as JSON")
	searchCmd.Flags().IntP("download", "d", 0, "download the first N results")
}

func printResults(q media.Query, page *media.ResultPage, perPage int) {
	fmt.Printf("%s results for %q (page %d)\n\n", humanize.Comma(int64(page.TotalResults)), q.EffectiveTerm(), page.Page)

	for i, item := range page.Items {
		var meta string
		switch it := item.(type) {
		case *media.Photo:
			meta = fmt.Sprintf("%dx%d", it.Width, it.Height)
		case *media.Video:
			meta = fmt.Sprintf("%s, %dx%d, %d variants", it.Length(), it.Width, it.Height, len(it.VideoFiles))
		}
		fmt.Printf("%3d. [%d] %s\n", i+1, item.MediaID(), item.Caption())
		fmt.Printf("     by %s (%s)\n", item.Credit(), meta)
		fmt.Printf("     %s\n", item.PageURL())
	}

	if !page.IsLast(perPage) {
		fmt.Printf("\nMore results: --page %d\n", page.Page+1)
	}
}

// downloadItems queues items and waits until each one finished or failed
func downloadItems(items []media.Item) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	mgr, err := downloader.NewManager(db, &cfg.Downloads, logger)
	if err != nil {
		return fmt.Errorf("failed to create download manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, len(items))
	mgr.OnComplete(func(task downloader.Task) {
		fmt.Printf("✓ %s (%s)\n", task.OutputPath, humanize.Bytes(uint64(max(task.TotalBytes, task.BytesDownloaded))))
		done <- nil
	})
	mgr.OnError(func(task downloader.Task, err error) {
		fmt.Printf("✗ %d: %v\n", task.MediaID, err)
		done <- err
	})

	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start download manager: %w", err)
	}
	defer func() {
		if err := mgr.Stop(); err != nil {
			logger.Error("failed to stop download manager", "error", err)
		}
	}()

	pending := 0
	for _, item := range items {
		task, err := mgr.Enqueue(ctx, item)
		if errors.Is(err, downloader.ErrAlreadyQueued) {
			fmt.Printf("- %d: %v\n", item.MediaID(), err)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to queue %d: %w", item.MediaID(), err)
		}
		fmt.Printf("Queued %s\n", filepath.Base(task.OutputPath))
		pending++
	}

	var failed int
	for ; pending > 0; pending-- {
		select {
		case err := <-done:
			if err != nil {
				failed++
			}
		case <-ctx.Done():
			fmt.Println("Interrupted; unfinished downloads resume with: inspire download resume")
			return nil
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

// downloadCmd manages the persisted download queue
var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Manage downloads",
}

var downloadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued and finished downloads",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newDownloadManager()
		if err != nil {
			return err
		}

		tasks, err := mgr.GetQueue(context.Background())
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No downloads.")
			return nil
		}

		for _, task := range tasks {
			size := "?"
			if task.TotalBytes > 0 {
				size = humanize.Bytes(uint64(task.TotalBytes))
			}
			fmt.Printf("%-11s %s  %s %d  %s  %s\n",
				task.Status, task.ID[:8], task.MediaType, task.MediaID, size, humanize.Time(task.CreatedAt))
			fmt.Printf("            %s\n", task.OutputPath)
			if task.Error != "" {
				fmt.Printf("            error: %s\n", task.Error)
			}
		}
		return nil
	},
}

var downloadResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Run queued downloads until the queue is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newDownloadManager()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr.OnComplete(func(task downloader.Task) {
			fmt.Printf("✓ %s\n", task.OutputPath)
		})
		mgr.OnError(func(task downloader.Task, err error) {
			fmt.Printf("✗ %d: %v\n", task.MediaID, err)
		})

		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start download manager: %w", err)
		}
		defer func() {
			if err := mgr.Stop(); err != nil {
				logger.Error("failed to stop download manager", "error", err)
			}
		}()

		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for mgr.HasActiveDownloads() {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		fmt.Println("Download queue is empty.")
		return nil
	},
}

var downloadRetryCmd = &cobra.Command{
	Use:   "retry <task-id>",
	Short: "Queue a failed or cancelled download again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newDownloadManager()
		if err != nil {
			return err
		}
		id, err := resolveTaskID(mgr, args[0])
		if err != nil {
			return err
		}
		if err := mgr.Retry(context.Background(), id); err != nil {
			return err
		}
		fmt.Println("Queued again; run: inspire download resume")
		return nil
	},
}

var downloadRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a download record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newDownloadManager()
		if err != nil {
			return err
		}
		id, err := resolveTaskID(mgr, args[0])
		if err != nil {
			return err
		}
		return mgr.Remove(context.Background(), id)
	},
}

func init() {
	downloadCmd.AddCommand(downloadListCmd)
	downloadCmd.AddCommand(downloadResumeCmd)
	downloadCmd.AddCommand(downloadRetryCmd)
	downloadCmd.AddCommand(downloadRemoveCmd)
}

func newDownloadManager() (*downloader.Manager, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, err
	}
	mgr, err := downloader.NewManager(db, &cfg.Downloads, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create download manager: %w", err)
	}
	return mgr, nil
}

// resolveTaskID accepts a full task id or the 8 character prefix printed by list
func resolveTaskID(mgr *downloader.Manager, prefix string) (string, error) {
	tasks, err := mgr.GetQueue(context.Background())
	if err != nil {
		return "", err
	}
	var match string
	for _, task := range tasks {
		if strings.HasPrefix(task.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", prefix)
			}
			match = task.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no download with id %q", prefix)
	}
	return match, nil
}

// historyCmd shows recent searches
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Recent searches",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openDatabase()
		if err != nil {
			return err
		}
		entries, err := history.NewService(db).Recent(limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No searches yet.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%-30s %-7s %3dx  %s\n", e.Query.EffectiveTerm(), e.Query.Type(), e.UseCount, humanize.Time(e.LastUsed))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every recorded search",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := history.NewService(db).Clear(); err != nil {
			return err
		}
		fmt.Println("Search history cleared.")
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 20, "number of entries")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	// "inspire history" alone lists
	historyCmd.RunE = historyListCmd.RunE
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries")
}

// providersCmd inspects the proxy's upstream providers
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Upstream provider status",
}

var providersStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of the proxy's providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		health, err := api.NewClient(cfg, logger).Health(ctx)
		if err != nil {
			return fmt.Errorf("failed to reach proxy at %s: %w", cfg.API.BaseURL, err)
		}

		fmt.Printf("Proxy %s: %s\n", cfg.API.BaseURL, health.Status)
		for _, p := range health.Providers {
			mark := "✓"
			if !p.Healthy {
				mark = "✗"
			}
			checked := "never"
			if !p.LastCheck.IsZero() {
				checked = humanize.Time(p.LastCheck)
			}
			fmt.Printf("  %s %-10s %s (checked %s)\n", mark, p.Name, p.Status, checked)
		}
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersStatusCmd)
}
