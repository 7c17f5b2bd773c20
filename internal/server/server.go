// Package server implements the HTTP search proxy. It keeps the upstream
// credential on the server and exposes a narrow JSON API to gallery clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/providers"
	"github.com/justchokingaround/inspire/internal/providers/api"
)

const (
	msgQueryRequired = "Query parameter is required"
	defaultPerPage   = api.MaxPageSize
)

// Server represents the search proxy
type Server struct {
	mu         sync.RWMutex
	cfg        config.ServerConfig
	maxPerPage int

	registry *providers.Registry
	cache    *api.PageCache
	logger   *slog.Logger
	handler  http.Handler
}

// New creates a new proxy server
func New(cfg *config.Config, registry *providers.Registry, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		registry: registry,
		logger:   logger,
	}
	s.applyConfig(cfg)
	if cfg.Cache.Enabled {
		s.cache = api.NewPageCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}
	s.setupRoutes()
	return s
}

func (s *Server) applyConfig(cfg *config.Config) {
	maxPerPage := cfg.Pexels.MaxPerPage
	if maxPerPage <= 0 || maxPerPage > api.MaxPageSize {
		maxPerPage = api.MaxPageSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Server
	s.maxPerPage = maxPerPage
}

// Reload applies a changed configuration: provider settings, page limits and cache TTL.
// Listen address changes need a restart.
func (s *Server) Reload(cfg *config.Config) {
	s.applyConfig(cfg)
	s.registry.ConfigureAll(cfg, s.logger)
	if s.cache != nil {
		s.cache.SetTTL(cfg.Cache.TTL)
		s.cache.Clear()
	}
	s.logger.Info("configuration reloaded")
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/search", getOnly(s.handleSearch))
	mux.HandleFunc("/api/health", getOnly(s.handleHealth))

	s.handler = s.loggingMiddleware(mux)
}

// Handler returns the root handler, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go s.registry.CheckAllProviders(ctx)

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("search proxy listening", "addr", listener.Addr().String())
		serverErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("shutting down search proxy")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleSearch proxies GET /api/search to the provider for the requested media type
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	term := strings.TrimSpace(q.Get("query"))
	if term == "" {
		writeError(w, http.StatusBadRequest, msgQueryRequired)
		return
	}

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "Invalid page parameter")
		return
	}

	perPage, err := intParam(q.Get("per_page"), defaultPerPage)
	if err != nil || perPage < 1 {
		writeError(w, http.StatusBadRequest, "Invalid per_page parameter")
		return
	}
	s.mu.RLock()
	if perPage > s.maxPerPage {
		perPage = s.maxPerPage
	}
	s.mu.RUnlock()

	mediaType, err := media.ParseMediaType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid type parameter")
		return
	}

	key := api.PageKey{MediaType: mediaType, Term: strings.ToLower(term), Page: page, PerPage: perPage}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("search cache hit", "key", key.String())
			writeJSON(w, http.StatusOK, api.NewSearchResponse(cached))
			return
		}
	}

	failMsg := fmt.Sprintf("Failed to fetch %s", mediaType)

	provider, err := s.registry.ForType(mediaType)
	if err != nil {
		s.logger.Error("no provider for search", "type", mediaType, "error", err)
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}

	result, err := provider.Search(r.Context(), providers.SearchRequest{
		Term:      term,
		MediaType: mediaType,
		Page:      page,
		PerPage:   perPage,
	})
	if err != nil {
		if errors.Is(err, media.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, msgQueryRequired)
			return
		}
		// Upstream details stay in the log
		s.logger.Error("upstream search failed",
			"provider", provider.Name(),
			"type", mediaType,
			"query", term,
			"page", page,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, failMsg)
		return
	}

	if s.cache != nil {
		s.cache.Set(key, result)
	}
	writeJSON(w, http.StatusOK, api.NewSearchResponse(result))
}

// handleHealth reports provider statuses; ?refresh=true re-runs the checks first
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		s.registry.CheckAllProviders(r.Context())
	}

	resp := api.HealthResponse{Status: "ok", Providers: []api.ProviderHealth{}}
	for _, st := range s.registry.GetProviderStatuses() {
		resp.Providers = append(resp.Providers, api.ProviderHealth{
			Name:      st.ProviderName,
			Healthy:   st.Healthy,
			Status:    st.Status,
			LastCheck: st.LastCheck,
		})
		if !st.Healthy {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg})
}
