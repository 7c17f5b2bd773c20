// Package pexels implements the stock-media provider backed by the Pexels API.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
	"github.com/justchokingaround/inspire/internal/providers"
	providerhttp "github.com/justchokingaround/inspire/internal/providers/http"
)

const (
	// Name is the registry name of the provider
	Name = "pexels"

	DefaultBaseURL = "https://api.pexels.com"

	// MaxPerPage is the largest page the upstream accepts
	MaxPerPage = 80

	photoSearchPath = "/v1/search"
	videoSearchPath = "/videos/search"
	curatedPath     = "/v1/curated"
)

// ErrMissingAPIKey is wrapped in the FetchError returned when no key is configured
var ErrMissingAPIKey = errors.New("PEXELS_API_KEY is not configured")

// Provider talks to the Pexels photo and video search endpoints
type Provider struct {
	mu         sync.RWMutex
	apiKey     string
	baseURL    string
	maxPerPage int
	client     *providerhttp.Client
	logger     *slog.Logger
}

type photoResponse struct {
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	TotalResults int            `json:"total_results"`
	NextPage     string         `json:"next_page"`
	Photos       []*media.Photo `json:"photos"`
}

type videoResponse struct {
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	TotalResults int            `json:"total_results"`
	NextPage     string         `json:"next_page"`
	Videos       []*media.Video `json:"videos"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// New creates a provider from the pexels section of cfg
func New(cfg *config.Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{logger: logger}
	p.SetConfig(cfg, logger)
	return p
}

// SetConfig applies a (re)loaded configuration; the API key can change at runtime
func (p *Provider) SetConfig(cfg *config.Config, logger *slog.Logger) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = p.logger
	}

	baseURL := strings.TrimRight(cfg.Pexels.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxPerPage := cfg.Pexels.MaxPerPage
	if maxPerPage <= 0 || maxPerPage > MaxPerPage {
		maxPerPage = MaxPerPage
	}

	client := providerhttp.NewClient(providerhttp.ClientConfig{
		Timeout:      cfg.Pexels.Timeout,
		DisableRetry: true,
		UserAgent:    "inspire/1.0",
		Debug:        cfg.Advanced.Debug,
		Logger:       logger,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.apiKey = strings.TrimSpace(cfg.Pexels.APIKey)
	p.baseURL = baseURL
	p.maxPerPage = maxPerPage
	p.client = client
	p.logger = logger
}

func (p *Provider) Name() string {
	return Name
}

func (p *Provider) MediaTypes() []media.MediaType {
	return []media.MediaType{media.MediaTypeImages, media.MediaTypeVideos}
}

// HealthURL is the endpoint HealthCheck requests
func (p *Provider) HealthURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseURL + curatedPath + "?per_page=1"
}

// Search fetches one page of photos or videos
func (p *Provider) Search(ctx context.Context, req providers.SearchRequest) (*media.ResultPage, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", media.ErrInvalidQuery)
	}
	if req.Page < 1 {
		req.Page = 1
	}

	p.mu.RLock()
	apiKey, baseURL, client, logger := p.apiKey, p.baseURL, p.client, p.logger
	perPage := clampPerPage(req.PerPage, p.maxPerPage)
	p.mu.RUnlock()

	if apiKey == "" {
		return nil, &media.FetchError{Message: ErrMissingAPIKey.Error(), Err: ErrMissingAPIKey}
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = media.MediaTypeImages
	}

	path := photoSearchPath
	if mediaType == media.MediaTypeVideos {
		path = videoSearchPath
	}

	params := map[string]string{
		"query":    term,
		"page":     strconv.Itoa(req.Page),
		"per_page": strconv.Itoa(perPage),
	}

	logger.Debug("pexels search", "type", mediaType, "term", term, "page", req.Page, "per_page", perPage)

	resp, err := client.Get(ctx, baseURL+path, params, map[string]string{"Authorization": apiKey})
	if err != nil {
		return nil, toFetchError(err)
	}

	page := &media.ResultPage{MediaType: mediaType}
	switch mediaType {
	case media.MediaTypeVideos:
		var body videoResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, &media.FetchError{StatusCode: resp.StatusCode(), Message: "failed to parse response", Err: err}
		}
		page.Items = make([]media.Item, 0, len(body.Videos))
		for _, v := range body.Videos {
			if v != nil {
				page.Items = append(page.Items, v)
			}
		}
		page.TotalResults, page.Page, page.PerPage = body.TotalResults, body.Page, body.PerPage
	default:
		var body photoResponse
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, &media.FetchError{StatusCode: resp.StatusCode(), Message: "failed to parse response", Err: err}
		}
		page.Items = make([]media.Item, 0, len(body.Photos))
		for _, ph := range body.Photos {
			if ph != nil {
				page.Items = append(page.Items, ph)
			}
		}
		page.TotalResults, page.Page, page.PerPage = body.TotalResults, body.Page, body.PerPage
	}

	// some upstream error paths omit paging fields
	if page.Page == 0 {
		page.Page = req.Page
	}
	if page.PerPage == 0 {
		page.PerPage = perPage
	}

	return page, nil
}

// HealthCheck requests a single curated photo
func (p *Provider) HealthCheck(ctx context.Context) error {
	p.mu.RLock()
	apiKey, baseURL, client := p.apiKey, p.baseURL, p.client
	p.mu.RUnlock()

	if apiKey == "" {
		return &media.FetchError{Message: ErrMissingAPIKey.Error(), Err: ErrMissingAPIKey}
	}

	_, err := client.Get(ctx, baseURL+curatedPath, map[string]string{"per_page": "1"}, map[string]string{"Authorization": apiKey})
	if err != nil {
		return toFetchError(err)
	}
	return nil
}

func clampPerPage(perPage, limit int) int {
	if perPage <= 0 || perPage > limit {
		return limit
	}
	return perPage
}

// toFetchError converts client errors into the media error taxonomy.
// Upstream bodies are reduced to their error field so nothing else leaks.
func toFetchError(err error) error {
	var statusErr *providerhttp.StatusError
	if errors.As(err, &statusErr) {
		msg := http.StatusText(statusErr.StatusCode)
		var body errorResponse
		if json.Unmarshal([]byte(statusErr.Body), &body) == nil {
			if body.Error != "" {
				msg = body.Error
			} else if body.Code != "" {
				msg = body.Code
			}
		}
		return &media.FetchError{StatusCode: statusErr.StatusCode, Message: msg, Err: err}
	}
	return &media.FetchError{Err: err}
}
