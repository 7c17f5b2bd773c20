package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/justchokingaround/inspire/internal/config"
	"github.com/justchokingaround/inspire/internal/media"
	providerhttp "github.com/justchokingaround/inspire/internal/providers/http"
)

// MaxPageSize is the largest page the proxy serves
const MaxPageSize = 80

// Client handles communication with the search proxy
type Client struct {
	baseURL    string
	httpClient *providerhttp.Client
	timeout    time.Duration
	debug      bool
	logger     *slog.Logger
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	if cfg == nil {
		cfg = &config.Config{
			API: config.APIConfig{
				BaseURL: "http://127.0.0.1:8080",
				Timeout: 30 * time.Second,
			},
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	// Searches are never retried; a failed page is retried by the user scrolling again
	httpClient := providerhttp.NewClient(providerhttp.ClientConfig{
		Timeout:      cfg.API.Timeout,
		DisableRetry: true,
		UserAgent:    "inspire/1.0",
		Debug:        cfg.Advanced.Debug,
		Logger:       logger,
	})

	return &Client{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    cfg.API.Timeout,
		debug:      cfg.Advanced.Debug,
		logger:     logger,
	}
}

// BaseURL returns the proxy address the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClampPageSize maps 0 to the maximum and keeps everything else in [1, MaxPageSize]
func ClampPageSize(pageSize int) int {
	switch {
	case pageSize == 0:
		return MaxPageSize
	case pageSize < 1:
		return 1
	case pageSize > MaxPageSize:
		return MaxPageSize
	default:
		return pageSize
	}
}

// FetchPage retrieves one page of results for q.
// Invalid input fails with media.ErrInvalidQuery before any request is made;
// every other failure is a *media.FetchError.
func (c *Client) FetchPage(ctx context.Context, q media.Query, page, pageSize int) (*media.ResultPage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1, got %d", media.ErrInvalidQuery, page)
	}
	pageSize = ClampPageSize(pageSize)
	mediaType := q.Type()

	params := map[string]string{
		"query":    q.EffectiveTerm(),
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(pageSize),
		"type":     mediaType.String(),
	}

	var response SearchResponse
	if err := c.get(ctx, "/api/search", params, &response); err != nil {
		return nil, err
	}

	result := response.ResultPage(mediaType)
	// The proxy echoes paging fields; fall back to the request when it doesn't
	if result.Page == 0 {
		result.Page = page
	}
	if result.PerPage == 0 {
		result.PerPage = pageSize
	}
	return result, nil
}

// Health returns the proxy's provider statuses
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var response HealthResponse
	if err := c.get(ctx, "/api/health", nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, result interface{}) error {
	fullURL := c.baseURL + endpoint

	resp, err := c.httpClient.Get(ctx, fullURL, params, nil)
	if err != nil {
		var statusErr *providerhttp.StatusError
		if errors.As(err, &statusErr) && resp != nil {
			var errorResp ErrorResponse
			if jsonErr := json.Unmarshal(resp.Body(), &errorResp); jsonErr == nil && errorResp.Error != "" {
				return &media.FetchError{StatusCode: statusErr.StatusCode, Message: errorResp.Error, Err: err}
			}
			return &media.FetchError{StatusCode: statusErr.StatusCode, Message: http.StatusText(statusErr.StatusCode), Err: err}
		}
		return &media.FetchError{
			Message: fmt.Sprintf("HTTP request failed (is the proxy running at %s?)", c.baseURL),
			Err:     err,
		}
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return &media.FetchError{StatusCode: resp.StatusCode(), Message: "failed to parse response", Err: err}
	}

	return nil
}
