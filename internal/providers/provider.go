package providers

import (
	"context"
	"time"

	"github.com/justchokingaround/inspire/internal/media"
)

// Provider defines the interface for stock-media search backends
type Provider interface {
	// Metadata
	Name() string
	MediaTypes() []media.MediaType

	// Search returns one page of results for the request
	Search(ctx context.Context, req SearchRequest) (*media.ResultPage, error)

	// Health check
	HealthCheck(ctx context.Context) error
}

// SearchRequest is a single upstream page request
type SearchRequest struct {
	Term      string
	MediaType media.MediaType
	Page      int
	PerPage   int
}

// NewSearchRequest builds a request from a gallery query
func NewSearchRequest(q media.Query, page, perPage int) SearchRequest {
	return SearchRequest{
		Term:      q.EffectiveTerm(),
		MediaType: q.Type(),
		Page:      page,
		PerPage:   perPage,
	}
}

// HealthEndpoint is implemented by providers that can describe the URL
// their health check hits, for display in `providers status`
type HealthEndpoint interface {
	HealthURL() string
}

// HealthCheckResult holds detailed health check information
type HealthCheckResult struct {
	URL         string
	CurlCommand string
	StatusCode  int
	Duration    time.Duration
	Error       string
	CheckedAt   time.Time
}

// ProviderStatus holds the health status of a provider
type ProviderStatus struct {
	ProviderName string             `json:"name"`
	Healthy      bool               `json:"healthy"`
	Status       string             `json:"status"` // e.g., "Online", "Offline: ...", "Checking..."
	LastCheck    time.Time          `json:"last_check"`
	LastResult   *HealthCheckResult `json:"-"`
}
