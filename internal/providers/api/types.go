package api

import (
	"time"

	"github.com/justchokingaround/inspire/internal/media"
)

// SearchResponse represents the proxy's search response.
// Exactly one of Photos or Videos is populated, matching the requested type.
type SearchResponse struct {
	Photos       []*media.Photo `json:"photos,omitempty"`
	Videos       []*media.Video `json:"videos,omitempty"`
	TotalResults int            `json:"total_results"`
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	NextPage     int            `json:"next_page,omitempty"` // 0 once the result set is exhausted
}

// NewSearchResponse converts a result page into its wire form
func NewSearchResponse(page *media.ResultPage) *SearchResponse {
	resp := &SearchResponse{
		TotalResults: page.TotalResults,
		Page:         page.Page,
		PerPage:      page.PerPage,
	}

	for _, item := range page.Items {
		switch v := item.(type) {
		case *media.Photo:
			resp.Photos = append(resp.Photos, v)
		case *media.Video:
			resp.Videos = append(resp.Videos, v)
		}
	}

	if !page.IsLast(page.PerPage) {
		resp.NextPage = page.Page + 1
	}
	return resp
}

// ResultPage converts the wire form back into a result page of mediaType
func (r *SearchResponse) ResultPage(mediaType media.MediaType) *media.ResultPage {
	page := &media.ResultPage{
		TotalResults: r.TotalResults,
		Page:         r.Page,
		PerPage:      r.PerPage,
		MediaType:    mediaType,
	}

	if mediaType == media.MediaTypeVideos {
		page.Items = make([]media.Item, 0, len(r.Videos))
		for _, v := range r.Videos {
			if v != nil {
				page.Items = append(page.Items, v)
			}
		}
		return page
	}

	page.Items = make([]media.Item, 0, len(r.Photos))
	for _, p := range r.Photos {
		if p != nil {
			page.Items = append(page.Items, p)
		}
	}
	return page
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status    string           `json:"status"` // "ok" when every provider is healthy, otherwise "degraded"
	Providers []ProviderHealth `json:"providers"`
}

// ProviderHealth is one provider's entry in HealthResponse
type ProviderHealth struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Status    string    `json:"status"`
	LastCheck time.Time `json:"last_check"`
}
