package gallery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/justchokingaround/inspire/internal/media"
)

// DefaultPageSize matches the upstream maximum
const DefaultPageSize = 80

// MaxPageSize is the most results the search API serves per page
const MaxPageSize = 80

// Fetcher retrieves one page of results. *api.Client satisfies it.
type Fetcher interface {
	FetchPage(ctx context.Context, q media.Query, page, pageSize int) (*media.ResultPage, error)
}

// FetcherFunc adapts a plain function to Fetcher
type FetcherFunc func(ctx context.Context, q media.Query, page, pageSize int) (*media.ResultPage, error)

func (f FetcherFunc) FetchPage(ctx context.Context, q media.Query, page, pageSize int) (*media.ResultPage, error) {
	return f(ctx, q, page, pageSize)
}

// Ticket identifies one issued fetch. Generation ties it to the query that
// was active when it was issued.
type Ticket struct {
	Generation uint64
	Query      media.Query
	Page       int
	PageSize   int
}

// Result is the outcome of a fetch, handed back to Apply
type Result struct {
	Ticket Ticket
	Page   *media.ResultPage
	Err    error
}

// Snapshot is a read-only copy of the gallery state
type Snapshot struct {
	Query        media.Query
	Items        []media.Item
	NextPage     int
	InProgress   bool
	Exhausted    bool
	TotalResults int
	LastErr      error
	Generation   uint64
}

// galleryState is replaced, never reset in place, on a query change
type galleryState struct {
	query        media.Query
	items        []media.Item
	nextPage     int
	inProgress   bool
	exhausted    bool
	totalResults int
	lastErr      error
}

func newGalleryState(q media.Query) *galleryState {
	return &galleryState{query: q, nextPage: 1}
}

// Controller drives incremental pagination for one gallery view.
//
// At most one fetch is outstanding at a time: Begin refuses while a fetch is
// in progress or the result set is exhausted. Results from a superseded query
// are dropped by Apply.
type Controller struct {
	mu         sync.Mutex
	fetcher    Fetcher
	pageSize   int
	logger     *slog.Logger
	state      *galleryState
	generation uint64
	hasQuery   bool
}

// NewController creates a controller with no active query
func NewController(fetcher Fetcher, pageSize int, logger *slog.Logger) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher:  fetcher,
		pageSize: pageSize,
		logger:   logger,
		state:    newGalleryState(media.Query{}),
	}
}

// PageSize returns the page size used for every fetch
func (c *Controller) PageSize() int {
	return c.pageSize
}

// ResetForNewQuery discards the current state and starts over at page 1 for q.
// Any fetch still in flight for the previous query becomes stale.
func (c *Controller) ResetForNewQuery(q media.Query) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.state = newGalleryState(q)
	c.hasQuery = true
	c.logger.Debug("gallery reset", "query", q.String(), "generation", c.generation)
}

// Begin marks a fetch as in progress and returns its ticket.
// It reports false when no fetch should be issued.
func (c *Controller) Begin() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	if !c.hasQuery || s.inProgress || s.exhausted {
		return Ticket{}, false
	}
	s.inProgress = true

	return Ticket{
		Generation: c.generation,
		Query:      s.query,
		Page:       s.nextPage,
		PageSize:   c.pageSize,
	}, true
}

// Fetch performs the network call for t. It does not touch the state.
func (c *Controller) Fetch(ctx context.Context, t Ticket) Result {
	page, err := c.fetcher.FetchPage(ctx, t.Query, t.Page, t.PageSize)
	if err == nil && page == nil {
		err = &media.FetchError{Message: "empty response"}
	}
	return Result{Ticket: t, Page: page, Err: err}
}

// Apply folds a fetch result into the state. A result from a superseded
// query is discarded and reported as not applied. A failed fetch leaves the
// items and next page untouched and returns the error.
func (c *Controller) Apply(res Result) (applied bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Ticket.Generation != c.generation {
		c.logger.Debug("discarding stale page",
			"query", res.Ticket.Query.String(),
			"page", res.Ticket.Page,
			"generation", res.Ticket.Generation,
			"current_generation", c.generation,
		)
		return false, nil
	}

	s := c.state
	s.inProgress = false

	if res.Err != nil {
		s.lastErr = res.Err
		c.logger.Error("failed to fetch page",
			"query", res.Ticket.Query.String(),
			"page", res.Ticket.Page,
			"error", res.Err,
		)
		return true, res.Err
	}

	page := res.Page
	s.lastErr = nil
	s.totalResults = page.TotalResults
	s.items = append(s.items, page.Items...)
	if len(page.Items) > 0 {
		s.nextPage = res.Ticket.Page + 1
	}

	// exhaustion is judged on the page just fetched, with the page size the
	// server actually used; the proxy may clamp per_page below ours
	served := res.Ticket.PageSize
	if page.PerPage > 0 {
		served = page.PerPage
	}
	fetched := media.ResultPage{Items: page.Items, TotalResults: page.TotalResults, Page: res.Ticket.Page}
	s.exhausted = fetched.IsLast(served)

	c.logger.Debug("page applied",
		"query", res.Ticket.Query.String(),
		"page", res.Ticket.Page,
		"items", len(page.Items),
		"accumulated", len(s.items),
		"total", page.TotalResults,
		"per_page", served,
		"exhausted", s.exhausted,
	)
	return true, nil
}

// RequestNextPage loads the next page, blocking until it has been applied.
// It is a no-op while a fetch is in progress or once exhausted.
func (c *Controller) RequestNextPage(ctx context.Context) error {
	ticket, ok := c.Begin()
	if !ok {
		return nil
	}
	_, err := c.Apply(c.Fetch(ctx, ticket))
	return err
}

// Exhausted reports whether the current query has no more pages
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.exhausted
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	items := make([]media.Item, len(s.items))
	copy(items, s.items)

	return Snapshot{
		Query:        s.query,
		Items:        items,
		NextPage:     s.nextPage,
		InProgress:   s.inProgress,
		Exhausted:    s.exhausted,
		TotalResults: s.totalResults,
		LastErr:      s.lastErr,
		Generation:   c.generation,
	}
}
