package gallery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/justchokingaround/inspire/internal/media"
)

// SessionOptions configures a Session
type SessionOptions struct {
	PageSize int
	// FallbackTerm is searched when the query has neither term nor category
	FallbackTerm string
	// OnUpdate is called after every applied fetch, from the fetching goroutine
	OnUpdate func(Snapshot)
	Logger   *slog.Logger
}

// Session wires a QueryState, a Controller and a Sentinel together:
// a query change resets the controller and requests page 1, and the sentinel
// requests the following pages. Fetches run on their own goroutines.
type Session struct {
	state      *QueryState
	controller *Controller
	sentinel   *Sentinel
	opts       SessionOptions

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once

	// mu orders wg.Add in LoadMore against the final wg.Wait in Close
	mu     sync.Mutex
	closed bool
}

// NewSession creates a session over state. Nothing is fetched until Start.
func NewSession(ctx context.Context, state *QueryState, fetcher Fetcher, opts SessionOptions) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		state:      state,
		controller: NewController(fetcher, opts.PageSize, opts.Logger),
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.sentinel = NewSentinel(s.LoadMore, s.controller.Exhausted)
	s.unsubscribe = state.Subscribe(s.onQueryChange)
	return s
}

// Start loads the first page of the current query
func (s *Session) Start() {
	s.onQueryChange(s.state.Get())
}

// Controller returns the session's controller
func (s *Session) Controller() *Controller {
	return s.controller
}

// Sentinel returns the session's scroll sentinel
func (s *Session) Sentinel() *Sentinel {
	return s.sentinel
}

// Snapshot returns the current gallery state
func (s *Session) Snapshot() Snapshot {
	return s.controller.Snapshot()
}

// LoadMore issues the next page fetch unless one is already outstanding
func (s *Session) LoadMore() {
	s.mu.Lock()
	if s.closed || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	ticket, ok := s.controller.Begin()
	if !ok {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		applied, _ := s.controller.Apply(s.controller.Fetch(s.ctx, ticket))
		if applied && s.opts.OnUpdate != nil {
			s.opts.OnUpdate(s.controller.Snapshot())
		}
	}()
}

// Wait blocks until every issued fetch has completed
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close stops reacting to query changes and sentinel events, cancels
// outstanding fetches and waits for them
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.unsubscribe()
		s.sentinel.Close()
		s.cancel()
		s.wg.Wait()
	})
}

func (s *Session) onQueryChange(q media.Query) {
	if q.Validate() != nil && s.opts.FallbackTerm != "" {
		q.Term = s.opts.FallbackTerm
	}
	s.controller.ResetForNewQuery(q)
	s.LoadMore()
}
