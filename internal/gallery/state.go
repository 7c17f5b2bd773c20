// Package gallery holds the browsing core shared by every front end: the
// query state, the pagination controller and the scroll sentinel.
package gallery

import (
	"strings"
	"sync"

	"github.com/justchokingaround/inspire/internal/media"
)

type subscriber struct {
	id int
	fn func(media.Query)
}

// QueryState is the shared {term, category, media type} cell read and written
// by the search input and the gallery. Every effective change notifies
// subscribers synchronously, in subscription order, after the lock is released.
type QueryState struct {
	mu     sync.Mutex
	query  media.Query
	subs   []subscriber
	nextID int
}

// NewQueryState creates a state holding initial
func NewQueryState(initial media.Query) *QueryState {
	initial.MediaType = initial.Type()
	return &QueryState{query: initial}
}

// Get returns the current query
func (s *QueryState) Get() media.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Set replaces the whole query and reports whether anything changed
func (s *QueryState) Set(q media.Query) bool {
	q.Term = strings.TrimSpace(q.Term)
	q.MediaType = q.Type()
	return s.update(func(cur *media.Query) { *cur = q })
}

// SetTerm submits a typed search term
func (s *QueryState) SetTerm(term string) bool {
	term = strings.TrimSpace(term)
	return s.update(func(cur *media.Query) { cur.Term = term })
}

// SetCategory selects a category. A category pick replaces the typed term,
// the way the category bar works.
func (s *QueryState) SetCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	return s.update(func(cur *media.Query) {
		cur.Category = category
		cur.Term = ""
	})
}

// SetMediaType switches between images and videos
func (s *QueryState) SetMediaType(t media.MediaType) bool {
	if t == "" {
		t = media.MediaTypeImages
	}
	return s.update(func(cur *media.Query) { cur.MediaType = t })
}

// Reset clears the term and category and keeps the media type
func (s *QueryState) Reset() bool {
	return s.update(func(cur *media.Query) {
		cur.Term = ""
		cur.Category = ""
	})
}

// Subscribe registers fn for changes and returns its unsubscribe func
func (s *QueryState) Subscribe(fn func(media.Query)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *QueryState) update(mutate func(*media.Query)) bool {
	s.mu.Lock()
	next := s.query
	mutate(&next)
	if next == s.query {
		s.mu.Unlock()
		return false
	}
	s.query = next
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
	return true
}
