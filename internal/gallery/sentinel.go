package gallery

import "sync"

// Sentinel watches the boundary row after the last loaded item. The host
// reports visibility through SetVisible; each not-visible to visible
// transition fires the trigger once, unless the result set is exhausted.
//
// Repeated visible reports do not fire again. De-duplication of overlapping
// loads is left to the Controller's in-progress guard.
type Sentinel struct {
	mu        sync.Mutex
	visible   bool
	closed    bool
	trigger   func()
	exhausted func() bool
}

// NewSentinel creates a sentinel that starts out not visible.
// exhausted may be nil.
func NewSentinel(trigger func(), exhausted func() bool) *Sentinel {
	if exhausted == nil {
		exhausted = func() bool { return false }
	}
	return &Sentinel{trigger: trigger, exhausted: exhausted}
}

// SetVisible records the boundary's visibility and reports whether the
// trigger fired
func (s *Sentinel) SetVisible(visible bool) bool {
	s.mu.Lock()
	entered := visible && !s.visible
	s.visible = visible
	fire := entered && !s.closed && s.trigger != nil
	trigger := s.trigger
	s.mu.Unlock()

	if !fire || s.exhausted() {
		return false
	}
	trigger()
	return true
}

// Visible reports the last recorded visibility
func (s *Sentinel) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Close stops the sentinel; SetVisible never fires afterwards
func (s *Sentinel) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.trigger = nil
}
