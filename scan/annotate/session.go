package annotate

import (
	"sync"

	"github.com/google/uuid"

	"github.com/teranos/stamp/scan/registry"
)

// Session annotates successive versions of one buffer, carrying the spans
// of each pass into the next. Calls are serialised; a pass either completes
// and becomes the session's state or is not visible at all.
type Session struct {
	id     string
	engine *Engine

	mu     sync.Mutex
	reg    *registry.Registry
	passes int
}

// NewSession starts an editing session with no history
func (e *Engine) NewSession() *Session {
	return &Session{
		id:     uuid.New().String(),
		engine: e,
		reg:    registry.New(registry.WithTieBreak(e.tieBreak)),
	}
}

// ID identifies the session in logs and client messages
func (s *Session) ID() string {
	return s.id
}

// Annotate runs one pass over the current buffer text
func (s *Session) Annotate(text string) *AnnotatedText {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, next := s.engine.Annotate(s.reg, text)
	s.reg = next
	s.passes++
	return out
}

// Passes returns how many passes the session has run
func (s *Session) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// Spans returns the spans the next pass starts from
func (s *Session) Spans() []registry.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Spans()
}

// Reset forgets all history
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = registry.New(registry.WithTieBreak(s.engine.tieBreak))
	s.passes = 0
}
