package registry

import (
	"time"
	"unicode/utf8"
)

// State names the lifecycle stage of a span
type State int

const (
	StateFresh State = iota
	StateExtended
	StateResolved
	StateStale
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateExtended:
		return "extended"
	case StateResolved:
		return "resolved"
	case StateStale:
		return "stale"
	}
	return "unknown"
}

// Via records which resolver stage produced a timestamp
type Via string

const (
	ViaStrict  Via = "strict"
	ViaLenient Via = "lenient"
)

// Span is a recognised region of the buffer. The concrete type is one of
// *Fresh, *Extended, *Resolved or *Stale; spans are immutable and are
// replaced, never mutated, as they move through the lifecycle.
type Span interface {
	// Start is the byte offset of the span in the buffer
	Start() int
	// End is the exclusive byte offset of the span in the buffer
	End() int
	// Text is the buffer text the span covers
	Text() string
	// Display is the text the span stands for
	Display() string
	PatternID() string
	CatalogIndex() int
	State() State

	sealed()
}

type base struct {
	start     int
	text      string
	patternID string
	index     int
}

func (b base) Start() int         { return b.start }
func (b base) End() int           { return b.start + len(b.text) }
func (b base) Text() string       { return b.text }
func (b base) PatternID() string  { return b.patternID }
func (b base) CatalogIndex() int  { return b.index }
func (base) sealed()              {}

// Fresh is a span found by the current scan
type Fresh struct {
	base
}

// NewFresh returns a span for a direct pattern match
func NewFresh(start int, text, patternID string, index int) *Fresh {
	return &Fresh{base{start: start, text: text, patternID: patternID, index: index}}
}

func (f *Fresh) Display() string { return f.text }
func (f *Fresh) State() State    { return StateFresh }

// Extended is a span produced by widening: an enclosing pattern matched
// around an inner span.
type Extended struct {
	base
	extendedText string
	inner        Span
}

// NewExtended returns a widened span. text is the buffer text of the whole
// match; extendedText is the same text with the inner span's buffer text
// replaced by its display text.
func NewExtended(start int, text, patternID string, index int, extendedText string, inner Span) *Extended {
	return &Extended{
		base:         base{start: start, text: text, patternID: patternID, index: index},
		extendedText: extendedText,
		inner:        inner,
	}
}

func (e *Extended) Display() string { return e.extendedText }
func (e *Extended) State() State    { return StateExtended }

// Inner returns the span the extension grew from
func (e *Extended) Inner() Span { return e.inner }

// Resolved is a span carrying a timestamp
type Resolved struct {
	base
	display  string
	time     time.Time
	via      Via
	anchored bool
}

// NewResolved finalises s with the timestamp t
func NewResolved(s Span, t time.Time, via Via) *Resolved {
	r := &Resolved{
		base:    base{start: s.Start(), text: s.Text(), patternID: s.PatternID(), index: s.CatalogIndex()},
		display: s.Display(),
		time:    t,
		via:     via,
	}
	if prev, ok := s.(*Resolved); ok {
		r.anchored = prev.anchored
	}
	return r
}

func (r *Resolved) Display() string { return r.display }
func (r *Resolved) State() State    { return StateResolved }
func (r *Resolved) Time() time.Time { return r.time }
func (r *Resolved) Via() Via        { return r.via }

// Anchored reports whether the buffer text is a placeholder marker standing
// in for the display text
func (r *Resolved) Anchored() bool { return r.anchored }

// Anchor returns a copy of r whose buffer text is marker at start
func (r *Resolved) Anchor(start int, marker string) *Resolved {
	out := *r
	out.start = start
	out.text = marker
	out.anchored = true
	return &out
}

// Stale is a span dropped because the buffer changed under it. Registries
// never hold stale spans.
type Stale struct {
	base
	reason string
}

// NewStale marks s as dropped for reason
func NewStale(s Span, reason string) *Stale {
	return &Stale{
		base:   base{start: s.Start(), text: s.Text(), patternID: s.PatternID(), index: s.CatalogIndex()},
		reason: reason,
	}
}

func (s *Stale) Display() string { return s.text }
func (s *Stale) State() State    { return StateStale }
func (s *Stale) Reason() string  { return s.reason }

// displayLen is the length compared when spans conflict
func displayLen(s Span) int {
	return utf8.RuneCountInString(s.Display())
}

// IsAnchored reports whether s is a resolved span sitting at a marker
func IsAnchored(s Span) bool {
	r, ok := s.(*Resolved)
	return ok && r.anchored
}
