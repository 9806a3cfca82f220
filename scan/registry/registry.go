// Package registry holds the spans recognised in one buffer and enforces
// that no two of them overlap. Conflicts are settled by display length, the
// longer span winning; equal lengths fall to a configurable tie-break.
package registry

import (
	"sort"
	"strings"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
)

// DefaultMarker is the placeholder character standing in for a resolved
// span in text handed back from a previous pass
const DefaultMarker = "￼"

// TieBreak decides conflicts between spans of equal display length
type TieBreak int

const (
	// TieCatalog keeps the span whose pattern comes first in the catalog;
	// the incumbent wins when both come from the same pattern.
	TieCatalog TieBreak = iota
	// TieLast keeps the most recently inserted span
	TieLast
)

func (t TieBreak) String() string {
	if t == TieLast {
		return "last"
	}
	return "catalog"
}

// ParseTieBreak reads a tie-break mode name
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catalog":
		return TieCatalog, nil
	case "last":
		return TieLast, nil
	}
	return TieCatalog, errors.NewInvalidRequestError("unknown tie-break %q (want catalog or last)", s)
}

// Reason explains an insertion outcome
type Reason string

const (
	ReasonInserted Reason = "inserted"
	// ReasonLonger means an intersecting span has a longer display
	ReasonLonger Reason = "longer_incumbent"
	// ReasonTieBreak means an intersecting span of equal length won the tie
	ReasonTieBreak Reason = "tie_break"
)

// Outcome reports what Insert did
type Outcome struct {
	Accepted  bool
	Reason    Reason
	Displaced []Span // spans removed to make room, when accepted
	Blocker   Span   // the span that kept the candidate out, when rejected
}

// Registry is an ordered set of non-overlapping spans. It is not safe for
// concurrent use; callers that share one serialise access or work on clones.
type Registry struct {
	spans    []Span // sorted by start; ends are strictly increasing too
	tieBreak TieBreak
}

// Option configures a Registry
type Option func(*Registry)

// WithTieBreak sets the equal-length conflict rule
func WithTieBreak(t TieBreak) Option {
	return func(r *Registry) { r.tieBreak = t }
}

// New returns an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TieBreak returns the registry's equal-length conflict rule
func (r *Registry) TieBreak() TieBreak {
	return r.tieBreak
}

// Len returns the number of held spans
func (r *Registry) Len() int {
	return len(r.spans)
}

// Spans returns the held spans in position order
func (r *Registry) Spans() []Span {
	out := make([]Span, len(r.spans))
	copy(out, r.spans)
	return out
}

// Clone returns an independent registry holding the same spans
func (r *Registry) Clone() *Registry {
	return &Registry{spans: r.Spans(), tieBreak: r.tieBreak}
}

// Query returns every held span intersecting [start, start+length].
// Touching boundaries count as intersecting.
func (r *Registry) Query(start, length int) []Span {
	end := start + length
	i := sort.Search(len(r.spans), func(i int) bool { return r.spans[i].End() >= start })
	var hits []Span
	for ; i < len(r.spans) && r.spans[i].Start() <= end; i++ {
		hits = append(hits, r.spans[i])
	}
	return hits
}

// Holds reports whether s itself is currently held
func (r *Registry) Holds(s Span) bool {
	return r.indexOf(s) >= 0
}

func (r *Registry) indexOf(s Span) int {
	i := sort.Search(len(r.spans), func(i int) bool { return r.spans[i].Start() >= s.Start() })
	if i < len(r.spans) && r.spans[i] == s {
		return i
	}
	return -1
}

// Insert offers candidate to the registry. It is rejected when any
// intersecting span has a longer display, or an equal one that wins the
// tie-break. Otherwise every intersecting span is displaced.
func (r *Registry) Insert(candidate Span) Outcome {
	hits := r.Query(candidate.Start(), candidate.End()-candidate.Start())
	n := displayLen(candidate)
	for _, h := range hits {
		held := displayLen(h)
		if held > n {
			return Outcome{Reason: ReasonLonger, Blocker: h}
		}
		if held == n && !r.candidateWinsTie(h, candidate) {
			return Outcome{Reason: ReasonTieBreak, Blocker: h}
		}
	}

	for _, h := range hits {
		r.remove(h)
	}
	i := sort.Search(len(r.spans), func(i int) bool { return r.spans[i].Start() > candidate.Start() })
	r.spans = append(r.spans, nil)
	copy(r.spans[i+1:], r.spans[i:])
	r.spans[i] = candidate

	return Outcome{Accepted: true, Reason: ReasonInserted, Displaced: hits}
}

func (r *Registry) candidateWinsTie(incumbent, candidate Span) bool {
	if r.tieBreak == TieLast {
		return true
	}
	return candidate.CatalogIndex() < incumbent.CatalogIndex()
}

func (r *Registry) remove(s Span) {
	if i := r.indexOf(s); i >= 0 {
		r.spans = append(r.spans[:i], r.spans[i+1:]...)
	}
}

// Replace swaps a held span for another covering the same range. It reports
// false when old is not held or the ranges differ.
func (r *Registry) Replace(old, replacement Span) bool {
	if old.Start() != replacement.Start() || old.End() != replacement.End() {
		return false
	}
	i := r.indexOf(old)
	if i < 0 {
		return false
	}
	r.spans[i] = replacement
	return true
}

// ScanStats counts the work of one Scan
type ScanStats struct {
	Matches   int
	Accepted  int
	Discarded int
}

// Scan runs every catalog pattern over text in catalog order and offers each
// match as a fresh span
func (r *Registry) Scan(c *catalog.Catalog, text string) ScanStats {
	var stats ScanStats
	for _, p := range c.Patterns() {
		for _, loc := range p.FindAll(text) {
			stats.Matches++
			out := r.Insert(NewFresh(loc[0], text[loc[0]:loc[1]], p.ID(), p.Index()))
			if out.Accepted {
				stats.Accepted++
			} else {
				stats.Discarded++
			}
		}
	}
	return stats
}

// Stale reasons produced by Reconcile
const (
	StaleNoMarkers  = "no_markers"
	StaleMoved      = "moved"
	StaleUnresolved = "unresolved"
)

// Reconcile re-anchors held spans against text from a later pass, in which
// resolved spans may have been collapsed to marker. Only resolved spans can
// sit at a marker; unresolved ones were rendered as their own text and are
// found again by the next scan.
//
// With no marker in text every span is dropped. When the markers and the
// resolved spans are equal in number and none of the spans still shows its
// own text at its old offset, they are paired in order. Otherwise a span is
// kept only if a marker sits exactly where it would be after every earlier
// span collapsed to a marker.
func (r *Registry) Reconcile(text, marker string) (kept []*Resolved, stale []*Stale) {
	if marker == "" {
		marker = DefaultMarker
	}

	var resolved []*Resolved
	for _, s := range r.spans {
		if res, ok := s.(*Resolved); ok {
			resolved = append(resolved, res)
		} else {
			stale = append(stale, NewStale(s, StaleUnresolved))
		}
	}
	r.spans = nil

	positions := markerPositions(text, marker)
	switch {
	case len(positions) == 0:
		for _, s := range resolved {
			stale = append(stale, NewStale(s, StaleNoMarkers))
		}
	case len(positions) == len(resolved) && !anyUncollapsed(text, marker, resolved):
		for i, s := range resolved {
			kept = append(kept, s.Anchor(positions[i], marker))
		}
	default:
		at := make(map[int]bool, len(positions))
		for _, p := range positions {
			at[p] = true
		}
		delta := 0
		for _, s := range resolved {
			expected := s.Start() + delta
			if at[expected] {
				kept = append(kept, s.Anchor(expected, marker))
			} else {
				stale = append(stale, NewStale(s, StaleMoved))
			}
			delta += len(marker) - len(s.Text())
		}
	}

	// adjacent markers touch, and touching spans intersect
	anchored := kept[:0]
	for _, s := range kept {
		if n := len(r.spans); n > 0 && r.spans[n-1].End() >= s.Start() {
			stale = append(stale, NewStale(s, StaleMoved))
			continue
		}
		r.spans = append(r.spans, s)
		anchored = append(anchored, s)
	}
	return anchored, stale
}

// anyUncollapsed reports whether some span's text is still in place, which
// means that span was never replaced by a marker. Spans already anchored at
// a marker are collapsed by definition.
func anyUncollapsed(text, marker string, spans []*Resolved) bool {
	for _, s := range spans {
		if s.Text() == marker {
			continue
		}
		if s.Start() <= len(text) && strings.HasPrefix(text[s.Start():], s.Text()) {
			return true
		}
	}
	return false
}

func markerPositions(text, marker string) []int {
	var positions []int
	for off := 0; ; {
		i := strings.Index(text[off:], marker)
		if i < 0 {
			return positions
		}
		positions = append(positions, off+i)
		off += i + len(marker)
	}
}
