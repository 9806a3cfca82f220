// Package widen grows recognised spans into larger enclosing expressions.
//
// For a span matched by pattern P, every catalog pattern that embeds P is
// tried with that occurrence of P replaced by a hole accepting exactly the
// span's buffer text. A match whose hole lands on the span is offered to the
// registry as an Extended span, and if accepted is itself widened in turn.
package widen

import (
	"go.uber.org/zap"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/registry"
)

// DefaultMaxCandidates bounds the extension matchers tried in one pass
const DefaultMaxCandidates = 256

// Result counts the work of one widening pass
type Result struct {
	Tried     int // extension matchers run
	Proposed  int // matches whose hole landed on the span
	Accepted  int
	Discarded int
	Exhausted bool // stopped at the candidate cap
}

// Engine widens spans held in a registry. Safe for concurrent use with
// distinct registries.
type Engine struct {
	catalog       *catalog.Catalog
	maxCandidates int
	log           *zap.SugaredLogger
}

// Option configures an Engine
type Option func(*Engine)

// WithMaxCandidates sets the per-pass cap on extension matchers
func WithMaxCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCandidates = n
		}
	}
}

// WithLogger sets the engine's logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New returns a widening engine over the patterns of c
func New(c *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		catalog:       c,
		maxCandidates: DefaultMaxCandidates,
		log:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type candidateKey struct {
	start, end int
	pattern    string
}

// Candidate reports whether s is eligible for widening: freshly scanned, or
// resolved on a previous pass and anchored at a placeholder marker
func Candidate(s registry.Span) bool {
	return s.State() == registry.StateFresh || registry.IsAnchored(s)
}

// Widen runs one pass over reg against text. Reaching the candidate cap
// stops the pass early; the registry is left consistent.
func (e *Engine) Widen(reg *registry.Registry, text string) (Result, error) {
	var (
		res   Result
		queue []registry.Span
		seen  = make(map[candidateKey]bool)
	)
	for _, s := range reg.Spans() {
		if Candidate(s) {
			queue = append(queue, s)
		}
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		key := candidateKey{start: s.Start(), end: s.End(), pattern: s.PatternID()}
		if seen[key] || !reg.Holds(s) {
			continue
		}
		seen[key] = true

		inner, ok := e.catalog.Lookup(s.PatternID())
		if !ok {
			continue
		}

		for _, outer := range e.catalog.Enclosing(inner.ID()) {
			exts, err := e.catalog.Extensions(outer, inner, s.Text())
			if err != nil {
				e.log.Debugw("Skipping extension",
					logger.FieldPattern, outer.ID(),
					logger.FieldError, err)
				continue
			}

			for _, ext := range exts {
				if res.Tried >= e.maxCandidates {
					res.Exhausted = true
					return res, errors.Wrapf(errors.ErrWideningBudget,
						"stopped after %d extension matchers", res.Tried)
				}
				res.Tried++

				grown, ok := e.extend(reg, text, s, ext, &res)
				if ok {
					queue = append(queue, grown)
					break
				}
			}
			if !reg.Holds(s) {
				break
			}
		}
	}

	return res, nil
}

// extend runs one extension matcher and offers the match whose hole sits
// exactly on s
func (e *Engine) extend(reg *registry.Registry, text string, s registry.Span, ext *catalog.Extension, res *Result) (registry.Span, bool) {
	for _, m := range ext.FindAll(text) {
		if m.HoleStart != s.Start() || m.HoleEnd != s.End() {
			continue
		}
		res.Proposed++

		display := text[m.Start:m.HoleStart] + s.Display() + text[m.HoleEnd:m.End]
		grown := registry.NewExtended(m.Start, text[m.Start:m.End], ext.Outer.ID(), ext.Outer.Index(), display, s)

		out := reg.Insert(grown)
		if !out.Accepted {
			res.Discarded++
			e.log.Debugw("Extension discarded",
				logger.FieldPattern, ext.Outer.ID(),
				logger.FieldSpan, display,
				logger.FieldReason, out.Reason)
			return nil, false
		}
		res.Accepted++
		e.log.Debugw("Span widened",
			logger.FieldPattern, ext.Outer.ID(),
			logger.FieldSpan, display,
			logger.FieldCount, len(out.Displaced))
		return grown, true
	}
	return nil, false
}
