// Package annotate runs the full recognition pipeline over a text buffer:
// reconcile spans held from a previous pass, scan, widen, resolve and render.
//
// An Engine is stateless and may be shared. State that evolves across edits
// of one buffer lives in a registry the caller passes in and gets back, or
// in a Session, which holds it for the caller.
package annotate

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/registry"
	"github.com/teranos/stamp/scan/resolve"
	"github.com/teranos/stamp/scan/widen"
)

// Observer receives the outcome of every annotation pass
type Observer interface {
	ObserveAnnotation(stats Stats, took time.Duration)
}

// Engine annotates text. Safe for concurrent use.
type Engine struct {
	catalog       *catalog.Catalog
	resolver      *resolve.Resolver
	widener       *widen.Engine
	marker        string
	tieBreak      registry.TieBreak
	maxCandidates int
	log           *zap.SugaredLogger
	observer      Observer
}

// Option configures an Engine
type Option func(*Engine)

// WithCatalog sets the pattern catalog. The resolver, unless set
// explicitly, follows it.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithResolver sets the timestamp resolver
func WithResolver(r *resolve.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithMarker sets the placeholder marker recognised in re-submitted text
func WithMarker(marker string) Option {
	return func(e *Engine) {
		if marker != "" {
			e.marker = marker
		}
	}
}

// WithTieBreak sets the equal-length conflict rule
func WithTieBreak(t registry.TieBreak) Option {
	return func(e *Engine) { e.tieBreak = t }
}

// WithMaxWideningCandidates caps extension matchers per widening pass
func WithMaxWideningCandidates(n int) Option {
	return func(e *Engine) { e.maxCandidates = n }
}

// WithLogger sets the engine's logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithObserver registers an observer of annotation passes
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// New returns an engine over the built-in catalog unless configured
// otherwise
func New(opts ...Option) *Engine {
	e := &Engine{
		marker:        registry.DefaultMarker,
		tieBreak:      registry.TieCatalog,
		maxCandidates: widen.DefaultMaxCandidates,
		log:           zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = catalog.Builtin()
	}
	if e.resolver == nil {
		e.resolver = resolve.New(e.catalog)
	}
	e.widener = widen.New(e.catalog,
		widen.WithMaxCandidates(e.maxCandidates),
		widen.WithLogger(e.log))
	return e
}

// Catalog returns the engine's pattern catalog
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Marker returns the placeholder marker
func (e *Engine) Marker() string {
	return e.marker
}

// Text annotates text with no history
func (e *Engine) Text(text string) *AnnotatedText {
	out, _ := e.Annotate(nil, text)
	return out
}

// Annotate runs one pass over text. prev holds the spans of the previous
// pass over the same buffer, or nil. prev is not modified; the registry for
// the next pass is returned alongside the annotation.
func (e *Engine) Annotate(prev *registry.Registry, text string) (*AnnotatedText, *registry.Registry) {
	start := time.Now()
	out := &AnnotatedText{Text: text}

	reg := registry.New(registry.WithTieBreak(e.tieBreak))
	if prev != nil && prev.Len() > 0 {
		reg = prev.Clone()
		kept, stale := reg.Reconcile(text, e.marker)
		out.Stats.Anchored = len(kept)
		out.Stats.Stale = len(stale)
		if len(stale) > 0 {
			e.log.Debugw("Dropped stale spans",
				logger.FieldCount, len(stale),
				"kept", len(kept))
		}
	}

	scan := reg.Scan(e.catalog, text)
	out.Stats.Matches = scan.Matches
	out.Stats.ConflictDiscards = scan.Discarded

	if !hasCandidates(reg) {
		out.Segments = render(text, reg.Spans())
		e.finish(out, start)
		return out, reg
	}

	res, err := e.widener.Widen(reg, text)
	out.Stats.Widened = res.Accepted
	out.Stats.ConflictDiscards += res.Discarded
	if errors.Is(err, errors.ErrWideningBudget) {
		out.Diagnostics = append(out.Diagnostics, *NewDiagnostic(KindWideningBudget,
			"widening stopped early; longer expressions may be split").
			WithUnderlying(err).
			WithSuggestion("raise engine.max_widening_candidates"))
		e.log.Warnw("Widening budget exhausted", logger.FieldCount, res.Tried)
	}

	tracker := NewPositionTracker(text)
	for _, s := range reg.Spans() {
		if st := s.State(); st != registry.StateFresh && st != registry.StateExtended {
			continue
		}
		resolution, err := e.resolver.Resolve(s.Display())
		if err != nil {
			out.Stats.Unparsable++
			r := Range{Start: tracker.AdvanceTo(s.Start()), End: tracker.AdvanceTo(s.End())}
			out.Diagnostics = append(out.Diagnostics, *NewDiagnostic(KindUnparsableSpan,
				fmt.Sprintf("could not resolve %q", s.Display())).
				WithSeverity(SeverityInfo).
				WithRange(r).
				WithUnderlying(err))
			e.log.Debugw("Unparsable span",
				logger.FieldSpan, s.Display(),
				logger.FieldPattern, s.PatternID())
			continue
		}
		reg.Replace(s, registry.NewResolved(s, resolution.Time, resolution.Via))
		out.Stats.Resolved++
		if resolution.Via == registry.ViaLenient {
			out.Stats.Lenient++
		}
	}

	out.Segments = render(text, reg.Spans())
	e.finish(out, start)
	return out, reg
}

func (e *Engine) finish(out *AnnotatedText, start time.Time) {
	took := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveAnnotation(out.Stats, took)
	}
	e.log.Debugw("Annotated text",
		logger.FieldSize, len(out.Text),
		logger.FieldCount, len(out.Spans()),
		logger.FieldDurationMS, took.Milliseconds())
}

func hasCandidates(reg *registry.Registry) bool {
	for _, s := range reg.Spans() {
		if widen.Candidate(s) {
			return true
		}
	}
	return false
}
