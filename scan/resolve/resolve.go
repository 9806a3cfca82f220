// Package resolve turns the display text of a recognised span into a
// timestamp. Strict layouts from the catalog are tried first, in catalog
// order; a lenient natural-language parser is the fallback.
package resolve

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/catalog"
	"github.com/teranos/stamp/scan/grammar"
	"github.com/teranos/stamp/scan/registry"
)

// Resolution is a parsed timestamp and how it was obtained
type Resolution struct {
	Time      time.Time
	Via       registry.Via
	PatternID string // strict resolutions only
}

// Resolver parses span text against a reference clock. Safe for concurrent
// use.
type Resolver struct {
	catalog *catalog.Catalog
	now     func() time.Time
	loc     *time.Location
	lenient *when.Parser
}

// Option configures a Resolver
type Option func(*Resolver)

// WithNow sets the reference clock missing components are filled from
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLocation sets the zone strict layouts are interpreted in
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLenient enables or disables the natural-language fallback
func WithLenient(enabled bool) Option {
	return func(r *Resolver) {
		if !enabled {
			r.lenient = nil
			return
		}
		r.lenient = newLenientParser()
	}
}

func newLenientParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// New returns a resolver over the patterns of c
func New(c *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: c,
		now:     time.Now,
		loc:     time.Local,
		lenient: newLenientParser(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the zone strict layouts are interpreted in
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the reference instant in the resolver's zone
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Resolve parses text strictly, then leniently. Text neither stage accepts
// yields ErrUnparsableSpan.
func (r *Resolver) Resolve(text string) (Resolution, error) {
	text = strings.TrimSpace(text)
	if res, ok := r.strict(text); ok {
		return res, nil
	}

	if r.lenient != nil {
		found, err := r.lenient.Parse(text, r.Now())
		if err == nil && found != nil {
			return Resolution{Time: found.Time, Via: registry.ViaLenient}, nil
		}
	}

	return Resolution{}, errors.WithHint(
		errors.Wrapf(errors.ErrUnparsableSpan, "resolve %q", text),
		"the span is left as plain text")
}

// ResolveStrict parses text with the catalog layouts only
func (r *Resolver) ResolveStrict(text string) (Resolution, error) {
	text = strings.TrimSpace(text)
	if res, ok := r.strict(text); ok {
		return res, nil
	}
	return Resolution{}, errors.Wrapf(errors.ErrUnparsableSpan, "no strict layout accepts %q", text)
}

func (r *Resolver) strict(text string) (Resolution, bool) {
	ref := r.Now()
	for _, p := range r.catalog.Patterns() {
		parsed, err := time.ParseInLocation(p.Format(), text, r.loc)
		if err != nil {
			continue
		}
		t, ok := fill(parsed, p.Components(), ref, r.loc)
		if !ok {
			continue
		}
		return Resolution{Time: t, Via: registry.ViaStrict, PatternID: p.ID()}, true
	}
	return Resolution{}, false
}

// fill completes parsed with the components its layout does not pin: the
// reference year when there is no year, the reference date when there is no
// date, midnight when there is no time. A date that does not exist once
// completed (29 February in a common year) is rejected rather than rolled
// over.
func fill(parsed time.Time, have grammar.Component, ref time.Time, loc *time.Location) (time.Time, bool) {
	year, month, day := parsed.Date()
	if !have.Has(grammar.Year) {
		year = ref.Year()
	}
	if !have.Has(grammar.Month) && !have.Has(grammar.Day) {
		_, month, day = ref.Date()
	}

	t := time.Date(year, month, day, parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
