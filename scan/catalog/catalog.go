// Package catalog holds the ordered, immutable list of time-expression
// patterns the scanner tries. Every pattern pairs a structured grammar with
// a strict Go time layout; the two are checked against each other when the
// catalog is built, so a catalog that exists is internally consistent.
package catalog

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/grammar"
)

// referenceInstant is rendered through every layout to check that the
// pattern's expression accepts what its format produces. Day 21 and hour 13
// keep day/month and 12h/24h fields distinguishable.
var referenceInstant = time.Date(2006, time.March, 21, 13, 30, 45, 0, time.UTC)

// maxCachedExtensions bounds the extension-matcher cache
const maxCachedExtensions = 1024

// Definition is the declarative form of a pattern
type Definition struct {
	ID      string `toml:"id" json:"id" yaml:"id"`
	Grammar string `toml:"grammar" json:"grammar" yaml:"grammar"`
	Format  string `toml:"format" json:"format" yaml:"format"` // Go layout; derived from the grammar when empty
}

// Pattern is a compiled catalog entry
type Pattern struct {
	id         string
	index      int
	source     string
	nodes      []grammar.Node
	format     string
	components grammar.Component
	matcher    *regexp.Regexp
}

func (p *Pattern) ID() string                    { return p.id }
func (p *Pattern) Index() int                    { return p.index }
func (p *Pattern) Grammar() string               { return p.source }
func (p *Pattern) Format() string                { return p.format }
func (p *Pattern) Components() grammar.Component { return p.components }
func (p *Pattern) Expression() string            { return p.matcher.String() }

// FindAll returns the [start, end) byte offsets of every non-overlapping
// match in text
func (p *Pattern) FindAll(text string) [][]int {
	return p.matcher.FindAllStringIndex(text, -1)
}

// Catalog is an ordered set of patterns. Safe for concurrent use.
type Catalog struct {
	patterns  []*Pattern
	byID      map[string]*Pattern
	enclosing map[string][]*Pattern

	mu    sync.Mutex
	cache map[extensionKey][]*Extension
}

type extensionKey struct {
	outer, inner, hole string
}

// New compiles and validates defs in order. Any inconsistency is reported as
// ErrMalformedPattern naming the offending pattern.
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		byID:      make(map[string]*Pattern, len(defs)),
		enclosing: make(map[string][]*Pattern),
		cache:     make(map[extensionKey][]*Extension),
	}

	for i, def := range defs {
		if def.ID == "" {
			return nil, errors.NewMalformedPatternError("#"+strconv.Itoa(i), "missing id")
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, errors.NewMalformedPatternError(def.ID, "duplicate id")
		}
		nodes, err := grammar.Parse(def.Grammar)
		if err != nil {
			merr := errors.NewMalformedPatternError(def.ID, "grammar %q: %v", def.Grammar, err)
			if hint := errors.FlattenHints(err); hint != "" {
				merr = errors.WithHint(merr, hint)
			}
			return nil, merr
		}
		p := &Pattern{id: def.ID, index: i, source: def.Grammar, nodes: nodes, format: def.Format}
		c.patterns = append(c.patterns, p)
		c.byID[p.id] = p
	}

	for _, p := range c.patterns {
		if err := c.compile(p); err != nil {
			return nil, err
		}
	}

	for _, inner := range c.patterns {
		for _, outer := range c.patterns {
			if outer == inner {
				continue
			}
			ok, err := grammar.Contains(outer.nodes, inner.id, c.lookup)
			if err != nil {
				return nil, errors.NewMalformedPatternError(outer.id, "%v", err)
			}
			if ok {
				c.enclosing[inner.id] = append(c.enclosing[inner.id], outer)
			}
		}
	}

	return c, nil
}

func (c *Catalog) lookup(id string) ([]grammar.Node, bool) {
	p, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return p.nodes, true
}

func (c *Catalog) compile(p *Pattern) error {
	for _, ref := range grammar.Refs(p.nodes) {
		if ref == p.id {
			return errors.NewMalformedPatternError(p.id, "references itself")
		}
	}

	layout, err := grammar.Layout(p.nodes, c.lookup)
	if err != nil {
		return errors.NewMalformedPatternError(p.id, "%v", err)
	}
	if p.format == "" {
		p.format = layout
	} else if p.format != layout {
		return errors.WithHintf(
			errors.NewMalformedPatternError(p.id, "format %q does not match grammar layout %q", p.format, layout),
			"grammar %q renders as %q", p.source, layout)
	}

	p.components, err = grammar.Components(p.nodes, c.lookup)
	if err != nil {
		return errors.NewMalformedPatternError(p.id, "%v", err)
	}

	expr, err := grammar.Expression(p.nodes, c.lookup, "")
	if err != nil {
		return errors.NewMalformedPatternError(p.id, "%v", err)
	}
	p.matcher, err = regexp.Compile(expr)
	if err != nil {
		return errors.NewMalformedPatternError(p.id, "expression: %v", err)
	}
	p.matcher.Longest()

	rendered := referenceInstant.Format(p.format)
	if loc := p.matcher.FindStringIndex(rendered); loc == nil || loc[0] != 0 || loc[1] != len(rendered) {
		return errors.WithHint(
			errors.NewMalformedPatternError(p.id, "expression does not accept its own format's rendering %q", rendered),
			"literal text in the grammar may contain Go layout tokens such as Mon, Jan, PM or digits")
	}
	if _, err := time.Parse(p.format, rendered); err != nil {
		return errors.NewMalformedPatternError(p.id, "format %q cannot parse %q: %v", p.format, rendered, err)
	}
	return nil
}

// Patterns returns the patterns in catalog order
func (c *Catalog) Patterns() []*Pattern {
	out := make([]*Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Len returns the number of patterns
func (c *Catalog) Len() int {
	return len(c.patterns)
}

// Lookup returns the pattern with the given ID
func (c *Catalog) Lookup(id string) (*Pattern, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Enclosing returns, in catalog order, every pattern that embeds the given
// pattern at any depth
func (c *Catalog) Enclosing(id string) []*Pattern {
	return c.enclosing[id]
}

// Definitions returns the declarative form of every pattern
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, len(c.patterns))
	for i, p := range c.patterns {
		defs[i] = Definition{ID: p.id, Grammar: p.source, Format: p.format}
	}
	return defs
}
