package catalog

import (
	"regexp"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/scan/grammar"
)

// Extension matches an outer pattern's grammar with one occurrence of an
// inner pattern replaced by an opaque hole. The hole accepts exactly the
// buffer text of a previously recognised span.
type Extension struct {
	Outer      *Pattern
	Inner      *Pattern
	Occurrence int
	HoleText   string

	matcher *regexp.Regexp
	hole    int
}

// Match is one extension match over a buffer
type Match struct {
	Start, End         int
	HoleStart, HoleEnd int
}

// Expression returns the compiled matcher source
func (e *Extension) Expression() string {
	return e.matcher.String()
}

// FindAll runs the extension over text and returns every non-overlapping
// match together with where its hole landed
func (e *Extension) FindAll(text string) []Match {
	raw := e.matcher.FindAllStringSubmatchIndex(text, -1)
	matches := make([]Match, 0, len(raw))
	for _, m := range raw {
		matches = append(matches, Match{
			Start:     m[0],
			End:       m[1],
			HoleStart: m[2*e.hole],
			HoleEnd:   m[2*e.hole+1],
		})
	}
	return matches
}

// Extensions derives one extension matcher per occurrence of inner inside
// outer. An outer pattern that does not embed inner yields none. Results are
// cached per (outer, inner, holeText).
func (c *Catalog) Extensions(outer, inner *Pattern, holeText string) ([]*Extension, error) {
	if outer == nil || inner == nil {
		return nil, errors.AssertionFailedf("extension of nil pattern")
	}
	if holeText == "" {
		return nil, errors.NewInvalidRequestError("extension of %q needs a non-empty hole", outer.id)
	}

	key := extensionKey{outer: outer.id, inner: inner.id, hole: holeText}
	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	variants, err := grammar.Substitute(outer.nodes, inner.id, c.lookup)
	if err != nil {
		return nil, errors.Wrapf(err, "substitute %q into %q", inner.id, outer.id)
	}

	exts := make([]*Extension, 0, len(variants))
	for i, nodes := range variants {
		expr, err := grammar.Expression(nodes, c.lookup, holeText)
		if err != nil {
			return nil, errors.Wrapf(err, "extension %d of %q", i, outer.id)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, errors.Wrapf(err, "compile extension %d of %q", i, outer.id)
		}
		re.Longest()
		exts = append(exts, &Extension{
			Outer:      outer,
			Inner:      inner,
			Occurrence: i,
			HoleText:   holeText,
			matcher:    re,
			hole:       re.SubexpIndex(grammar.HoleGroup),
		})
	}

	c.mu.Lock()
	if len(c.cache) >= maxCachedExtensions {
		c.cache = make(map[extensionKey][]*Extension)
	}
	c.cache[key] = exts
	c.mu.Unlock()

	return exts, nil
}
