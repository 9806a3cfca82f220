// Package grammar describes time-expression patterns as small structured
// grammars instead of raw regular-expression source.
//
// A grammar is a flat sequence of nodes. Sub nodes embed another pattern by
// ID, which is what lets the widening pass swap an embedded pattern for an
// opaque hole as a structural operation: the hole replaces a node, it is
// never spliced into expression text.
package grammar

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/teranos/stamp/errors"
)

// HoleGroup is the capture-group name of the hole in an extension matcher
const HoleGroup = "hole"

// maxDepth bounds Sub expansion; deeper nesting is treated as a cycle
const maxDepth = 16

// NodeKind discriminates grammar nodes
type NodeKind int

const (
	KindLiteral NodeKind = iota
	KindSpace
	KindField
	KindSub
	KindHole
)

// Node is one element of a grammar
type Node struct {
	Kind  NodeKind
	Text  string    // KindLiteral
	Field FieldKind // KindField
	Ref   string    // KindSub: referenced pattern ID
}

// Lit returns a literal node
func Lit(text string) Node { return Node{Kind: KindLiteral, Text: text} }

// Space returns a whitespace node
func Space() Node { return Node{Kind: KindSpace} }

// Field returns a field node
func Field(kind FieldKind) Node { return Node{Kind: KindField, Field: kind} }

// Sub returns a node embedding the pattern with the given ID
func Sub(ref string) Node { return Node{Kind: KindSub, Ref: ref} }

// Hole returns a placeholder node
func Hole() Node { return Node{Kind: KindHole} }

// Lookup returns the grammar of a referenced pattern
type Lookup func(id string) ([]Node, bool)

// Parse reads the grammar DSL.
//
//	[field]     calendar field, e.g. [HH] or [Month]
//	{id}        embedded pattern
//	spaces      one or more spaces
//	\x          literal x (escapes [, {, \ and space)
//	other text  literal
func Parse(src string) ([]Node, error) {
	var (
		nodes []Node
		lit   strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			nodes = append(nodes, Lit(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch r {
		case '\\':
			if i+size >= len(src) {
				return nil, errors.Newf("dangling escape at offset %d", i)
			}
			next, nsize := utf8.DecodeRuneInString(src[i+size:])
			lit.WriteRune(next)
			i += size + nsize
		case '[':
			end := strings.IndexByte(src[i:], ']')
			if end < 0 {
				return nil, errors.Newf("unterminated field at offset %d", i)
			}
			kind := FieldKind(src[i+1 : i+end])
			if !kind.Known() {
				return nil, errors.WithHint(
					errors.Newf("unknown field [%s]", kind),
					"known fields: "+fieldList())
			}
			flush()
			nodes = append(nodes, Field(kind))
			i += end + 1
		case '{':
			end := strings.IndexByte(src[i:], '}')
			if end < 0 {
				return nil, errors.Newf("unterminated reference at offset %d", i)
			}
			ref := src[i+1 : i+end]
			if !validRef(ref) {
				return nil, errors.Newf("invalid reference {%s}", ref)
			}
			flush()
			nodes = append(nodes, Sub(ref))
			i += end + 1
		case ' ':
			flush()
			for i < len(src) && src[i] == ' ' {
				i++
			}
			nodes = append(nodes, Space())
		default:
			lit.WriteRune(r)
			i += size
		}
	}
	flush()

	if len(nodes) == 0 {
		return nil, errors.New("empty grammar")
	}
	return nodes, nil
}

func validRef(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range ref {
		if !(r == '_' || r == '-' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// String renders nodes back to DSL form
func String(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case KindLiteral:
			for _, r := range n.Text {
				if r == '[' || r == '{' || r == '\\' || r == ' ' {
					b.WriteByte('\\')
				}
				b.WriteRune(r)
			}
		case KindSpace:
			b.WriteByte(' ')
		case KindField:
			b.WriteString("[" + string(n.Field) + "]")
		case KindSub:
			b.WriteString("{" + n.Ref + "}")
		case KindHole:
			b.WriteString("{?}")
		}
	}
	return b.String()
}

// Refs returns the IDs referenced directly by nodes, in order
func Refs(nodes []Node) []string {
	var refs []string
	for _, n := range nodes {
		if n.Kind == KindSub {
			refs = append(refs, n.Ref)
		}
	}
	return refs
}

// Expression renders nodes to regular-expression source. A Hole node matches
// exactly holeText and is captured as HoleGroup. Word boundaries are added at
// either edge whose first/last character is a word character, so a pattern
// never matches inside a longer run of digits or letters.
func Expression(nodes []Node, lookup Lookup, holeText string) (string, error) {
	body, err := expression(nodes, lookup, holeText, 0)
	if err != nil {
		return "", err
	}
	lead, err := edgeIsWord(nodes, lookup, holeText, true, 0)
	if err != nil {
		return "", err
	}
	trail, err := edgeIsWord(nodes, lookup, holeText, false, 0)
	if err != nil {
		return "", err
	}
	if lead {
		body = `\b` + body
	}
	if trail {
		body += `\b`
	}
	return body, nil
}

func expression(nodes []Node, lookup Lookup, holeText string, depth int) (string, error) {
	if depth > maxDepth {
		return "", errors.New("reference cycle")
	}
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case KindLiteral:
			b.WriteString(regexp.QuoteMeta(n.Text))
		case KindSpace:
			b.WriteString(` +`)
		case KindField:
			b.WriteString(`(?:` + fieldSpecs[n.Field].expr + `)`)
		case KindSub:
			sub, ok := lookup(n.Ref)
			if !ok {
				return "", errors.Newf("unknown reference {%s}", n.Ref)
			}
			inner, err := expression(sub, lookup, holeText, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(`(?:` + inner + `)`)
		case KindHole:
			b.WriteString(`(?P<` + HoleGroup + `>` + regexp.QuoteMeta(holeText) + `)`)
		}
	}
	return b.String(), nil
}

// Layout renders nodes to a Go time layout
func Layout(nodes []Node, lookup Lookup) (string, error) {
	return layout(nodes, lookup, 0)
}

func layout(nodes []Node, lookup Lookup, depth int) (string, error) {
	if depth > maxDepth {
		return "", errors.New("reference cycle")
	}
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case KindLiteral:
			b.WriteString(n.Text)
		case KindSpace:
			b.WriteByte(' ')
		case KindField:
			b.WriteString(fieldSpecs[n.Field].layout)
		case KindSub:
			sub, ok := lookup(n.Ref)
			if !ok {
				return "", errors.Newf("unknown reference {%s}", n.Ref)
			}
			inner, err := layout(sub, lookup, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(inner)
		case KindHole:
			return "", errors.New("holes have no layout")
		}
	}
	return b.String(), nil
}

// Components returns the calendar components pinned by nodes
func Components(nodes []Node, lookup Lookup) (Component, error) {
	return components(nodes, lookup, 0)
}

func components(nodes []Node, lookup Lookup, depth int) (Component, error) {
	if depth > maxDepth {
		return 0, errors.New("reference cycle")
	}
	var c Component
	for _, n := range nodes {
		switch n.Kind {
		case KindField:
			c |= fieldSpecs[n.Field].component
		case KindSub:
			sub, ok := lookup(n.Ref)
			if !ok {
				return 0, errors.Newf("unknown reference {%s}", n.Ref)
			}
			inner, err := components(sub, lookup, depth+1)
			if err != nil {
				return 0, err
			}
			c |= inner
		}
	}
	return c, nil
}

// Substitute returns one variant of nodes per occurrence of the pattern
// inner, with that single occurrence replaced by a Hole. Occurrences nested
// inside other embedded patterns are found by expanding those patterns in
// place; embedded patterns that do not contain inner stay as Sub nodes.
func Substitute(nodes []Node, inner string, lookup Lookup) ([][]Node, error) {
	return substitute(nodes, inner, lookup, 0)
}

func substitute(nodes []Node, inner string, lookup Lookup, depth int) ([][]Node, error) {
	if depth > maxDepth {
		return nil, errors.New("reference cycle")
	}
	var variants [][]Node
	for i, n := range nodes {
		if n.Kind != KindSub {
			continue
		}
		if n.Ref == inner {
			variants = append(variants, splice(nodes, i, []Node{Hole()}))
			continue
		}
		sub, ok := lookup(n.Ref)
		if !ok {
			return nil, errors.Newf("unknown reference {%s}", n.Ref)
		}
		nested, err := substitute(sub, inner, lookup, depth+1)
		if err != nil {
			return nil, err
		}
		for _, v := range nested {
			variants = append(variants, splice(nodes, i, v))
		}
	}
	return variants, nil
}

// Contains reports whether nodes embed inner at any depth
func Contains(nodes []Node, inner string, lookup Lookup) (bool, error) {
	variants, err := Substitute(nodes, inner, lookup)
	return len(variants) > 0, err
}

func splice(nodes []Node, at int, with []Node) []Node {
	out := make([]Node, 0, len(nodes)-1+len(with))
	out = append(out, nodes[:at]...)
	out = append(out, with...)
	out = append(out, nodes[at+1:]...)
	return out
}

// edgeIsWord reports whether the first (or last) character of any match is
// a regexp word character
func edgeIsWord(nodes []Node, lookup Lookup, holeText string, leading bool, depth int) (bool, error) {
	if depth > maxDepth {
		return false, errors.New("reference cycle")
	}
	if len(nodes) == 0 {
		return false, nil
	}
	n := nodes[len(nodes)-1]
	if leading {
		n = nodes[0]
	}
	switch n.Kind {
	case KindField:
		return true, nil
	case KindSpace:
		return false, nil
	case KindLiteral:
		return isWordEdge(n.Text, leading), nil
	case KindHole:
		return isWordEdge(holeText, leading), nil
	case KindSub:
		sub, ok := lookup(n.Ref)
		if !ok {
			return false, errors.Newf("unknown reference {%s}", n.Ref)
		}
		return edgeIsWord(sub, lookup, holeText, leading, depth+1)
	}
	return false, nil
}

func isWordEdge(s string, leading bool) bool {
	if s == "" {
		return false
	}
	var r rune
	if leading {
		r, _ = utf8.DecodeRuneInString(s)
	} else {
		r, _ = utf8.DecodeLastRuneInString(s)
	}
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
