package annotate

import (
	"strings"
	"time"

	"github.com/teranos/stamp/scan/registry"
)

// SegmentKind discriminates segments of annotated text
type SegmentKind string

const (
	SegmentPlain SegmentKind = "plain"
	SegmentSpan  SegmentKind = "span"
)

// Segment is a run of the input text. Span segments carry the timestamp
// their text stands for.
type Segment struct {
	Kind  SegmentKind `json:"kind" yaml:"kind"`
	Text  string      `json:"text" yaml:"text"` // buffer text
	Start int         `json:"start" yaml:"start"`
	End   int         `json:"end" yaml:"end"`
	Range Range       `json:"range" yaml:"range"`

	PatternID string       `json:"pattern_id,omitempty" yaml:"pattern_id,omitempty"`
	Display   string       `json:"display,omitempty" yaml:"display,omitempty"`
	Time      *time.Time   `json:"time,omitempty" yaml:"time,omitempty"`
	Via       registry.Via `json:"via,omitempty" yaml:"via,omitempty"`
	Anchored  bool         `json:"anchored,omitempty" yaml:"anchored,omitempty"`
}

// IsSpan reports whether the segment is a recognised timestamp
func (s Segment) IsSpan() bool {
	return s.Kind == SegmentSpan
}

// Stats counts the work of one annotation pass
type Stats struct {
	Matches          int `json:"matches" yaml:"matches"`
	ConflictDiscards int `json:"conflict_discards" yaml:"conflict_discards"`
	Widened          int `json:"widened" yaml:"widened"`
	Resolved         int `json:"resolved" yaml:"resolved"`
	Lenient          int `json:"lenient" yaml:"lenient"`
	Unparsable       int `json:"unparsable" yaml:"unparsable"`
	Stale            int `json:"stale" yaml:"stale"`
	Anchored         int `json:"anchored" yaml:"anchored"`
}

// AnnotatedText is the result of one annotation pass: the input split into
// ordered plain and span segments
type AnnotatedText struct {
	Text        string       `json:"text" yaml:"text"`
	Segments    []Segment    `json:"segments" yaml:"segments"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Stats       Stats        `json:"stats" yaml:"stats"`
}

// Spans returns the span segments in order
func (a *AnnotatedText) Spans() []Segment {
	var spans []Segment
	for _, s := range a.Segments {
		if s.IsSpan() {
			spans = append(spans, s)
		}
	}
	return spans
}

// Rendered returns the text with every span replaced by its display text
func (a *AnnotatedText) Rendered() string {
	var b strings.Builder
	for _, s := range a.Segments {
		if s.IsSpan() {
			b.WriteString(s.Display)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Collapse returns the text with every span replaced by marker. Feeding the
// result back into the same session lets widening continue around the
// already resolved spans.
func (a *AnnotatedText) Collapse(marker string) string {
	if marker == "" {
		marker = registry.DefaultMarker
	}
	var b strings.Builder
	for _, s := range a.Segments {
		if s.IsSpan() {
			b.WriteString(marker)
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// render splits text around the held spans. Unresolved spans are emitted as
// plain text, except for any resolved span nested inside an extension.
func render(text string, spans []registry.Span) []Segment {
	var pieces []Segment
	for _, s := range spans {
		pieces = append(pieces, pieceOf(text, s)...)
	}

	var (
		segs []Segment
		pos  int
	)
	plain := func(end int) {
		if end <= pos {
			return
		}
		if n := len(segs); n > 0 && !segs[n-1].IsSpan() {
			segs[n-1].Text += text[pos:end]
			segs[n-1].End = end
		} else {
			segs = append(segs, Segment{Kind: SegmentPlain, Text: text[pos:end], Start: pos, End: end})
		}
		pos = end
	}
	for _, p := range pieces {
		plain(p.Start)
		if p.IsSpan() {
			segs = append(segs, p)
			pos = p.End
		}
	}
	plain(len(text))

	tracker := NewPositionTracker(text)
	for i := range segs {
		segs[i].Range = Range{Start: tracker.AdvanceTo(segs[i].Start), End: tracker.AdvanceTo(segs[i].End)}
	}
	return segs
}

// pieceOf returns the span segments inside s; everything else in s is left
// for the plain-text fill
func pieceOf(text string, s registry.Span) []Segment {
	switch v := s.(type) {
	case *registry.Resolved:
		t := v.Time()
		return []Segment{{
			Kind:      SegmentSpan,
			Text:      text[v.Start():v.End()],
			Start:     v.Start(),
			End:       v.End(),
			PatternID: v.PatternID(),
			Display:   v.Display(),
			Time:      &t,
			Via:       v.Via(),
			Anchored:  v.Anchored(),
		}}
	case *registry.Extended:
		return pieceOf(text, v.Inner())
	}
	return nil
}
