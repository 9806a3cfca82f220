package display

import (
	"io"
	"strings"
	"time"

	"github.com/teranos/stamp/present"
	"github.com/teranos/stamp/scan/annotate"
	"github.com/teranos/stamp/scan/registry"
)

// Options control how annotated text is rendered
type Options struct {
	// Present is a presentation code (t, T, d, D, f, F, R). Empty leaves
	// spans unformatted in terminal and structured output; markup output
	// falls back to the default code.
	Present string

	// Carets underlines spans on a line of their own (terminal only)
	Carets bool

	// Now anchors relative presentation. Zero means time.Now.
	Now time.Time

	// Location converts instants before formatting. Nil keeps each
	// instant's own location.
	Location *time.Location

	NoColor bool
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func (o Options) in(t time.Time) time.Time {
	if o.Location == nil {
		return t
	}
	return t.In(o.Location)
}

// Document is the structured (JSON/YAML) form of an annotation pass
type Document struct {
	Text        string                `json:"text" yaml:"text"`
	Rendered    string                `json:"rendered" yaml:"rendered"`
	Spans       []Span                `json:"spans" yaml:"spans"`
	Diagnostics []annotate.Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Stats       annotate.Stats        `json:"stats" yaml:"stats"`
}

// Span is one resolved timestamp in a Document
type Span struct {
	Text      string         `json:"text" yaml:"text"`
	Display   string         `json:"display" yaml:"display"`
	Start     int            `json:"start" yaml:"start"`
	End       int            `json:"end" yaml:"end"`
	Range     annotate.Range `json:"range" yaml:"range"`
	Pattern   string         `json:"pattern" yaml:"pattern"`
	Time      time.Time      `json:"time" yaml:"time"`
	Unix      int64          `json:"unix" yaml:"unix"`
	Via       registry.Via   `json:"via" yaml:"via"`
	Anchored  bool           `json:"anchored,omitempty" yaml:"anchored,omitempty"`
	Formatted string         `json:"formatted,omitempty" yaml:"formatted,omitempty"`
	Markup    string         `json:"markup" yaml:"markup"`
}

// NewDocument builds the structured form of a. An invalid presentation code
// is returned as an error.
func NewDocument(a *annotate.AnnotatedText, opts Options) (*Document, error) {
	doc := &Document{
		Text:        a.Text,
		Rendered:    a.Rendered(),
		Spans:       []Span{},
		Diagnostics: a.Diagnostics,
		Stats:       a.Stats,
	}

	for _, seg := range a.Spans() {
		t := opts.in(*seg.Time)
		markup, err := present.Markup(t, opts.Present)
		if err != nil {
			return nil, err
		}
		span := Span{
			Text:     seg.Text,
			Display:  seg.Display,
			Start:    seg.Start,
			End:      seg.End,
			Range:    seg.Range,
			Pattern:  seg.PatternID,
			Time:     t,
			Unix:     t.Unix(),
			Via:      seg.Via,
			Anchored: seg.Anchored,
			Markup:   markup,
		}
		if opts.Present != "" {
			if span.Formatted, err = present.Format(t, opts.Present, opts.now()); err != nil {
				return nil, err
			}
		}
		doc.Spans = append(doc.Spans, span)
	}
	return doc, nil
}

// Markup returns the text with every span replaced by a <t:UNIX:code> token
func Markup(a *annotate.AnnotatedText, code string) (string, error) {
	var b strings.Builder
	for _, seg := range a.Segments {
		if !seg.IsSpan() {
			b.WriteString(seg.Text)
			continue
		}
		token, err := present.Markup(*seg.Time, code)
		if err != nil {
			return "", err
		}
		b.WriteString(token)
	}
	return b.String(), nil
}

// Render writes a in the requested format
func Render(w io.Writer, a *annotate.AnnotatedText, format Format, opts Options) error {
	switch format {
	case FormatJSON, FormatYAML:
		doc, err := NewDocument(a, opts)
		if err != nil {
			return err
		}
		return Encode(w, doc, format, "")
	case FormatMarkup:
		out, err := Markup(a, opts.Present)
		if err != nil {
			return err
		}
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatTerminal:
		return renderTerminal(w, a, opts)
	}
	_, err := ParseFormat(string(format), DocumentFormats()...)
	return err
}
