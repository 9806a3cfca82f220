package display

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/teranos/stamp/present"
	"github.com/teranos/stamp/scan/annotate"
)

// caret marks one span on the line beneath it
type caret struct {
	column int
	width  int
	label  string
}

// terminalLine accumulates one output line and the carets under it
type terminalLine struct {
	text   strings.Builder
	column int
	carets []caret
}

func (l *terminalLine) caretLine() string {
	var b strings.Builder
	col := 0
	var labels []string
	for _, c := range l.carets {
		if c.column > col {
			b.WriteString(strings.Repeat(" ", c.column-col))
			col = c.column
		}
		width := c.width
		if width < 1 {
			width = 1
		}
		b.WriteString(strings.Repeat("^", width))
		col += width
		if c.label != "" {
			labels = append(labels, c.label)
		}
	}
	if len(labels) > 0 {
		b.WriteString(" " + strings.Join(labels, ", "))
	}
	return b.String()
}

// renderTerminal prints the rendered text with spans highlighted, optional
// carets and formatted instants, then any diagnostics
func renderTerminal(w io.Writer, a *annotate.AnnotatedText, opts Options) error {
	paint := func(s string, style *pterm.Style) string {
		if opts.NoColor {
			return s
		}
		return style.Sprint(s)
	}
	spanStyle := pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	labelStyle := pterm.NewStyle(pterm.FgGray)

	var out strings.Builder
	line := &terminalLine{}
	flush := func() {
		out.WriteString(line.text.String())
		out.WriteString("\n")
		if opts.Carets && len(line.carets) > 0 {
			out.WriteString(paint(line.caretLine(), labelStyle))
			out.WriteString("\n")
		}
		line = &terminalLine{}
	}

	for _, seg := range a.Segments {
		if !seg.IsSpan() {
			parts := strings.Split(seg.Text, "\n")
			for i, part := range parts {
				if i > 0 {
					flush()
				}
				line.text.WriteString(part)
				line.column += runewidth.StringWidth(part)
			}
			continue
		}

		var label string
		if opts.Present != "" {
			formatted, err := present.Format(opts.in(*seg.Time), opts.Present, opts.now())
			if err != nil {
				return err
			}
			label = formatted
		}

		width := runewidth.StringWidth(seg.Display)
		line.text.WriteString(paint(seg.Display, spanStyle))
		if label != "" && !opts.Carets {
			label = " <" + label + ">"
			line.text.WriteString(paint(label, labelStyle))
			width += runewidth.StringWidth(label)
			line.carets = append(line.carets, caret{column: line.column, width: runewidth.StringWidth(seg.Display)})
		} else {
			line.carets = append(line.carets, caret{column: line.column, width: width, label: label})
		}
		line.column += width
	}
	// A trailing newline in the input does not add an empty line
	if line.text.Len() > 0 || out.Len() == 0 {
		flush()
	}

	ctx := annotate.FormatTerminal
	if opts.NoColor {
		ctx = annotate.FormatPlain
	}
	for i := range a.Diagnostics {
		out.WriteString(a.Diagnostics[i].Format(ctx))
		out.WriteString("\n")
	}

	_, err := io.WriteString(w, out.String())
	return err
}
