package annotate

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Severity indicates how much a diagnostic matters
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityHint    Severity = "hint"
)

// DiagnosticKind categorises diagnostics for programmatic handling
type DiagnosticKind string

const (
	KindUnparsableSpan   DiagnosticKind = "unparsable_span"   // matched text no resolver stage accepts
	KindWideningBudget   DiagnosticKind = "widening_budget"   // widening stopped at its cap
	KindMalformedPattern DiagnosticKind = "malformed_pattern" // catalog entry rejected at load
)

// FormatContext selects how a diagnostic renders
type FormatContext int

const (
	FormatPlain    FormatContext = iota // logs, JSON, web clients
	FormatTerminal                      // colored output for a TTY
)

// Diagnostic is a non-fatal finding of an annotation pass
type Diagnostic struct {
	Err         error          `json:"-" yaml:"-"`
	Kind        DiagnosticKind `json:"kind" yaml:"kind"`
	Severity    Severity       `json:"severity" yaml:"severity"`
	Message     string         `json:"message" yaml:"message"`
	Range       *Range         `json:"range,omitempty" yaml:"range,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

// NewDiagnostic creates a warning-severity diagnostic
func NewDiagnostic(kind DiagnosticKind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Severity: SeverityWarning, Message: message}
}

// WithRange sets the text region the diagnostic refers to
func (d *Diagnostic) WithRange(r Range) *Diagnostic {
	d.Range = &r
	return d
}

// WithSeverity sets the severity
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev
	return d
}

// WithSuggestion adds a suggestion
func (d *Diagnostic) WithSuggestion(suggestion string) *Diagnostic {
	d.Suggestions = append(d.Suggestions, suggestion)
	return d
}

// WithUnderlying sets the underlying error
func (d *Diagnostic) WithUnderlying(err error) *Diagnostic {
	d.Err = err
	return d
}

// Error implements error
func (d *Diagnostic) Error() string {
	return d.Format(FormatPlain)
}

// Unwrap for errors.Is/As compatibility
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// Format renders the diagnostic for ctx
func (d *Diagnostic) Format(ctx FormatContext) string {
	if ctx == FormatPlain {
		return d.formatPlain()
	}
	return d.formatTerminal()
}

func (d *Diagnostic) formatPlain() string {
	msg := d.Message
	if d.Range != nil {
		msg += fmt.Sprintf(" (line %d, character %d)", d.Range.Start.Line, d.Range.Start.Character)
	}
	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf(". Suggestions: %s", strings.Join(d.Suggestions, ", "))
	}
	return msg
}

func (d *Diagnostic) formatTerminal() string {
	var msg string
	switch d.Severity {
	case SeverityError:
		msg = pterm.Red(d.Message)
	case SeverityWarning:
		msg = pterm.Yellow(d.Message)
	case SeverityInfo:
		msg = pterm.Blue(d.Message)
	case SeverityHint:
		msg = pterm.LightCyan(d.Message)
	default:
		msg = d.Message
	}

	if d.Range != nil {
		msg += fmt.Sprintf("\n  %s %d:%d", pterm.Yellow("At:"), d.Range.Start.Line, d.Range.Start.Character)
	}
	if len(d.Suggestions) > 0 {
		msg += fmt.Sprintf("\n%s", pterm.Green("Suggestions:"))
		for _, suggestion := range d.Suggestions {
			msg += fmt.Sprintf("\n  • %s", suggestion)
		}
	}
	return msg
}
