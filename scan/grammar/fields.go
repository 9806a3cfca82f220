package grammar

import (
	"sort"
	"strings"
)

// Component is a bit set of calendar components a grammar pins down
type Component uint8

const (
	Year Component = 1 << iota
	Month
	Day
	Hour
	Minute
	Second
	Meridiem
)

// Has reports whether every component in want is present
func (c Component) Has(want Component) bool {
	return c&want == want
}

// HasDate reports whether month and day are both pinned
func (c Component) HasDate() bool {
	return c.Has(Month | Day)
}

// HasTime reports whether the hour is pinned
func (c Component) HasTime() bool {
	return c.Has(Hour)
}

// FieldKind names a calendar field usable inside [brackets] in the DSL
type FieldKind string

// fieldSpec is the matching expression, Go layout token and calendar
// component of one field kind. The expression and the layout token must
// accept the same strings.
type fieldSpec struct {
	expr      string
	layout    string
	component Component
}

// Month names match in any case except May, which must be capitalised so
// the modal verb in "I may 5 go" is left alone.
const (
	monthNames = `(?i:january|february|march|april|june|july|august|september|october|november|december)|May|MAY`
	monthAbbrs = `(?i:jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)|May|MAY`
)

var fieldSpecs = map[FieldKind]fieldSpec{
	"yyyy":  {expr: `\d{4}`, layout: "2006", component: Year},
	"MM":    {expr: `0[1-9]|1[0-2]`, layout: "01", component: Month},
	"M":     {expr: `1[0-2]|0?[1-9]`, layout: "1", component: Month},
	"Month": {expr: monthNames, layout: "January", component: Month},
	"Mon":   {expr: monthAbbrs, layout: "Jan", component: Month},
	"dd":    {expr: `0[1-9]|[12]\d|3[01]`, layout: "02", component: Day},
	"d":     {expr: `3[01]|[12]\d|0?[1-9]`, layout: "2", component: Day},
	"HH":    {expr: `[01]\d|2[0-3]`, layout: "15", component: Hour},
	"H":     {expr: `2[0-3]|1\d|0?\d`, layout: "15", component: Hour},
	"hh":    {expr: `0[1-9]|1[0-2]`, layout: "03", component: Hour},
	"h":     {expr: `1[0-2]|0?[1-9]`, layout: "3", component: Hour},
	"mm":    {expr: `[0-5]\d`, layout: "04", component: Minute},
	"ss":    {expr: `[0-5]\d`, layout: "05", component: Second},
	"ampm":  {expr: `am|pm`, layout: "pm", component: Meridiem},
	"AMPM":  {expr: `AM|PM`, layout: "PM", component: Meridiem},
}

// Known reports whether kind is a supported field
func (k FieldKind) Known() bool {
	_, ok := fieldSpecs[k]
	return ok
}

// Fields returns every supported field kind
func Fields() []FieldKind {
	kinds := make([]FieldKind, 0, len(fieldSpecs))
	for k := range fieldSpecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func fieldList() string {
	var b strings.Builder
	for i, k := range Fields() {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("[" + string(k) + "]")
	}
	return b.String()
}
