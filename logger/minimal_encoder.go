package logger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette is one console colour theme
type palette struct {
	fg         string
	time       string
	components []string
	id         string
	number     string
	span       string
	lifecycle  string
	client     string
	warn       string
	warnBg     string
	err        string
	errBg      string
}

var palettes = map[string]palette{
	// Gruvbox Dark: warm, muted
	"gruvbox": {
		fg:         "\x1b[38;5;223m",
		time:       "\x1b[38;5;108m",
		components: []string{"\x1b[38;5;208m", "\x1b[38;5;214m"},
		id:         "\x1b[38;5;109m",
		number:     "\x1b[38;5;175m",
		span:       "\x1b[38;5;142m",
		lifecycle:  "\x1b[38;5;208m",
		client:     "\x1b[38;5;109m",
		warn:       "\x1b[38;5;214m",
		warnBg:     "\x1b[48;5;58m",
		err:        "\x1b[38;5;167m",
		errBg:      "\x1b[48;5;88m",
	},
	// Everforest Dark: forest greens
	"everforest": {
		fg:         "\x1b[38;5;223m",
		time:       "\x1b[38;5;107m",
		components: []string{"\x1b[38;5;108m", "\x1b[38;5;65m", "\x1b[38;5;208m"},
		id:         "\x1b[38;5;109m",
		number:     "\x1b[38;5;108m",
		span:       "\x1b[38;5;108m",
		lifecycle:  "\x1b[38;5;65m",
		client:     "\x1b[38;5;107m",
		warn:       "\x1b[38;5;179m",
		warnBg:     "\x1b[48;5;58m",
		err:        "\x1b[38;5;167m",
		errBg:      "\x1b[48;5;52m",
	},
}

// Current active theme (log.theme or STAMP_LOG_THEME)
var currentTheme = "everforest"

// SetTheme configures the colour scheme for console output. Unknown themes
// are ignored.
func SetTheme(theme string) {
	if _, ok := palettes[theme]; ok {
		currentTheme = theme
	}
}

// Themes lists the available console themes
func Themes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func colors() palette {
	return palettes[currentTheme]
}

func colorComponent(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	p := colors()
	return p.components[hash%len(p.components)]
}

func colorMessage(msg string) string {
	lower := strings.ToLower(msg)
	p := colors()
	switch {
	case containsAny(lower, "span", "widen", "annotat", "resolv"):
		return p.span
	case containsAny(lower, "client", "connect", "websocket", "session"):
		return p.client
	case containsAny(lower, "listen", "start", "stop", "config", "reload"):
		return p.lifecycle
	}
	return p.fg
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var quotedPattern = regexp.MustCompile(`"[^"]*"`)

// colorizeMessage highlights quoted buffer text inside a message
func colorizeMessage(msg string) string {
	base := colorMessage(msg)
	span := colors().span

	var out strings.Builder
	last := 0
	for _, m := range quotedPattern.FindAllStringIndex(msg, -1) {
		if m[0] > last {
			out.WriteString(base + msg[last:m[0]] + colorReset)
		}
		out.WriteString(colorBold + span + msg[m[0]:m[1]] + colorReset)
		last = m[1]
	}
	if last < len(msg) {
		out.WriteString(base + msg[last:] + colorReset)
	}
	return out.String()
}

// minimalEncoder implements a calm, compact console encoder with theme support
// Format: "13:04:35  s.widen  Span widened  at_time_on_date "at 13:30 on 21/03""
//
// Fields added through With() land in the embedded map encoder and are
// rendered after the entry's own fields.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

var bufferPool = buffer.NewPool()

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	p := colors()
	final := bufferPool.Get()

	final.AppendString(p.time)
	final.AppendString(ent.Time.Format("15:04:05"))
	final.AppendString(colorReset)

	// Level only for non-info entries
	if ent.Level != zapcore.InfoLevel {
		final.AppendString("  ")
		final.AppendString(levelColorString(ent.Level))
	}

	if ent.LoggerName != "" {
		final.AppendString("  ")
		final.AppendString(colorComponent(ent.LoggerName))
		final.AppendString(abbreviateName(ent.LoggerName))
		final.AppendString(colorReset)
	}

	final.AppendString("  ")
	final.AppendString(colorizeMessage(ent.Message))

	rendered := renderFields(fields)
	if ctx := enc.renderContext(); ctx != "" {
		rendered = strings.TrimSpace(rendered + " " + ctx)
	}
	if rendered != "" {
		final.AppendString("  ")
		final.AppendString(rendered)
	}

	final.AppendString("\n")
	return final, nil
}

// levelColorString returns bold + colored + background for non-info levels
func levelColorString(level zapcore.Level) string {
	p := colors()
	switch level {
	case zapcore.DebugLevel:
		return p.fg + "DEBUG" + colorReset
	case zapcore.WarnLevel:
		return colorBold + p.warnBg + p.warn + "WARN" + colorReset
	default:
		return colorBold + p.errBg + p.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens component names: scan.widen -> s.widen
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

// renderFields renders every field in order. Nothing is dropped.
func renderFields(fields []zapcore.Field) string {
	values := zapcore.NewMapObjectEncoder()

	var out []string
	for _, field := range fields {
		field.AddTo(values)
		v, ok := values.Fields[field.Key]
		if !ok {
			// Skip fields such as zap.Error(nil)
			continue
		}
		out = append(out, renderField(field.Key, v))
	}
	return strings.Join(out, " ")
}

func (enc *minimalEncoder) renderContext() string {
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = renderField(k, enc.Fields[k])
	}
	return strings.Join(out, " ")
}

// renderField shows pattern IDs and sessions bare, quotes spans, gives
// durations a unit and renders everything else as key=value
func renderField(key string, v interface{}) string {
	p := colors()
	val := fmt.Sprint(v)
	switch key {
	case FieldPattern, FieldSession, FieldClientID, FieldRequestID:
		return p.id + val + colorReset
	case FieldSpan:
		return colorBold + p.span + fmt.Sprintf("%q", val) + colorReset
	case FieldDurationMS:
		return p.number + val + colorReset + "ms"
	}
	return p.fg + key + "=" + colorReset + p.number + val + colorReset
}
