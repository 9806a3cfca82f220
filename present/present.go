// Package present renders resolved timestamps for people and for chat-style
// markup. Codes follow the familiar single-letter convention:
//
//	t  15:04
//	T  15:04:05
//	d  02/01/2006
//	D  2 January 2006
//	f  2 January 2006 15:04 (default)
//	F  Monday, 2 January 2006 15:04
//	R  relative: "in 2 hours", "3 days ago"
package present

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/teranos/stamp/errors"
)

// DefaultCode is used when no presentation code is given
const DefaultCode = "f"

var layouts = map[string]string{
	"t": "15:04",
	"T": "15:04:05",
	"d": "02/01/2006",
	"D": "2 January 2006",
	"f": "2 January 2006 15:04",
	"F": "Monday, 2 January 2006 15:04",
}

// Codes returns every supported presentation code
func Codes() []string {
	return []string{"t", "T", "d", "D", "f", "F", "R"}
}

// Valid reports whether code is a supported presentation code
func Valid(code string) bool {
	_, ok := layouts[code]
	return ok || code == "R"
}

func normalize(code string) (string, error) {
	if code == "" {
		return DefaultCode, nil
	}
	if !Valid(code) {
		return "", errors.NewInvalidRequestError("unknown presentation code %q (want one of %s)",
			code, strings.Join(Codes(), ", "))
	}
	return code, nil
}

// Format renders t with the presentation code. now anchors relative output.
func Format(t time.Time, code string, now time.Time) (string, error) {
	code, err := normalize(code)
	if err != nil {
		return "", err
	}
	if code == "R" {
		return Relative(t, now), nil
	}
	return t.Format(layouts[code]), nil
}

// Relative renders t relative to now
func Relative(t, now time.Time) string {
	if t.After(now) {
		rel := strings.TrimSpace(humanize.RelTime(t, now, "", ""))
		if rel == "now" {
			return rel
		}
		return "in " + rel
	}
	return humanize.RelTime(t, now, "ago", "")
}

// Markup renders t as a <t:UNIX:code> token
func Markup(t time.Time, code string) (string, error) {
	code, err := normalize(code)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), code), nil
}

var markupToken = regexp.MustCompile(`<t:(-?\d+)(?::([tTdDfFR]))?>`)

// ParseMarkup reads a single <t:UNIX:code> token. A token without a code
// uses the default.
func ParseMarkup(token string) (time.Time, string, error) {
	m := markupToken.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil || m[0] != strings.TrimSpace(token) {
		return time.Time{}, "", errors.NewInvalidRequestError("not a timestamp token: %q", token)
	}
	unix, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, "", errors.NewInvalidRequestError("timestamp out of range: %q", m[1])
	}
	code := m[2]
	if code == "" {
		code = DefaultCode
	}
	return time.Unix(unix, 0), code, nil
}

// Expand replaces every markup token in text with its rendering in loc
func Expand(text string, now time.Time, loc *time.Location) string {
	return markupToken.ReplaceAllStringFunc(text, func(token string) string {
		t, code, err := ParseMarkup(token)
		if err != nil {
			return token
		}
		out, err := Format(t.In(loc), code, now)
		if err != nil {
			return token
		}
		return out
	})
}
