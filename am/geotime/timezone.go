// Package geotime resolves configured zone names to locations. Besides IANA
// names it accepts a handful of abbreviations, cities and country codes, so
// "PST", "amsterdam" and "NL" all work in resolver.timezone.
package geotime

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teranos/stamp/errors"
)

// aliases maps lower-cased shorthand to an IANA zone
var aliases = map[string]string{
	// abbreviations
	"pst": "America/Los_Angeles", "pdt": "America/Los_Angeles",
	"mst": "America/Denver", "mdt": "America/Denver",
	"cst": "America/Chicago", "cdt": "America/Chicago",
	"est": "America/New_York", "edt": "America/New_York",
	"bst": "Europe/London", "cet": "Europe/Berlin", "cest": "Europe/Berlin",
	"ist": "Asia/Kolkata", "jst": "Asia/Tokyo", "aest": "Australia/Sydney",

	// cities
	"amsterdam": "Europe/Amsterdam", "berlin": "Europe/Berlin",
	"london": "Europe/London", "paris": "Europe/Paris",
	"madrid": "Europe/Madrid", "stockholm": "Europe/Stockholm",
	"new york": "America/New_York", "chicago": "America/Chicago",
	"san francisco": "America/Los_Angeles", "los angeles": "America/Los_Angeles",
	"toronto": "America/Toronto", "sao paulo": "America/Sao_Paulo",
	"tokyo": "Asia/Tokyo", "singapore": "Asia/Singapore",
	"mumbai": "Asia/Kolkata", "sydney": "Australia/Sydney",

	// country codes
	"nl": "Europe/Amsterdam", "de": "Europe/Berlin", "gb": "Europe/London",
	"uk": "Europe/London", "fr": "Europe/Paris", "es": "Europe/Madrid",
	"se": "Europe/Stockholm", "us": "America/New_York", "ca": "America/Toronto",
	"br": "America/Sao_Paulo", "jp": "Asia/Tokyo", "sg": "Asia/Singapore",
	"in": "Asia/Kolkata", "au": "Australia/Sydney", "nz": "Pacific/Auckland",
}

// NormalizeTimezone turns user input into an IANA zone name
func NormalizeTimezone(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("timezone cannot be empty")
	}

	if tz, ok := aliases[strings.ToLower(trimmed)]; ok {
		return tz, nil
	}

	// Well-formed names like America/Port_of_Spain are kept as written
	if valid(trimmed) && !miscased(trimmed) {
		return trimmed, nil
	}
	if candidate := recase(trimmed); valid(candidate) {
		return candidate, nil
	}
	if valid(trimmed) {
		return trimmed, nil
	}

	return "", errors.Newf("unknown timezone: %s", input)
}

// DetectLocalTimezone reports the host zone, trying TZ, the runtime's
// location and the usual system files in turn
func DetectLocalTimezone() (string, error) {
	if tz := os.Getenv("TZ"); valid(tz) {
		return tz, nil
	}
	if name := time.Now().Location().String(); name != "Local" && valid(name) {
		return name, nil
	}
	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		if tz := recase(string(data)); valid(tz) {
			return tz, nil
		}
	}
	for _, link := range []string{"/etc/localtime", "/var/db/timezone/zoneinfo/localtime"} {
		if tz := zoneFromSymlink(link); tz != "" {
			return tz, nil
		}
	}
	return "", errors.New("could not detect local timezone")
}

func zoneFromSymlink(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return ""
	}
	_, rest, ok := strings.Cut(filepath.ToSlash(resolved), "zoneinfo/")
	if !ok || !valid(rest) {
		return ""
	}
	return rest
}

// recase title-cases each path element: "america/new york" -> "America/New_York"
func recase(tz string) string {
	tz = strings.ReplaceAll(strings.Trim(strings.TrimSpace(tz), `"'`), " ", "_")
	parts := strings.Split(tz, "/")
	for i, part := range parts {
		words := strings.Split(strings.ToLower(part), "_")
		for j, w := range words {
			if w != "" {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		parts[i] = strings.Join(words, "_")
	}
	return strings.Join(parts, "/")
}

func miscased(tz string) bool {
	if strings.ToLower(tz) == tz {
		return true
	}
	for _, part := range strings.Split(tz, "/") {
		if part != "" && part[0] >= 'a' && part[0] <= 'z' {
			return true
		}
	}
	return false
}

func valid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// ValidateTimezone reports whether tz is a loadable IANA name
func ValidateTimezone(tz string) error {
	if !valid(tz) {
		return errors.Newf("invalid timezone: %s", tz)
	}
	return nil
}

// LoadLocation resolves a configured zone name. Empty and "local" mean the
// host zone.
func LoadLocation(name string) (*time.Location, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "local":
		return time.Local, nil
	case "utc", "z":
		return time.UTC, nil
	}

	tz, err := NormalizeTimezone(name)
	if err != nil {
		return nil, errors.WithHint(err, "use an IANA name such as Europe/Amsterdam")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load timezone %s", tz)
	}
	return loc, nil
}
