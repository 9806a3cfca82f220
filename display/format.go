// Package display renders annotated text and configuration for the CLI
package display

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/stamp/errors"
)

// Format selects an output rendering
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkup   Format = "markup"
	FormatTOML     Format = "toml"
)

// DocumentFormats are the renderings available for annotated text
func DocumentFormats() []Format {
	return []Format{FormatTerminal, FormatJSON, FormatYAML, FormatMarkup}
}

// ParseFormat validates a --format value against the allowed formats
func ParseFormat(s string, allowed ...Format) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, len(allowed))
	for i, a := range allowed {
		if f == a {
			return f, nil
		}
		names[i] = string(a)
	}
	return "", errors.NewInvalidRequestError("unsupported format: %s (supported: %s)", s, strings.Join(names, ", "))
}

// FormatFromCommand reads the command's --format flag. The root --json flag
// is a shortcut that wins when set.
func FormatFromCommand(cmd *cobra.Command, allowed ...Format) (Format, error) {
	if cmd == nil {
		return allowed[0], nil
	}
	if jsonFlag, err := cmd.Flags().GetBool("json"); err == nil && jsonFlag {
		return ParseFormat(string(FormatJSON), allowed...)
	}
	value, err := cmd.Flags().GetString("format")
	if err != nil || value == "" {
		return allowed[0], nil
	}
	return ParseFormat(value, allowed...)
}
