package display

import (
	"encoding/json"
	"io"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/stamp/errors"
)

// MarshalJSON marshals indented JSON, or a single line when compact
func MarshalJSON(v interface{}, compact bool) ([]byte, error) {
	if compact {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// Encode writes v as JSON, YAML or TOML. header, when set, becomes a leading
// comment for the formats that have comments.
func Encode(w io.Writer, v interface{}, format Format, header string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = MarshalJSON(v, false)
		if err == nil {
			data = append(data, '\n')
		}
	case FormatYAML:
		data, err = yaml.Marshal(v)
	case FormatTOML:
		data, err = toml.Marshal(v)
	default:
		return errors.NewInvalidRequestError("cannot encode as %s", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", format)
	}

	if header != "" && format != FormatJSON {
		if _, err := io.WriteString(w, "# "+header+"\n"); err != nil {
			return err
		}
	}
	_, err = w.Write(data)
	return err
}
