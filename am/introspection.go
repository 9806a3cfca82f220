package am

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/teranos/stamp/errors"
)

// ConfigSource names the layer of the cascade a value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/stamp/am.toml
	SourceUser        ConfigSource = "user"        // ~/.stamp/am.toml
	SourceProject     ConfigSource = "project"     // nearest am.toml upwards
	SourceEnvironment ConfigSource = "environment" // STAMP_* env vars
)

// SourceInfo records where one key was set: a file path or an env var name
type SourceInfo struct {
	Source ConfigSource
	Path   string
}

// SettingInfo is one effective key with its origin
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      any          `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection lists every effective key, sorted, with its origin
type ConfigIntrospection struct {
	ConfigFile string        `json:"config_file"`
	Settings   []SettingInfo `json:"settings"`
}

// GetConfigIntrospection loads the cascade and reports where each key came from
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()

	in := &ConfigIntrospection{ConfigFile: v.ConfigFileUsed()}

	loadMu.Lock()
	defer loadMu.Unlock()
	flattenSettingsWithSources(v.AllSettings(), "", in, ConfigSources)
	return in, nil
}

func flattenSettingsWithSources(settings map[string]any, prefix string, in *ConfigIntrospection, sources map[string]SourceInfo) {
	for _, key := range slices.Sorted(maps.Keys(settings)) {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		if nested, ok := settings[key].(map[string]any); ok {
			flattenSettingsWithSources(nested, full, in, sources)
			continue
		}

		origin, ok := sources[full]
		if !ok {
			origin = SourceInfo{Source: SourceDefault, Path: "built-in default"}
		}
		if env := envKey(full); os.Getenv(env) != "" {
			origin = SourceInfo{Source: SourceEnvironment, Path: env}
		}

		in.Settings = append(in.Settings, SettingInfo{
			Key:        full,
			Value:      settings[key],
			Source:     origin.Source,
			SourcePath: origin.Path,
		})
	}
}

// envKey is the environment override for a dotted key:
// server.messages_per_second -> STAMP_SERVER_MESSAGES_PER_SECOND
func envKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
