package am

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingByKey(t *testing.T, in *ConfigIntrospection, key string) SettingInfo {
	t.Helper()
	for _, s := range in.Settings {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("setting %s not reported", key)
	return SettingInfo{}
}

func TestGetConfigIntrospection(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "am.toml")
	writeFile(t, path, `
[engine]
placeholder = "#"
`)
	t.Setenv("STAMP_LOG_JSON", "true")

	in, err := GetConfigIntrospection()
	require.NoError(t, err)
	assert.Equal(t, path, in.ConfigFile)

	placeholder := settingByKey(t, in, "engine.placeholder")
	assert.Equal(t, "#", placeholder.Value)
	assert.Equal(t, SourceProject, placeholder.Source)
	assert.Equal(t, path, placeholder.SourcePath)

	theme := settingByKey(t, in, "log.theme")
	assert.Equal(t, SourceDefault, theme.Source)

	logJSON := settingByKey(t, in, "log.json")
	assert.Equal(t, SourceEnvironment, logJSON.Source)
	assert.Equal(t, "STAMP_LOG_JSON", logJSON.SourcePath)

	for i := 1; i < len(in.Settings); i++ {
		assert.Less(t, in.Settings[i-1].Key, in.Settings[i].Key)
	}
}

func TestFlattenSettingsWithSources(t *testing.T) {
	settings := map[string]any{
		"server": map[string]any{
			"port":  7317,
			"burst": 40,
		},
		"log": map[string]any{"theme": "gruvbox"},
	}
	sources := map[string]SourceInfo{
		"log.theme": {Source: SourceUser, Path: "/home/u/.stamp/am.toml"},
	}

	in := &ConfigIntrospection{}
	flattenSettingsWithSources(settings, "", in, sources)

	require.Len(t, in.Settings, 3)
	assert.Equal(t, "log.theme", in.Settings[0].Key)
	assert.Equal(t, SourceUser, in.Settings[0].Source)
	assert.Equal(t, "server.burst", in.Settings[1].Key)
	assert.Equal(t, SourceDefault, in.Settings[1].Source)
	assert.Equal(t, "built-in default", in.Settings[1].SourcePath)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "STAMP_SERVER_MESSAGES_PER_SECOND", envKey("server.messages_per_second"))
	assert.Equal(t, "STAMP_ENGINE_TIE_BREAK", envKey("engine.tie_break"))
}
