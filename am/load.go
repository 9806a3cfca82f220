package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/stamp/errors"
)

// EnvPrefix is prepended to environment overrides: STAMP_ENGINE_TIE_BREAK
const EnvPrefix = "STAMP"

// ConfigFileName is the name searched for in each config location
const ConfigFileName = "am.toml"

var (
	globalConfig  *Config
	viperInstance *viper.Viper
	loadMu        sync.Mutex

	// ConfigSources records which file last set each key during loading
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the stamp configuration using Viper
func Load() (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	loadMu.Lock()
	defer loadMu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// Defaults only, no environment binding for an explicit file
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold loadMu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// system -> user -> project, env vars win over all files
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory looking for am.toml
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Reload drops the cached configuration and loads it again from every source
func Reload() (*Config, error) {
	Reset()
	return Load()
}

// CandidateFile is one file the loader considers
type CandidateFile struct {
	Source ConfigSource `json:"source"`
	Path   string       `json:"path"`
	Exists bool         `json:"exists"`
}

// CandidateFiles lists the files Load considers, lowest precedence first
func CandidateFiles() []CandidateFile {
	var out []CandidateFile
	for _, c := range configPaths() {
		_, err := os.Stat(c.path)
		out = append(out, CandidateFile{Source: c.source, Path: c.path, Exists: err == nil})
	}
	return out
}

type configFile struct {
	source ConfigSource
	path   string
}

// configPaths lists candidate config files, lowest precedence first
func configPaths() []configFile {
	paths := []configFile{{SourceSystem, filepath.Join("/etc/stamp", ConfigFileName)}}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, configFile{SourceUser, filepath.Join(homeDir, ".stamp", ConfigFileName)})
	}

	if project := findProjectConfig(); project != "" {
		paths = append(paths, configFile{SourceProject, project})
	}

	return paths
}

// mergeConfigFiles merges configuration files in precedence order and
// records the source of every key it sets
func mergeConfigFiles(v *viper.Viper) {
	seen := map[string]bool{}
	for _, candidate := range configPaths() {
		abs, err := filepath.Abs(candidate.path)
		if err == nil {
			candidate.path = abs
		}
		// The project search may land on the user file when run from $HOME
		if seen[candidate.path] {
			continue
		}
		seen[candidate.path] = true

		if _, err := os.Stat(candidate.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(candidate.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// MergeConfigMap keeps file values below environment overrides
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = SourceInfo{Source: candidate.source, Path: candidate.path}
		}
		v.SetConfigFile(candidate.path)
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}
