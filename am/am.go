// Package am holds stamp's configuration ("am" as in "I am configured as").
//
// Values come, lowest precedence first, from built-in defaults,
// /etc/stamp/am.toml, ~/.stamp/am.toml, the nearest am.toml found walking up
// from the working directory, and STAMP_* environment variables.
package am

// Config represents the stamp configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine" toml:"engine" json:"engine" yaml:"engine"`
	Resolver ResolverConfig `mapstructure:"resolver" toml:"resolver" json:"resolver" yaml:"resolver"`
	Catalog  CatalogConfig  `mapstructure:"catalog" toml:"catalog" json:"catalog" yaml:"catalog"`
	Server   ServerConfig   `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Log      LogConfig      `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// EngineConfig controls the annotation pass
type EngineConfig struct {
	// Placeholder is the marker that stands for an accepted span in an
	// edited buffer. Empty means the object replacement character.
	Placeholder string `mapstructure:"placeholder" toml:"placeholder" json:"placeholder" yaml:"placeholder"`

	// MaxWideningCandidates caps the extension matchers tried per pass. Must be
	// positive.
	MaxWideningCandidates int `mapstructure:"max_widening_candidates" toml:"max_widening_candidates" json:"max_widening_candidates" yaml:"max_widening_candidates"`

	// TieBreak decides equal-length conflicts: "catalog" or "last"
	TieBreak string `mapstructure:"tie_break" toml:"tie_break" json:"tie_break" yaml:"tie_break"`
}

// ResolverConfig controls how spans become instants
type ResolverConfig struct {
	// Timezone is an IANA name or a city keyword. Empty means the host zone.
	Timezone string `mapstructure:"timezone" toml:"timezone" json:"timezone" yaml:"timezone"`
	Lenient  bool   `mapstructure:"lenient" toml:"lenient" json:"lenient" yaml:"lenient"`
}

// CatalogConfig lists user catalog files appended to the builtin patterns
type CatalogConfig struct {
	Paths []string `mapstructure:"paths" toml:"paths" json:"paths" yaml:"paths"`
}

// ServerConfig configures `stamp serve`
type ServerConfig struct {
	Port           int      `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`

	// Per-connection websocket rate limit. 0 messages per second disables it.
	MessagesPerSecond float64 `mapstructure:"messages_per_second" toml:"messages_per_second" json:"messages_per_second" yaml:"messages_per_second"`
	Burst             int     `mapstructure:"burst" toml:"burst" json:"burst" yaml:"burst"`

	MaxMessageBytes int64 `mapstructure:"max_message_bytes" toml:"max_message_bytes" json:"max_message_bytes" yaml:"max_message_bytes"`
}

// LogConfig configures the process logger
type LogConfig struct {
	JSON  bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Theme string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"`
}
