package am

import (
	"github.com/spf13/viper"
)

const (
	// DefaultServerPort is the port `stamp serve` listens on
	DefaultServerPort = 7317

	DefaultMaxWideningCandidates = 256
	DefaultMaxMessageBytes       = 64 * 1024
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.placeholder", "")
	v.SetDefault("engine.max_widening_candidates", DefaultMaxWideningCandidates)
	v.SetDefault("engine.tie_break", "catalog")

	v.SetDefault("resolver.timezone", "")
	v.SetDefault("resolver.lenient", true)

	v.SetDefault("catalog.paths", []string{})

	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.messages_per_second", 20.0)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.max_message_bytes", DefaultMaxMessageBytes)

	v.SetDefault("log.json", false)
	v.SetDefault("log.theme", "everforest")
}
