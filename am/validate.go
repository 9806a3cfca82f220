package am

import (
	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Engine.TieBreak {
	case "", "catalog", "last":
	default:
		return errors.Newf("engine.tie_break must be \"catalog\" or \"last\", got %q", c.Engine.TieBreak)
	}

	if c.Engine.MaxWideningCandidates <= 0 {
		return errors.Newf("engine.max_widening_candidates must be > 0, got %d", c.Engine.MaxWideningCandidates)
	}

	if c.Resolver.Timezone != "" {
		if _, err := geotime.LoadLocation(c.Resolver.Timezone); err != nil {
			return errors.Wrap(err, "resolver.timezone")
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}

	// 0 = no rate limit, negative = invalid
	if c.Server.MessagesPerSecond < 0 {
		return errors.Newf("server.messages_per_second must be >= 0, got %f", c.Server.MessagesPerSecond)
	}
	if c.Server.MessagesPerSecond > 0 && c.Server.Burst <= 0 {
		return errors.Newf("server.burst must be > 0 when rate limiting, got %d", c.Server.Burst)
	}

	if c.Server.MaxMessageBytes < 0 {
		return errors.Newf("server.max_message_bytes must be >= 0, got %d", c.Server.MaxMessageBytes)
	}

	return nil
}
