package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/version"
)

// printStartupBanner prints the server's startup summary
func printStartupBanner(w io.Writer, verbosity int, cfg *am.Config, patterns int, configFile string) {
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Fprintf(w, "\n%s%s   ┌─────────────────┐\n", cyan, bold)
	fmt.Fprintf(w, "   │  s t a m p  ⏱   │\n")
	fmt.Fprintf(w, "   └─────────────────┘%s\n\n", reset)

	fmt.Fprintf(w, "%s%s┌─ stamp ─────────────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Fprintf(w, "%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Fprintf(w, "%s│%s Listening: http://localhost:%d\n", green, reset, cfg.Server.Port)
	fmt.Fprintf(w, "%s│%s Patterns:  %d (tie-break %s)\n", green, reset, patterns, cfg.Engine.TieBreak)
	tz := cfg.Resolver.Timezone
	if tz == "" {
		tz = "local"
	}
	fmt.Fprintf(w, "%s│%s Timezone:  %s\n", green, reset, tz)
	fmt.Fprintf(w, "%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	if configFile != "" {
		fmt.Fprintf(w, "%s│%s Config:    %s (watched)\n", green, reset, configFile)
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		fmt.Fprintf(w, "%s│%s Origins:   %s\n", green, reset, strings.Join(cfg.Server.AllowedOrigins, ", "))
	}
	fmt.Fprintf(w, "%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Fprintf(w, "\n%s%sPress Ctrl+C to stop%s\n\n", yellow, bold, reset)
}
