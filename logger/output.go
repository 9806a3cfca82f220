package logger

// Output controls what categories of information the CLI shows at each
// verbosity level. Unlike log levels, categories filter by kind of output.
//
//	0 (default) - annotated text, errors with hints
//	1 (-v)      - + per-file summaries, server startup
//	2 (-vv)     - + timing, loaded config, diagnostics
//	3 (-vvv)    - + every span decision
//	4 (-vvvv)   - + registry dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	OutputResults OutputCategory = iota // annotated text
	OutputErrors                        // errors with hints

	OutputProgress // per-file summaries
	OutputStartup  // banners, listen addresses

	OutputTiming      // pass durations
	OutputConfig      // config values loaded
	OutputDiagnostics // unparsable spans, widening budget

	OutputSpans // span decisions

	OutputDataDump // full registry contents
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:     VerbosityUser,
	OutputErrors:      VerbosityUser,
	OutputProgress:    VerbosityInfo,
	OutputStartup:     VerbosityInfo,
	OutputTiming:      VerbosityDebug,
	OutputConfig:      VerbosityDebug,
	OutputDiagnostics: VerbosityDebug,
	OutputSpans:       VerbosityTrace,
	OutputDataDump:    VerbosityAll,
}

var categoryNames = map[OutputCategory]string{
	OutputResults:     "results",
	OutputErrors:      "errors",
	OutputProgress:    "progress",
	OutputStartup:     "startup",
	OutputTiming:      "timing",
	OutputConfig:      "config",
	OutputDiagnostics: "diagnostics",
	OutputSpans:       "spans",
	OutputDataDump:    "data-dump",
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityAll
	}
	return verbosity >= minLevel
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
