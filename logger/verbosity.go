package logger

import "go.uber.org/zap/zapcore"

// Verbosity counts -v flags. It selects output categories (see output.go)
// as well as the zap level.
const (
	VerbosityUser  = 0 // results and errors only
	VerbosityInfo  = 1 // -v: progress, startup banner, per-file summaries
	VerbosityDebug = 2 // -vv: timing, config details, conflict discards
	VerbosityTrace = 3 // -vvv: every span decision
	VerbosityAll   = 4 // -vvvv: registry dumps
)

var verbosityNames = [...]string{"User", "Info (-v)", "Debug (-vv)", "Trace (-vvv)", "All (-vvvv)"}

// VerbosityToLevel maps a -v count to a zap level. zap stops at debug, so
// everything from -vv up logs at DebugLevel.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelName is the display name of a -v count
func LevelName(verbosity int) string {
	switch {
	case verbosity < 0:
		return "Unknown"
	case verbosity > VerbosityAll:
		return "All (-vvvv+)"
	}
	return verbosityNames[verbosity]
}
