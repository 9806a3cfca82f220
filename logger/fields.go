package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across stamp.
// Use these constants instead of raw strings.
const (
	// Identity and context
	FieldRequestID = "request_id"
	FieldSession   = "session_id"
	FieldClientID  = "client_id"

	// Components
	FieldComponent = "component"
	FieldTransport = "transport"

	// HTTP
	FieldMethod = "method"
	FieldPath   = "path"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Status
	FieldStatus = "status"
	FieldState  = "state"

	// Files
	FieldFile = "file"

	// Network
	FieldAddress = "address"
	FieldPort    = "port"

	// Annotation
	FieldPattern = "pattern" // catalog pattern ID
	FieldSpan    = "span"    // matched buffer text
	FieldReason  = "reason"  // conflict or stale reason
	FieldMarker  = "marker"  // placeholder rune
)

// Context keys for propagating logging context
type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	sessionKey   contextKey = "logger_session_id"
	componentKey contextKey = "logger_component"
)

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithSession adds an editing session ID to the context for logging
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if sessionID, ok := ctx.Value(sessionKey).(string); ok && sessionID != "" {
		fields = append(fields, FieldSession, sessionID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
// The logger carries request_id, session_id and component when present.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	widen.New(c, widen.WithLogger(logger.ComponentLogger("scan.widen")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	connLogger := logger.ChildLogger(baseLogger, logger.FieldSession, s.ID())
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
