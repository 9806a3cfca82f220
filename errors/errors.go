// Package errors provides error handling for stamp.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := catalog.Validate(); err != nil {
//	    return errors.Wrap(err, "failed to load catalog")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "check the pattern's format string")
//
//	// Check errors
//	if errors.Is(err, errors.ErrMalformedPattern) {
//	    // refuse to start
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapOnce     = crdb.UnwrapOnce
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors shared across stamp.
// Use these with errors.Is() and wrap them with errors.Wrap() to add context.
var (
	// ErrMalformedPattern indicates a catalog entry whose grammar and format
	// disagree. Raised when a catalog is built, never during annotation.
	ErrMalformedPattern = New("malformed pattern")

	// ErrUnparsableSpan indicates a matched span that no strict format or the
	// lenient parser could turn into a timestamp.
	ErrUnparsableSpan = New("unparsable span")

	// ErrCatalogVersion indicates a user catalog whose version constraint does
	// not admit the running binary.
	ErrCatalogVersion = New("catalog version mismatch")

	// ErrWideningBudget indicates the widening pass stopped at its cap.
	ErrWideningBudget = New("widening budget exhausted")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// IsMalformedPattern checks if an error is or wraps ErrMalformedPattern
func IsMalformedPattern(err error) bool {
	return err != nil && Is(err, ErrMalformedPattern)
}

// IsUnparsableSpan checks if an error is or wraps ErrUnparsableSpan
func IsUnparsableSpan(err error) bool {
	return err != nil && Is(err, ErrUnparsableSpan)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewMalformedPatternError creates a malformed-pattern error for the given
// pattern ID with a formatted reason
func NewMalformedPatternError(patternID string, format string, args ...interface{}) error {
	return Wrapf(ErrMalformedPattern, "pattern %q: %s", patternID, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
