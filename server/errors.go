package server

import (
	"net/http"

	"github.com/teranos/stamp/errors"
)

// Sentinel errors the transports map to status codes
var (
	// ErrServiceUnavailable indicates the server is draining
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrMessageTooLarge indicates a body or frame over server.max_message_bytes
	ErrMessageTooLarge = errors.New("message too large")

	// ErrRateLimited indicates a session exceeded its message rate
	ErrRateLimited = errors.New("rate limited")
)

// Error codes sent to clients
const (
	CodeInvalidRequest = "invalid_request"
	CodeNotFound       = "not_found"
	CodeTooLarge       = "too_large"
	CodeUnavailable    = "unavailable"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// classify maps err to an HTTP status and a client error code
func classify(err error) (int, string) {
	switch {
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest, CodeInvalidRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrMessageTooLarge):
		return http.StatusRequestEntityTooLarge, CodeTooLarge
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
