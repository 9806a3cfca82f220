package server

import (
	"encoding/json"
	"net/http"

	"github.com/teranos/stamp/errors"
)

// ErrorResponse is the body of every failed HTTP request
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes err as a JSON error response and returns the code sent
func writeError(w http.ResponseWriter, err error) string {
	status, code := classify(err)
	_ = writeJSON(w, status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
		Hint:  errors.FlattenHints(err),
	})
	return code
}

// readJSON decodes a JSON request body. Unknown fields are rejected.
func readJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.Wrapf(ErrMessageTooLarge, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.NewInvalidRequestError("invalid request body: %v", err)
	}
	return nil
}

// requireMethod checks if the request method matches the expected method
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		_ = writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "method not allowed",
			Code:  CodeInvalidRequest,
		})
		return false
	}
	return true
}

// shortID truncates an ID to 8 characters for logging
func shortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
