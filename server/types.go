package server

import "github.com/teranos/stamp/display"

// AnnotateRequest is the body of POST /annotate
type AnnotateRequest struct {
	Text string `json:"text"`
	// Present is a presentation code applied to every span
	Present string `json:"present,omitempty"`
	// Timezone overrides resolver.timezone for presentation
	Timezone string `json:"timezone,omitempty"`
}

// Websocket message types
const (
	MessageAnnotate  = "annotate"
	MessageReset     = "reset"
	MessagePing      = "ping"
	MessageSession   = "session"
	MessageAnnotated = "annotated"
	MessagePong      = "pong"
	MessageError     = "error"
)

// ClientMessage is a message from a websocket client
type ClientMessage struct {
	Type string `json:"type"`
	// ID is echoed back on the reply
	ID      string `json:"id,omitempty"`
	Text    string `json:"text,omitempty"`
	Present string `json:"present,omitempty"`
}

// ServerMessage is a message to a websocket client
type ServerMessage struct {
	Type     string            `json:"type"`
	ID       string            `json:"id,omitempty"`
	Session  string            `json:"session,omitempty"`
	Document *display.Document `json:"document,omitempty"`
	Code     string            `json:"code,omitempty"`
	Error    string            `json:"error,omitempty"`
}
