package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin validates an Origin header against server.allowed_origins.
// An allowed origin matches itself on any port.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Non-browser clients send no origin
	if origin == "" {
		return true
	}

	for _, allowed := range s.Config().Server.AllowedOrigins {
		allowed = strings.TrimSuffix(allowed, "/")
		if origin == allowed || strings.HasPrefix(origin, allowed+":") {
			return true
		}
	}
	return false
}
