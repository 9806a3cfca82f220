package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
)

func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
	s.logger.Infow("Server state changed", logger.FieldState, newState.String())
}

func (st ServerState) String() string {
	switch st {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Serve accepts connections on l until Stop is called
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://%s", l.Addr()),
		logger.FieldAddress, l.Addr().String())

	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server stopped")
	}
	return nil
}

// Start listens on the configured port and serves until Stop is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.Config().Server.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(err, "failed to listen on %s", addr),
			"set server.port in am.toml or STAMP_SERVER_PORT")
	}
	return s.Serve(l)
}

// Stop closes every session and shuts the HTTP server down
func (s *Server) Stop() error {
	if s.getState() == ServerStateStopped {
		return nil
	}
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	// Close connections before cancelling so read pumps exit on their own
	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clientsToClose = append(clientsToClose, client)
	}
	srv := s.httpServer
	s.mu.Unlock()

	if len(clientsToClose) > 0 {
		s.logger.Infow("Closing client connections", logger.FieldCount, len(clientsToClose))
		for _, client := range clientsToClose {
			client.conn.Close()
		}
	}

	s.cancel()

	var shutdownErr error
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		shutdownErr = srv.Shutdown(ctx)
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All sessions stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Session shutdown timed out, forcing exit", "timeout", ShutdownTimeout)
	}

	s.setState(ServerStateStopped)
	s.logger.Infow("Server shutdown complete")
	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "http shutdown")
	}
	return nil
}
