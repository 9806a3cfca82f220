// Package server exposes the annotation engine over HTTP and websockets.
//
// Each websocket connection owns one editing session, so clients resubmitting
// a buffer that carries placeholder markers get their earlier spans back. The
// engine can be swapped at runtime; open sessions keep the engine they were
// created with.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/internal/engine"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/metrics"
	"github.com/teranos/stamp/scan/annotate"
)

// ServerState tracks the lifecycle of a Server
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

// ShutdownTimeout bounds how long Stop waits for client goroutines
const ShutdownTimeout = 5 * time.Second

// runtime is the part of the server a reload replaces
type runtime struct {
	cfg      *am.Config
	engine   *annotate.Engine
	location *time.Location
}

// Server serves annotation requests
type Server struct {
	current  atomic.Pointer[runtime]
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	logger   *zap.SugaredLogger

	clients   map[*Client]bool
	mu        sync.RWMutex
	verbosity atomic.Int32

	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	state  atomic.Int32
}

// New builds a server and its engine from cfg
func New(cfg *am.Config) (*Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		metrics:  metrics.New(reg),
		registry: reg,
		logger:   logger.ComponentLogger("server"),
		clients:  make(map[*Client]bool),
		ctx:      ctx,
		cancel:   cancel,
	}

	rt, err := s.build(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	s.current.Store(rt)
	s.state.Store(int32(ServerStateRunning))
	return s, nil
}

func (s *Server) build(cfg *am.Config) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	loc, err := geotime.LoadLocation(cfg.Resolver.Timezone)
	if err != nil {
		return nil, err
	}
	e, err := engine.Build(cfg, annotate.WithObserver(s.metrics))
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, engine: e, location: loc}, nil
}

// Reload swaps in an engine built from cfg. On error the running engine is
// kept. Connected sessions are not migrated.
func (s *Server) Reload(cfg *am.Config) error {
	rt, err := s.build(cfg)
	if err != nil {
		s.logger.Errorw("Reload rejected, keeping current engine", logger.FieldError, err)
		return err
	}
	prev := s.current.Swap(rt)
	if prev != nil && prev.cfg.Server.Port != cfg.Server.Port {
		s.logger.Warnw("Port change takes effect on restart",
			logger.FieldPort, prev.cfg.Server.Port,
			"requested_port", cfg.Server.Port)
	}
	s.logger.Infow("Engine reloaded",
		logger.FieldCount, rt.engine.Catalog().Len(),
		"sessions", s.ClientCount())
	return nil
}

// Engine returns the engine new sessions are created from
func (s *Server) Engine() *annotate.Engine {
	return s.current.Load().engine
}

// Config returns the configuration currently in effect
func (s *Server) Config() *am.Config {
	return s.current.Load().cfg
}

// Metrics exposes the server's collectors
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// SetVerbosity sets the -v level gating per-message logging
func (s *Server) SetVerbosity(v int) {
	s.verbosity.Store(int32(v))
}

// ClientCount returns the number of open websocket sessions
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) register(c *Client) {
	s.mu.Lock()
	s.clients[c] = true
	count := len(s.clients)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Inc()
	c.log.Infow("Session opened", "sessions", count)
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()

	if ok {
		s.metrics.ActiveSessions.Dec()
		c.log.Infow("Session closed", "passes", c.session.Passes())
	}
	c.closeSend()
}
