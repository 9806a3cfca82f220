package server

import (
	"net/http"
	"time"

	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/present"
	"github.com/teranos/stamp/scan/annotate"
	"github.com/teranos/stamp/version"
)

const (
	transportHTTP = "http"
	transportWS   = "ws"
)

// locationFor returns the presentation location for a request, falling back
// to resolver.timezone
func locationFor(rt *runtime, tz string) (*time.Location, error) {
	if tz == "" {
		return rt.location, nil
	}
	loc, err := geotime.LoadLocation(tz)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrInvalidRequest, err.Error()), "timezone")
	}
	return loc, nil
}

func document(a *annotate.AnnotatedText, code string, loc *time.Location) (*display.Document, error) {
	return display.NewDocument(a, display.Options{Present: code, Location: loc, NoColor: true})
}

// HandleAnnotate annotates one text without session history
func (s *Server) HandleAnnotate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		s.metrics.RecordRequest(transportHTTP, "method_not_allowed")
		return
	}
	start := time.Now()
	log := logger.LoggerFromContext(r.Context())
	fail := func(err error) {
		code := writeError(w, err)
		s.metrics.RecordRequest(transportHTTP, code)
		log.Debugw("Annotate request failed", logger.FieldError, err, logger.FieldStatus, code)
	}

	if s.getState() != ServerStateRunning {
		fail(errors.Wrap(ErrServiceUnavailable, "server is draining"))
		return
	}

	rt := s.current.Load()
	if max := rt.cfg.Server.MaxMessageBytes; max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max)
	}

	var req AnnotateRequest
	if err := readJSON(r, &req); err != nil {
		fail(err)
		return
	}
	loc, err := locationFor(rt, req.Timezone)
	if err != nil {
		fail(err)
		return
	}

	doc, err := document(rt.engine.Text(req.Text), req.Present, loc)
	if err != nil {
		fail(err)
		return
	}

	_ = writeJSON(w, http.StatusOK, doc)
	s.metrics.RecordRequest(transportHTTP, "ok")
	log.Debugw("Annotated",
		logger.FieldTransport, transportHTTP,
		logger.FieldMethod, r.Method,
		logger.FieldPath, r.URL.Path,
		logger.FieldCount, len(doc.Spans),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Sessions int    `json:"sessions"`
	Patterns int    `json:"patterns"`
}

// HandleHealth reports liveness. Anything but a running server is 503.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	state := s.getState()

	status := http.StatusOK
	if state != ServerStateRunning {
		status = http.StatusServiceUnavailable
	}
	_ = writeJSON(w, status, HealthResponse{
		Status:   state.String(),
		Version:  info.Version,
		Commit:   info.Short(),
		Sessions: s.ClientCount(),
		Patterns: s.Engine().Catalog().Len(),
	})
}

// HandleWebSocket upgrades the connection and opens an editing session.
// Query parameters tz and present set the session's presentation defaults.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.getState() != ServerStateRunning {
		code := writeError(w, errors.Wrap(ErrServiceUnavailable, "server is draining"))
		s.metrics.RecordRequest(transportWS, code)
		return
	}

	rt := s.current.Load()
	loc, err := locationFor(rt, r.URL.Query().Get("tz"))
	if err != nil {
		s.metrics.RecordRequest(transportWS, writeError(w, err))
		return
	}
	code := r.URL.Query().Get("present")
	if code != "" && !present.Valid(code) {
		err := errors.NewInvalidRequestError("unknown presentation code %q", code)
		s.metrics.RecordRequest(transportWS, writeError(w, err))
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied
		s.logger.Warnw("WebSocket upgrade failed",
			logger.FieldError, err,
			"origin", r.Header.Get("Origin"))
		s.metrics.RecordRequest(transportWS, "upgrade_failed")
		return
	}

	client := newClient(s, rt, conn, loc, code)
	s.register(client)
	client.enqueue(ServerMessage{Type: MessageSession, Session: client.session.ID()})

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		client.writePump()
	}()
	go func() {
		defer s.wg.Done()
		client.readPump()
	}()
}
