package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/stamp/am"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/scan/annotate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Outbound messages buffered per client
	sendBuffer = 16
)

// Client is one websocket connection and the editing session it owns
type Client struct {
	server   *Server
	conn     *websocket.Conn
	send     chan ServerMessage
	session  *annotate.Session
	limiter  *rate.Limiter
	location *time.Location
	present  string
	maxBytes int64
	log      *zap.SugaredLogger

	closeOnce sync.Once
}

func newLimiter(cfg am.ServerConfig) *rate.Limiter {
	if cfg.MessagesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst)
}

func newClient(s *Server, rt *runtime, conn *websocket.Conn, loc *time.Location, code string) *Client {
	session := rt.engine.NewSession()
	return &Client{
		server:   s,
		conn:     conn,
		send:     make(chan ServerMessage, sendBuffer),
		session:  session,
		limiter:  newLimiter(rt.cfg.Server),
		location: loc,
		present:  code,
		maxBytes: rt.cfg.Server.MaxMessageBytes,
		log: logger.ChildLogger(s.logger,
			logger.FieldSession, shortID(session.ID()),
			logger.FieldClientID, conn.RemoteAddr().String()),
	}
}

// enqueue hands msg to the write pump. A client too slow to drain its
// buffer loses the message.
func (c *Client) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
		c.log.Warnw("Send buffer full, dropping message", "type", msg.Type)
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump reads client messages until the connection closes
func (c *Client) readPump() {
	defer func() {
		c.server.unregister(c)
		c.conn.Close()
	}()

	if c.maxBytes > 0 {
		c.conn.SetReadLimit(c.maxBytes)
	}
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		if logger.ShouldOutput(int(c.server.verbosity.Load()), logger.OutputDataDump) {
			c.log.Debugw("Received message", logger.FieldSize, len(data))
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.fail("", errors.NewInvalidRequestError("invalid message: %v", err))
			continue
		}
		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected close errors; normal closures are quiet
func (c *Client) handleReadError(err error) {
	if errors.Is(err, websocket.ErrReadLimit) {
		c.log.Warnw("Message over size limit, closing", "limit", c.maxBytes)
		c.server.metrics.RecordRequest(transportWS, CodeTooLarge)
		return
	}
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		c.log.Warnw("WebSocket read error", logger.FieldError, err)
	}
}

func (c *Client) routeMessage(msg *ClientMessage) {
	if !c.limiter.Allow() {
		c.server.metrics.RateLimitedTotal.Inc()
		c.fail(msg.ID, errors.Wrapf(ErrRateLimited, "more than %v messages per second", c.limiter.Limit()))
		return
	}

	switch msg.Type {
	case MessageAnnotate:
		c.handleAnnotate(msg)
	case MessageReset:
		c.session.Reset()
		c.enqueue(ServerMessage{Type: MessageReset, ID: msg.ID, Session: c.session.ID()})
		c.server.metrics.RecordRequest(transportWS, "ok")
	case MessagePing:
		c.enqueue(ServerMessage{Type: MessagePong, ID: msg.ID})
	default:
		c.fail(msg.ID, errors.NewInvalidRequestError("unknown message type %q", msg.Type))
	}
}

func (c *Client) handleAnnotate(msg *ClientMessage) {
	code := msg.Present
	if code == "" {
		code = c.present
	}

	start := time.Now()
	out := c.session.Annotate(msg.Text)
	doc, err := document(out, code, c.location)
	if err != nil {
		c.fail(msg.ID, err)
		return
	}

	c.enqueue(ServerMessage{
		Type:     MessageAnnotated,
		ID:       msg.ID,
		Session:  c.session.ID(),
		Document: doc,
	})
	c.server.metrics.RecordRequest(transportWS, "ok")

	if logger.ShouldOutput(int(c.server.verbosity.Load()), logger.OutputSpans) {
		c.log.Debugw("Annotated",
			logger.FieldCount, len(doc.Spans),
			"stale", out.Stats.Stale,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	}
}

func (c *Client) fail(id string, err error) {
	_, code := classify(err)
	c.enqueue(ServerMessage{Type: MessageError, ID: id, Code: code, Error: err.Error()})
	c.server.metrics.RecordRequest(transportWS, code)
}

// writePump writes queued messages and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Warnw("Write error", logger.FieldError, err, "type", msg.Type)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
