package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gw31415/werewolf-web/internal/config"
	"github.com/gw31415/werewolf-web/internal/engine"
	"github.com/gw31415/werewolf-web/internal/protocol"
	"github.com/gw31415/werewolf-web/internal/router"
)

// connectTimeout bounds how long a session waits for the router to answer a
// Connect or Disconnect.
const connectTimeout = 10 * time.Second

// session is the per-connection state machine. It starts unauthenticated,
// holds exactly one token after a successful Connect, and terminates on
// transport close or heartbeat timeout. The token field is owned by the
// read loop; the write loop only drains the send queue.
type session struct {
	id     string
	conn   *websocket.Conn
	rt     *router.Router
	cfg    config.WebsocketConfig
	logger *zap.Logger

	send      chan protocol.Response
	closed    chan struct{}
	closeOnce sync.Once

	token *engine.Token // nil until authenticated
}

func newSession(conn *websocket.Conn, rt *router.Router, cfg config.WebsocketConfig, logger *zap.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		conn:   conn,
		rt:     rt,
		cfg:    cfg,
		logger: logger.With(zap.String("session", id)),
		send:   make(chan protocol.Response, cfg.SendBuffer),
		closed: make(chan struct{}),
	}
}

// Push queues a response for delivery. It never blocks: a closed session or
// a full queue reports an error and the message is dropped.
func (s *session) Push(resp protocol.Response) error {
	select {
	case <-s.closed:
		return fmt.Errorf("session %s closed", s.id)
	default:
	}
	select {
	case s.send <- resp:
		return nil
	default:
		return fmt.Errorf("session %s send queue full", s.id)
	}
}

// Close force-terminates the session. The router calls this when a newer
// connection replaces this one.
func (s *session) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// run drives the session until the transport closes, the heartbeat times
// out, or the router replaces the connection.
func (s *session) run() {
	start := time.Now()

	go s.writeLoop()
	s.readLoop()
	s.terminate()

	s.logger.Info("session ended",
		zap.Duration("duration", time.Since(start)),
	)
}

// terminate notifies the router once if a token was held. The notification
// is best-effort: teardown does not depend on its outcome, and the router
// ignores it anyway if this connection was already replaced.
func (s *session) terminate() {
	s.Close()
	if s.token == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := s.rt.Disconnect(ctx, *s.token, s.id); err != nil {
		s.logger.Debug("disconnect notification failed", zap.Error(err))
	}
}

// readLoop consumes inbound frames. Any traffic, including ping and pong
// control frames, resets the liveness clock; silence beyond ClientTimeout
// ends the session.
func (s *session) readLoop() {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ClientTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ClientTimeout))
	})
	s.conn.SetPingHandler(func(message string) error {
		_ = s.conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(s.cfg.WriteTimeout))
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ClientTimeout))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ClientTimeout))
		s.handleMessage(payload)
	}
}

// handleMessage decodes one client payload and routes it according to the
// session state. Undecodable payloads produce an error response without
// changing state.
func (s *session) handleMessage(payload []byte) {
	var req protocol.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		_ = s.Push(protocol.Errorf(protocol.KindJSONParse, fmt.Sprintf("json parse error: %v", err)))
		return
	}

	switch {
	case req.Connect != nil && req.GameAction == nil:
		s.handleConnect(req.Connect)
	case req.GameAction != nil && req.Connect == nil:
		s.handleGameAction(req.GameAction)
	default:
		_ = s.Push(protocol.Errorf(protocol.KindMalformedRequest,
			"request must contain exactly one of connect or gameAction"))
	}
}

func (s *session) handleConnect(c *protocol.Connect) {
	if s.token != nil {
		_ = s.Push(protocol.Errorf(protocol.KindAlreadyLoggedIn, "you are already logged in"))
		return
	}

	var id router.Identifier
	switch {
	case c.Signup != nil && c.Token == "":
		if c.Signup.Name == "" || c.Signup.Room == "" {
			_ = s.Push(protocol.Errorf(protocol.KindMalformedRequest, "signup requires name and room"))
			return
		}
		id = router.Signup{Name: c.Signup.Name, Room: c.Signup.Room}
	case c.Token != "" && c.Signup == nil:
		token, err := engine.ParseToken(c.Token)
		if err != nil {
			_ = s.Push(protocol.Errorf(protocol.KindInvalidToken, err.Error()))
			return
		}
		id = router.Reconnect{Token: token}
	default:
		_ = s.Push(protocol.Errorf(protocol.KindMalformedRequest, "connect requires either signup or token"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	token, err := s.rt.Connect(ctx, id, s.id, s)
	if err != nil {
		// The client may retry with a different identifier.
		_ = s.Push(router.ErrorResponse(err))
		return
	}
	s.token = &token
}

func (s *session) handleGameAction(action json.RawMessage) {
	if s.token == nil {
		_ = s.Push(protocol.Errorf(protocol.KindMalformedRequest, "authenticate before sending game actions"))
		return
	}
	s.rt.Dispatch(*s.token, action)
}

// writeLoop serializes queued responses onto the wire in order and emits
// liveness pings. It owns the connection's write side and closes the
// transport on exit, which in turn unblocks the read loop.
func (s *session) writeLoop() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case resp := <-s.send:
			payload, err := json.Marshal(resp)
			if err != nil {
				s.logger.Error("marshalling response", zap.Error(err))
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
