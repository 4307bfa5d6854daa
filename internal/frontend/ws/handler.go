// Package ws implements the WebSocket frontend: one session per connection,
// bridging the client's message stream to the router and pushing router
// broadcasts back out.
package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gw31415/werewolf-web/internal/config"
	"github.com/gw31415/werewolf-web/internal/router"
)

// Handler upgrades HTTP requests at the WebSocket endpoint into player
// sessions.
type Handler struct {
	rt       *router.Router
	cfg      config.WebsocketConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the WebSocket endpoint handler.
//
// Precondition: rt and logger must be non-nil; cfg must be validated.
func NewHandler(rt *router.Router, cfg config.WebsocketConfig, logger *zap.Logger) *Handler {
	return &Handler{
		rt:     rt,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement is left to the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and hands it to a new session.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	sess := newSession(conn, h.rt, h.cfg, h.logger)
	h.logger.Info("client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("session", sess.id),
	)
	go sess.run()
}
