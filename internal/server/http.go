package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gw31415/werewolf-web/internal/config"
)

// HTTPService serves the WebSocket endpoint at /ws, a health probe at
// /healthz, and optionally a directory of static client files at /.
type HTTPService struct {
	cfg    config.ServerConfig
	logger *zap.Logger
	srv    *http.Server
}

// NewHTTPService builds the HTTP service around the given WebSocket handler.
//
// Precondition: wsHandler and logger must be non-nil.
func NewHTTPService(cfg config.ServerConfig, wsHandler http.Handler, logger *zap.Logger) *HTTPService {
	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.ServeDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.ServeDir)))
	}

	return &HTTPService{
		cfg:    cfg,
		logger: logger,
		srv:    &http.Server{Addr: cfg.Addr(), Handler: mux},
	}
}

// Start listens and serves until Stop is called.
func (s *HTTPService) Start() error {
	start := time.Now()
	s.logger.Info("http server listening",
		zap.String("addr", s.cfg.Addr()),
		zap.String("serve_dir", s.cfg.ServeDir),
		zap.Duration("startup", time.Since(start)),
	)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (s *HTTPService) Stop() {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}
