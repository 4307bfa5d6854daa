// Package main provides the werewolf session server binary: a WebSocket
// endpoint that routes clients into per-room game engines, plus optional
// static file serving for the browser client.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gw31415/werewolf-web/internal/config"
	"github.com/gw31415/werewolf-web/internal/frontend/ws"
	"github.com/gw31415/werewolf-web/internal/game"
	"github.com/gw31415/werewolf-web/internal/observability"
	"github.com/gw31415/werewolf-web/internal/router"
	"github.com/gw31415/werewolf-web/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and WEREWOLF_* env vars")
	port := flag.Int("port", 0, "override the configured listen port")
	expose := flag.Bool("expose", false, "publish to the network (bind all interfaces)")
	serveDir := flag.String("serve", "", "override the static files directory to serve at /")
	flag.Parse()

	// Pick up a local .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *expose {
		cfg.Server.Expose = true
	}
	if *serveDir != "" {
		cfg.Server.ServeDir = *serveDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("validating config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting werewolf session server",
		zap.String("addr", cfg.Server.Addr()),
	)

	rt := router.New(game.Factory(), logger)
	wsHandler := ws.NewHandler(rt, cfg.Websocket, logger)
	httpSvc := server.NewHTTPService(cfg.Server, wsHandler, logger)

	lc := server.NewLifecycle(logger)
	lc.Add("router", rt)
	lc.Add("http", httpSvc)

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
