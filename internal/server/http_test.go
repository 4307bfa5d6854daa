package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gw31415/werewolf-web/internal/config"
)

func serverConfig() config.ServerConfig {
	return config.ServerConfig{Host: "127.0.0.1", Port: 0}
}

func TestHealthz(t *testing.T) {
	svc := NewHTTPService(serverConfig(), http.NotFoundHandler(), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	svc.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestWebsocketRouteWired(t *testing.T) {
	marker := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	svc := NewHTTPService(serverConfig(), marker, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	svc.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestStaticFilesServedWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>lobby</html>"), 0644))

	cfg := serverConfig()
	cfg.ServeDir = dir
	svc := NewHTTPService(cfg, http.NotFoundHandler(), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	svc.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lobby")
}

func TestRootNotFoundWithoutServeDir(t *testing.T) {
	svc := NewHTTPService(serverConfig(), http.NotFoundHandler(), zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	svc.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
