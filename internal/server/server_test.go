package server_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/stockbell/internal/api"
	"github.com/shaharia-lab/stockbell/internal/server"
	svcmocks "github.com/shaharia-lab/stockbell/internal/service/mocks"
)

func newTestServer(t *testing.T, cfg server.Config) (http.Handler, *svcmocks.MockWatchlistService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wl := new(svcmocks.MockWatchlistService)
	apiSrv := api.New(new(svcmocks.MockStockService), wl, new(svcmocks.MockMonitorService), logger)
	return server.New(apiSrv, cfg, logger).Handler(), wl
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, server.Config{AllowedOrigins: []string{"*"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIMountedUnderPrefix(t *testing.T) {
	h, wl := newTestServer(t, server.Config{AllowedOrigins: []string{"*"}})
	wl.On("List", mock.Anything).Return([]string{"Mango"})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/watchlist", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":["Mango"]}`, w.Body.String())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	h, _ := newTestServer(t, server.Config{AllowedOrigins: []string{"*"}, Registry: reg})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestMetricsAndWebSocketAreOptional(t *testing.T) {
	h, _ := newTestServer(t, server.Config{AllowedOrigins: []string{"*"}})

	for _, path := range []string{"/metrics", "/ws"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestWebSocketRoute(t *testing.T) {
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h, _ := newTestServer(t, server.Config{AllowedOrigins: []string{"*"}, WebSocket: ws})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t, server.Config{AllowedOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/watchlist", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/watchlist", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
