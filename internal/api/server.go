package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/stockbell/internal/engine"
	"github.com/shaharia-lab/stockbell/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	stockSvc     service.StockService
	watchlistSvc service.WatchlistService
	monitorSvc   service.MonitorService
	logger       *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(
	stockSvc service.StockService,
	watchlistSvc service.WatchlistService,
	monitorSvc service.MonitorService,
	logger *slog.Logger,
) *Server {
	return &Server{
		stockSvc:     stockSvc,
		watchlistSvc: watchlistSvc,
		monitorSvc:   monitorSvc,
		logger:       logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Shop data
	r.Get("/stock", s.handleGetStock)
	r.Get("/weather", s.handleGetWeather)
	r.Get("/last-seen", s.handleGetLastSeen)
	r.Get("/catalog", s.handleGetCatalog)

	// Watchlist
	r.Get("/watchlist", s.handleGetWatchlist)
	r.Put("/watchlist", s.handleReplaceWatchlist)
	r.Delete("/watchlist", s.handleClearWatchlist)
	r.Post("/watchlist/toggle", s.handleToggleWatchlist)
	r.Post("/watchlist/acknowledge", s.handleAcknowledge)

	// Engine
	r.Get("/engine", s.handleGetEngine)
	r.Post("/engine/check", s.handleRunCheck)
	r.Get("/history", s.handleGetHistory)
	r.Get("/notifications", s.handleListNotificationLog)

	r.Get("/version", s.handleVersion)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps service errors to HTTP statuses. fallback is the
// message used for unexpected errors, which are logged.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var ve *service.ValidationError
	var ue *service.UpstreamError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ue):
		s.logger.Warn("shop request failed", "op", ue.Op, "error", ue.Err)
		writeError(w, http.StatusBadGateway, ue.Error())
	case errors.Is(err, engine.ErrCheckInProgress):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
