package api

import (
	"encoding/json"
	"net/http"
)

type watchlistResponse struct {
	Items []string `json:"items"`
}

type toggleRequest struct {
	Name string `json:"name"`
}

type replaceRequest struct {
	Items []string `json:"items"`
}

func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, watchlistResponse{Items: nonNil(s.watchlistSvc.List(r.Context()))})
}

func (s *Server) handleReplaceWatchlist(w http.ResponseWriter, r *http.Request) {
	var req replaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	items, err := s.watchlistSvc.Replace(r.Context(), req.Items)
	if err != nil {
		s.writeServiceError(w, err, "failed to save watchlist")
		return
	}
	writeJSON(w, http.StatusOK, watchlistResponse{Items: nonNil(items)})
}

func (s *Server) handleClearWatchlist(w http.ResponseWriter, r *http.Request) {
	if err := s.watchlistSvc.Clear(r.Context()); err != nil {
		s.writeServiceError(w, err, "failed to clear watchlist")
		return
	}
	writeJSON(w, http.StatusOK, watchlistResponse{Items: []string{}})
}

func (s *Server) handleToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	items, err := s.watchlistSvc.Toggle(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, err, "failed to toggle watchlist item")
		return
	}
	writeJSON(w, http.StatusOK, watchlistResponse{Items: nonNil(items)})
}

// handleAcknowledge records the current snapshot so none of its items alert.
func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	snap, err := s.watchlistSvc.Acknowledge(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to acknowledge current stock")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report_id": snap.ID()})
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
