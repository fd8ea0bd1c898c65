package api

import "net/http"

func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	view, err := s.stockSvc.Stock(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to load stock")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetWeather(w http.ResponseWriter, r *http.Request) {
	view, err := s.stockSvc.Weather(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to load weather")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetLastSeen(w http.ResponseWriter, r *http.Request) {
	view, err := s.stockSvc.LastSeen(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to load last-seen data")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"seeds": s.stockSvc.Catalog()})
}
