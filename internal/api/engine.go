package api

import "net/http"

func (s *Server) handleGetEngine(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitorSvc.Status(r.Context()))
}

// handleRunCheck runs a check right away and returns its outcome.
func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	out, err := s.monitorSvc.Check(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "check failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"ids": nonNil(s.monitorSvc.History(r.Context()))})
}
