package api

import (
	"net/http"

	"github.com/shaharia-lab/stockbell/internal/build"
)

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    build.Version,
		"commit":     build.CommitSHA,
		"build_date": build.BuildDate,
		"user_agent": build.UserAgent(),
	})
}
