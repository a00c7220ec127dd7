package web

import (
	"net/http"

	"github.com/JonMunkholm/namematch/internal/core"
)

// handleRuns lists recent audit records, newest first. ?limit= defaults to 50.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if runs == nil {
		runs = []core.RunRecord{}
	}
	writeJSON(w, map[string]any{"runs": runs, "count": len(runs)})
}
