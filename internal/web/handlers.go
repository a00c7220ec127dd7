package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/web/templates"
)

// handleIndex renders the main page. ?ws= resumes an existing workspace;
// otherwise a new one is opened.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	store := s.service.Workspaces()

	view, err := store.Get(r.URL.Query().Get("ws"))
	if errors.Is(err, core.ErrWorkspaceNotFound) {
		view, err = store.Create()
	}
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	params := templates.PageParams{Workspace: view, MaxFileSize: s.cfg.Upload.MaxFileSize}
	if err := templates.Page(params).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string             `json:"status"`
	Database   string             `json:"database"`
	Workspaces int                `json:"workspaces"`
	Parses     core.LimiterStatus `json:"parses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     "ok",
		Database:   "disabled",
		Workspaces: s.service.Workspaces().Len(),
		Parses:     s.service.LimiterStatus(),
	}

	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSONStatus(w, status, resp)
}
