package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/export"
	"github.com/JonMunkholm/namematch/internal/logging"
	"github.com/JonMunkholm/namematch/internal/web/templates"
)

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Workspaces().Create()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.FromContext(r.Context()).Info("workspace created", "workspace_id", view.ID)
	writeJSONStatus(w, http.StatusCreated, view)
}

// handleGetWorkspace returns the workspace state. HTMX polls it while a
// slot is processing and gets the status fragment back.
func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Workspaces().Get(workspaceID(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.respondStatus(w, r, view)
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	s.service.Workspaces().Delete(workspaceID(r))
	w.WriteHeader(http.StatusNoContent)
}

// handleUpload extracts one file into the workspace slot named by {format}.
// The other slot is untouched, so the two uploads may arrive in any order.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := workspaceID(r)
	format, err := core.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if err := parseUploadForm(w, r, s.cfg.Upload.MaxFileSize); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, file, err := formFile(r, "file")
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	view, err := s.service.Upload(ctx, id, format, in)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.respondStatus(w, r, view)
}

// handleCompare matches the two extracted files. It answers 409 until both
// slots are ready.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	id := workspaceID(r)

	result, err := s.service.Compare(WithRequestMetadata(r.Context(), r), id)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Results(id, result).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Warn("render results", "error", err)
		}
		return
	}
	writeJSON(w, result)
}

// handleExport downloads the latest result as .csv or .xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind, err := export.ParseKind(chi.URLParam(r, "ext"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	result, err := s.service.Workspaces().Result(workspaceID(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	writeExport(w, r, kind, result)
}

func writeExport(w http.ResponseWriter, r *http.Request, kind export.Kind, result core.MatchResult) {
	w.Header().Set("Content-Type", kind.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind.FileName()+`"`)
	if err := export.Write(w, kind, result); err != nil {
		// Headers are gone; all that is left is the log.
		logging.FromContext(r.Context()).Error("export failed", "kind", kind, "error", err)
	}
}

func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, view core.WorkspaceView) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Status(view).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Warn("render status", "error", err)
		}
		return
	}
	writeJSON(w, view)
}
