package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/namematch/internal/core"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// parseIntParam parses a positive integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v. Encoding errors are only logged since the
// header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

// parseUploadForm limits the body to maxBytes and parses the multipart form.
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("file too large: %w", err)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return errNoFile
		}
		return fmt.Errorf("read upload: %w", err)
	}
	return nil
}

// formFile opens one uploaded file from a parsed form. The caller closes it.
func formFile(r *http.Request, field string) (core.FileInput, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return core.FileInput{}, nil, fmt.Errorf("%w: %s", errNoFile, field)
	}
	return core.FileInput{Name: header.Filename, Reader: file}, file, nil
}

// workspaceID returns the {id} URL parameter.
func workspaceID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
