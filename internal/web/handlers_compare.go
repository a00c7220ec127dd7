package web

import (
	"net/http"

	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/export"
)

// handleCompareFiles takes both files in one multipart request, fields
// "staff" and "clients", and returns the comparison. With ?format=csv or
// ?format=xlsx the result is downloaded as a file instead of JSON.
func (s *Server) handleCompareFiles(w http.ResponseWriter, r *http.Request) {
	var kind export.Kind
	if f := r.URL.Query().Get("format"); f != "" && f != "json" {
		k, err := export.ParseKind(f)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		kind = k
	}

	if err := parseUploadForm(w, r, 2*s.cfg.Upload.MaxFileSize); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer r.MultipartForm.RemoveAll()

	staff, staffFile, err := formFile(r, "staff")
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer staffFile.Close()

	clients, clientsFile, err := formFile(r, "clients")
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer clientsFile.Close()

	cmp, err := s.service.CompareFiles(WithRequestMetadata(r.Context(), r), staff, clients)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if kind != "" {
		writeExport(w, r, kind, cmp.Result)
		return
	}
	writeJSON(w, compareResponse(cmp))
}

// CompareResponse is the JSON body of POST /api/compare. Extraction details
// are reduced to counts.
type CompareResponse struct {
	Staff   ExtractionSummary `json:"staff"`
	Clients ExtractionSummary `json:"clients"`
	Result  core.MatchResult  `json:"result"`
}

// ExtractionSummary describes one extracted file.
type ExtractionSummary struct {
	FileName  string `json:"fileName"`
	RowsRead  int    `json:"rowsRead"`
	Extracted int    `json:"extracted"`
}

func compareResponse(cmp *core.Comparison) CompareResponse {
	return CompareResponse{
		Staff:   summarize(cmp.Staff),
		Clients: summarize(cmp.Clients),
		Result:  cmp.Result,
	}
}

func summarize(ext *core.Extraction) ExtractionSummary {
	return ExtractionSummary{FileName: ext.FileName, RowsRead: ext.RowsRead, Extracted: ext.Count()}
}
