package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/namematch/internal/config"
	"github.com/JonMunkholm/namematch/internal/core"
	"github.com/JonMunkholm/namematch/internal/sheet"
)

const (
	staffCSV   = "№;ФИО\n1;Иванов Иван\n2;Петров Петр\n"
	clientsCSV = "0;1;2;3;4;Фамилия;Имя;Отчество\n0;1;2;3;4;Иванов;Иван;\n"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Rate.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, db Pinger) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewService(sheet.Parse, nil, cfg.ServiceOptions())
	return NewServer(svc, cfg, db), svc
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func multipartBody(t *testing.T, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		part, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = part.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, wsID string, format core.Format, name, content string, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, map[string][2]string{"file": {name, content}})
	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+wsID+"/upload/"+string(format), body)
	req.Header.Set("Content-Type", ct)
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return do(t, s, req)
}

func createWorkspace(t *testing.T, s *Server) core.WorkspaceView {
	t.Helper()
	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var view core.WorkspaceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotEmpty(t, view.ID)
	return view
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Code
}

func TestWorkspaceFlow(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t), nil)
	ws := createWorkspace(t, s)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/compare", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "WS001", errorCode(t, rec))

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+ws.ID+"/export.csv", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "WS006", errorCode(t, rec))

	// Clients first; order does not matter.
	rec = upload(t, s, ws.ID, core.FormatClients, "cards.csv", clientsCSV, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view core.WorkspaceView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Clients.Ready)
	assert.False(t, view.Ready())

	rec = upload(t, s, ws.ID, core.FormatStaff, "staff.csv", staffCSV, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/compare", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result core.MatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, []string{"иванов иван"}, result.Matched)
	assert.Equal(t, []string{"фио", "петров петр"}, result.Unmatched)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+ws.ID+"/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sravnenie.csv")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	// Rows pair the two lists by position, not by relation.
	assert.Contains(t, rec.Body.String(), "иванов иван;фио\n")
	assert.Contains(t, rec.Body.String(), "\n;петров петр\n")

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+ws.ID+"/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(t, s, httptest.NewRequest(http.MethodDelete, "/api/workspaces/"+ws.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+ws.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WS002", errorCode(t, rec))
}

func TestUpload_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxFileSize = 512
	s, _ := newTestServer(t, cfg, nil)
	ws := createWorkspace(t, s)

	tests := []struct {
		name     string
		format   string
		file     string
		content  string
		wantCode int
		wantErr  string
	}{
		{"unknown format", "other", "a.csv", staffCSV, http.StatusBadRequest, "WS005"},
		{"unsupported format", "staff", "a.pdf", "%PDF-1.4", http.StatusUnsupportedMediaType, "FILE002"},
		{"truncated xls", "staff", "a.xls", "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1", http.StatusUnprocessableEntity, "SHEET001"},
		{"empty file", "staff", "a.csv", "", http.StatusBadRequest, "FILE005"},
		{"broken workbook", "staff", "a.xlsx", "not a zip", http.StatusUnprocessableEntity, "SHEET001"},
		{"too large", "clients", "a.csv", strings.Repeat("x;", 1024), http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := upload(t, s, ws.ID, core.Format(tt.format), tt.file, tt.content, false)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, rec))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/upload/staff", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", errorCode(t, rec))
}

func TestUpload_HTMXReturnsFragments(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t), nil)
	ws := createWorkspace(t, s)

	rec := upload(t, s, ws.ID, core.FormatStaff, "staff.csv", staffCSV, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Файл из 1С загружен")
	assert.Contains(t, rec.Body.String(), "disabled")

	rec = upload(t, s, ws.ID, core.FormatClients, "cards.xlsx", "junk", true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "#alerts", rec.Header().Get("HX-Retarget"))
	assert.Contains(t, rec.Body.String(), "SHEET001")

	rec = upload(t, s, ws.ID, core.FormatClients, "cards.csv", clientsCSV, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disabled")

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/compare", nil)
	req.Header.Set("HX-Request", "true")
	rec = do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>иванов иван</td>")
	assert.Contains(t, rec.Body.String(), "/export.xlsx")
}

func TestCompareFiles(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t), nil)

	body, ct := multipartBody(t, map[string][2]string{
		"staff":   {"staff.csv", staffCSV},
		"clients": {"cards.csv", clientsCSV},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/compare", body)
	req.Header.Set("Content-Type", ct)
	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Staff.Extracted)
	assert.Equal(t, 2, resp.Clients.Extracted)
	assert.Equal(t, []string{"иванов иван"}, resp.Result.Matched)

	body, ct = multipartBody(t, map[string][2]string{
		"staff":   {"staff.csv", staffCSV},
		"clients": {"cards.csv", clientsCSV},
	})
	req = httptest.NewRequest(http.MethodPost, "/api/compare?format=csv", body)
	req.Header.Set("Content-Type", ct)
	rec = do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	body, ct = multipartBody(t, map[string][2]string{"staff": {"staff.csv", staffCSV}})
	req = httptest.NewRequest(http.MethodPost, "/api/compare", body)
	req.Header.Set("Content-Type", ct)
	rec = do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", errorCode(t, rec))
}

func TestIndex(t *testing.T) {
	s, svc := newTestServer(t, testConfig(t), nil)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!doctype html>")
	assert.Equal(t, 1, svc.Workspaces().Len())
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))

	ws := createWorkspace(t, s)
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/?ws="+ws.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ws.ID)
	assert.Equal(t, 2, svc.Workspaces().Len())

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t), nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "disabled", resp.Database)

	s, _ = newTestServer(t, testConfig(t), fakePinger{err: errors.New("connection refused")})
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s, _ = newTestServer(t, testConfig(t), fakePinger{})
	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestRuns(t *testing.T) {
	s, _ := newTestServer(t, testConfig(t), nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"runs":[],"count":0}`, rec.Body.String())
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s, _ := newTestServer(t, cfg, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/api/workspaces", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = do(t, s, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate.Enabled = true
	cfg.Rate.RequestsPerMinute = 2
	s, _ := newTestServer(t, cfg, nil)

	for i := 0; i < 2; i++ {
		rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrWorkspaceNotFound, http.StatusNotFound},
		{core.ErrSlotBusy, http.StatusConflict},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("invalid csv: bad quote"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "error %v", tt.err)
	}
}
