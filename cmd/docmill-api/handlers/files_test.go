package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/docmill/internal/export"
	"github.com/spherical-ai/docmill/internal/observability"
)

func newFilesRouter(t *testing.T, outputDir string) http.Handler {
	t.Helper()
	h := NewFilesHandler(observability.Nop(), export.NewExporter(outputDir, observability.Nop()), outputDir)

	r := chi.NewRouter()
	r.Get("/api/files", h.List)
	r.Get("/api/files/{document}/{filename}", h.Download)
	r.Post("/api/export", h.Export)
	r.Get("/api/export/{filename}", h.DownloadExport)
	return r
}

func seedDoc(t *testing.T, outputDir, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(outputDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for fname, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fname), []byte(content), 0o644))
	}
}

func TestFilesList(t *testing.T) {
	outputDir := t.TempDir()
	seedDoc(t, outputDir, "report", map[string]string{"report.txt": "x", "report.md": "y"})
	seedDoc(t, outputDir, "invoice", map[string]string{"invoice.txt": "z"})

	router := newFilesRouter(t, outputDir)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var docs []ProcessedDocumentDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "invoice", docs[0].Name)
	assert.Equal(t, "report", docs[1].Name)
	assert.Equal(t, []string{"report.md", "report.txt"}, docs[1].Files)
}

func TestFilesListEmptyOutput(t *testing.T) {
	router := newFilesRouter(t, filepath.Join(t.TempDir(), "missing"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestFilesDownload(t *testing.T) {
	outputDir := t.TempDir()
	seedDoc(t, outputDir, "report", map[string]string{"report.txt": "hello"})

	router := newFilesRouter(t, outputDir)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/report/report.txt", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report.txt")
}

func TestFilesDownloadTraversalBlocked(t *testing.T) {
	outputDir := t.TempDir()
	secret := filepath.Join(outputDir, "..", "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o644))

	router := newFilesRouter(t, outputDir)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/%2E%2E/secret.txt", nil))

	assert.NotEqual(t, "secret", rec.Body.String())
}

func TestFilesDownloadNotFound(t *testing.T) {
	router := newFilesRouter(t, t.TempDir())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/files/nope/nope.txt", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFilesExport(t *testing.T) {
	outputDir := t.TempDir()
	seedDoc(t, outputDir, "report", map[string]string{"report.txt": "x", "report.md": "y"})

	router := newFilesRouter(t, outputDir)
	body := strings.NewReader(`{"documents":["report"],"formats":["txt","md"]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/export", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result export.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.FileCount)
	assert.FileExists(t, result.Path)

	// The created package is downloadable through the export route.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/export/"+filepath.Base(result.Path), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFilesExportNoDocuments(t *testing.T) {
	router := newFilesRouter(t, t.TempDir())
	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"documents":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilesExportNoMatches(t *testing.T) {
	router := newFilesRouter(t, t.TempDir())
	req := httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"documents":["ghost"]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
