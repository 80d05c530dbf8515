package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/export"
	"github.com/spherical-ai/docmill/internal/observability"
)

// FilesHandler serves processed artifacts and export packages.
type FilesHandler struct {
	logger    *observability.Logger
	exporter  *export.Exporter
	outputDir string
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(logger *observability.Logger, exporter *export.Exporter, outputDir string) *FilesHandler {
	return &FilesHandler{
		logger:    logger,
		exporter:  exporter,
		outputDir: outputDir,
	}
}

// ProcessedDocumentDTO lists the artifact files of one processed document.
type ProcessedDocumentDTO struct {
	Name  string   `json:"name"`
	Files []string `json:"files"`
}

// ExportRequestDTO is the API request for packaging documents.
type ExportRequestDTO struct {
	Documents []string `json:"documents"`
	Formats   []string `json:"formats,omitempty"`
}

// List handles GET /api/files: every processed document and its artifacts.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode([]ProcessedDocumentDTO{})
			return
		}
		h.writeError(w, http.StatusInternalServerError, "cannot read output directory", err.Error())
		return
	}

	docs := make([]ProcessedDocumentDTO, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(h.outputDir, entry.Name()))
		if err != nil {
			continue
		}
		doc := ProcessedDocumentDTO{Name: entry.Name(), Files: []string{}}
		for _, f := range files {
			if !f.IsDir() {
				doc.Files = append(doc.Files, f.Name())
			}
		}
		sort.Strings(doc.Files)
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(docs)
}

// Download handles GET /api/files/{document}/{filename}. Path elements are
// sanitized before touching the filesystem so traversal cannot escape the
// output directory.
func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
	document := domain.SanitizeFilename(chi.URLParam(r, "document"))
	filename := domain.SanitizeFilename(chi.URLParam(r, "filename"))

	path := filepath.Join(h.outputDir, document, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		h.writeError(w, http.StatusNotFound, "file not found", "")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeFile(w, r, path)
}

// Export handles POST /api/export: package named documents into a zip.
func (h *FilesHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Documents) == 0 {
		h.writeError(w, http.StatusBadRequest, "documents is required", "")
		return
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = []string{".txt", ".md"}
	}
	for i, f := range formats {
		if !strings.HasPrefix(f, ".") {
			formats[i] = "." + f
		}
	}

	result, err := h.exporter.Package(req.Documents, formats)
	if err != nil {
		if domain.IsType(err, domain.ErrorTypeValidation) {
			h.writeError(w, http.StatusNotFound, "no matching files found", err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "export failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// DownloadExport handles GET /api/export/{filename}.
func (h *FilesHandler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	filename := domain.SanitizeFilename(chi.URLParam(r, "filename"))
	if !strings.HasSuffix(filename, ".zip") {
		h.writeError(w, http.StatusBadRequest, "export packages are zip files", "")
		return
	}

	path := filepath.Join(h.outputDir, filename)
	if _, err := os.Stat(path); err != nil {
		h.writeError(w, http.StatusNotFound, "export package not found", "")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	http.ServeFile(w, r, path)
}

func (h *FilesHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	writeError(w, status, message, detail)
}
