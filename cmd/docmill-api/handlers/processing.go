package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spherical-ai/docmill/internal/config"
	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
	"github.com/spherical-ai/docmill/internal/pipeline"
)

// ProcessingHandler handles document upload and processing requests.
type ProcessingHandler struct {
	logger    *observability.Logger
	processor *pipeline.Processor
	models    *ModelStore
	cfg       *config.Config
}

// NewProcessingHandler creates a new processing handler.
func NewProcessingHandler(logger *observability.Logger, processor *pipeline.Processor, models *ModelStore, cfg *config.Config) *ProcessingHandler {
	return &ProcessingHandler{
		logger:    logger,
		processor: processor,
		models:    models,
		cfg:       cfg,
	}
}

// DocumentResponseDTO is the API response for a processed document.
type DocumentResponseDTO struct {
	Filename        string                    `json:"filename"`
	PageCount       int                       `json:"page_count"`
	DurationSeconds float64                   `json:"duration_seconds"`
	Errors          []string                  `json:"errors"`
	Artifacts       *domain.DocumentArtifacts `json:"artifacts"`
	Mode            domain.ProcessingMode     `json:"processing_mode"`
}

// BatchResponseDTO is the API response for a batch request.
type BatchResponseDTO struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Entries   []domain.BatchEntry `json:"entries"`
}

// Upload handles POST /api/upload: one multipart PDF, processed synchronously.
func (h *ProcessingHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required", err.Error())
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file, header)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot save upload", err.Error())
		return
	}

	opts := h.optionsFromForm(r)
	h.logger.Info().
		Str("filename", header.Filename).
		Str("model", opts.Model).
		Bool("use_vision", opts.UseVision).
		Msg("Processing uploaded document")

	doc, artifacts, err := h.processor.ProcessPDF(ctx, path, h.cfg.Storage.OutputDir, opts)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "processing failed", err.Error())
		return
	}

	resp := DocumentResponseDTO{
		Filename:        doc.Filename,
		PageCount:       doc.PageCount,
		DurationSeconds: doc.Duration.Seconds(),
		Errors:          doc.Errors,
		Artifacts:       artifacts,
		Mode:            doc.Mode,
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Batch handles POST /api/batch: multiple multipart PDFs under files[],
// processed sequentially with per-document isolation.
func (h *ProcessingHandler) Batch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Server.MaxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	uploads := r.MultipartForm.File["files[]"]
	if len(uploads) == 0 {
		h.writeError(w, http.StatusBadRequest, "files[] field is required", "")
		return
	}

	var paths []string
	for _, header := range uploads {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", header.Filename), err.Error())
			return
		}
		path, err := h.saveUpload(file, header)
		file.Close()
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot save %s", header.Filename), err.Error())
			return
		}
		paths = append(paths, path)
	}

	opts := h.optionsFromForm(r)
	h.logger.Info().Int("documents", len(paths)).Msg("Processing batch upload")

	entries, err := h.processor.ProcessBatch(ctx, paths, h.cfg.Storage.OutputDir, opts)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "batch interrupted", err.Error())
		return
	}

	succeeded := 0
	for _, e := range entries {
		if e.Success {
			succeeded++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(BatchResponseDTO{
		Total:     len(entries),
		Succeeded: succeeded,
		Entries:   entries,
	})
}

// saveUpload stores one uploaded file under the upload directory with a
// sanitized name and verifies the PDF extension up front.
func (h *ProcessingHandler) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	name := domain.SanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", fmt.Errorf("only PDF files are accepted, got %q", header.Filename)
	}

	path := filepath.Join(h.cfg.Storage.UploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// optionsFromForm layers per-request form fields over configured defaults.
// The selected model comes from the model store unless the request names one.
func (h *ProcessingHandler) optionsFromForm(r *http.Request) domain.Options {
	opts := h.cfg.Options()
	opts.Model = h.models.Current()

	if v := r.FormValue("model"); v != "" {
		opts.Model = v
	}
	if v := r.FormValue("use_vision"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.UseVision = b
		}
	}
	if v := r.FormValue("max_workers"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.MaxWorkers = n
		}
	}
	return opts.Normalize()
}

func (h *ProcessingHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	writeError(w, status, message, detail)
}

// writeError emits the error envelope shared by all handlers.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
