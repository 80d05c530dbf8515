package render

import (
	"encoding/json"
	"time"

	"github.com/spherical-ai/docmill/internal/domain"
)

// metadataJSON is the per-document processing record written alongside the
// content artifacts. This is the one output that carries a timestamp, which
// keeps the content writers idempotent.
type metadataJSON struct {
	Filename         string   `json:"filename"`
	ProcessedTime    string   `json:"processed_time"`
	Status           string   `json:"status"`
	ModelUsed        string   `json:"model_used"`
	VisionProcessing bool     `json:"vision_processing"`
	PageCount        int      `json:"page_count"`
	DurationSeconds  float64  `json:"duration_seconds"`
	Errors           []string `json:"errors"`
	OutputFiles      []string `json:"output_files"`
}

// Metadata renders the processing record for a completed document.
// processedAt is injected rather than read from the clock so callers control
// determinism in tests.
func Metadata(doc *domain.DocumentResult, outputFiles []string, processedAt time.Time) ([]byte, error) {
	status := "completed"
	if len(doc.Errors) > 0 {
		status = "completed_with_errors"
	}

	meta := metadataJSON{
		Filename:         doc.Filename,
		ProcessedTime:    processedAt.UTC().Format(time.RFC3339),
		Status:           status,
		ModelUsed:        doc.Mode.Model,
		VisionProcessing: doc.Mode.UseVision,
		PageCount:        doc.PageCount,
		DurationSeconds:  doc.Duration.Seconds(),
		Errors:           doc.Errors,
		OutputFiles:      outputFiles,
	}
	if meta.Errors == nil {
		meta.Errors = []string{}
	}
	if meta.OutputFiles == nil {
		meta.OutputFiles = []string{}
	}

	return json.MarshalIndent(meta, "", "  ")
}
