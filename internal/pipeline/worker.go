package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

// Worker processes one page task end to end: extraction, then optional vision
// enrichment. A worker never lets a failure escape its boundary; the
// scheduler must receive exactly one result per dispatched task.
type Worker struct {
	extractor domain.PageExtractor
	enricher  domain.Enricher
	logger    *observability.Logger
}

// NewWorker creates a page worker bound to one open document.
func NewWorker(extractor domain.PageExtractor, enricher domain.Enricher, logger *observability.Logger) *Worker {
	return &Worker{
		extractor: extractor,
		enricher:  enricher,
		logger:    logger.WithComponent("worker"),
	}
}

// Run executes one page task and always returns a result. Extraction failure
// yields an error stub with empty text; vision failure degrades the page to
// text-only, recording the error without discarding extracted text.
func (w *Worker) Run(ctx context.Context, task domain.PageTask) (result domain.PageResult) {
	start := time.Now()
	result.Index = task.Index

	defer func() {
		if r := recover(); r != nil {
			result = domain.PageResult{
				Index:    task.Index,
				Duration: time.Since(start),
				Err:      domain.ExtractionError(task.Index, fmt.Sprintf("panic during page processing: %v", r), nil),
			}
		}
	}()

	content, err := w.extractor.Extract(ctx, task.Index)
	if err != nil {
		w.logger.Error().Int("page", task.Index).Err(err).Msg("page extraction failed")
		result.Duration = time.Since(start)
		result.Err = err
		return result
	}

	result.Text = content.RawText
	result.Blocks = content.Blocks

	if task.Options.UseVision && w.enricher != nil {
		analysis, verr := w.enricher.Analyze(ctx, content.ImageJPEG, task.Options.Model)
		if verr != nil {
			// Soft failure: keep the text extraction, flag the page.
			w.logger.Warn().Int("page", task.Index).Err(verr).Msg("vision analysis failed, degrading to text-only")
			result.Err = verr
		} else {
			result.VisionAnalysis = analysis
		}
	}

	result.Duration = time.Since(start)
	return result
}
