package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
	"github.com/spherical-ai/docmill/internal/render"
)

// Processor is the document-level entry point: it opens a PDF, runs the page
// scheduler over it, assembles the merged result and writes the artifact set.
// One Processor serves many documents; per-document state lives in the call.
type Processor struct {
	opener    domain.DocumentOpener
	scheduler *Scheduler
	logger    *observability.Logger
}

// NewProcessor creates a document processor.
func NewProcessor(opener domain.DocumentOpener, enricher domain.Enricher, logger *observability.Logger) *Processor {
	return &Processor{
		opener:    opener,
		scheduler: NewScheduler(enricher, logger),
		logger:    logger.WithComponent("pipeline"),
	}
}

// OnPageDone registers a progress callback forwarded to the scheduler.
func (p *Processor) OnPageDone(fn func(completed, total int)) {
	p.scheduler.OnPageDone = fn
}

// ProcessPDF runs the full pipeline for one document and writes its artifacts
// into a per-document folder under outputDir. The returned artifact set lists
// every file written.
func (p *Processor) ProcessPDF(ctx context.Context, path, outputDir string, opts domain.Options) (*domain.DocumentResult, *domain.DocumentArtifacts, error) {
	start := time.Now()
	opts = opts.Normalize()

	extractor, err := p.opener.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer extractor.Close()

	src := extractor.Document()
	log := p.logger.WithDocument(src.Filename)
	log.Info().
		Int("pages", src.PageCount).
		Str("model", opts.Model).
		Bool("use_vision", opts.UseVision).
		Int("max_workers", opts.MaxWorkers).
		Msg("processing document")

	results, err := p.scheduler.RunAll(ctx, extractor, opts)
	if err != nil {
		return nil, nil, err
	}

	doc, err := Assemble(src, results, opts, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	artifacts, err := p.writeArtifacts(doc, src.Stem(), outputDir)
	if err != nil {
		return doc, nil, err
	}

	log.Info().
		Dur("duration", doc.Duration).
		Int("errors", len(doc.Errors)).
		Msg("document processed")
	return doc, artifacts, nil
}

// ProcessBatch runs ProcessPDF over each path in order. Documents are isolated
// from each other: a failing document is recorded in its entry and the batch
// continues. Only context cancellation stops the batch early.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, outputDir string, opts domain.Options) ([]domain.BatchEntry, error) {
	entries := make([]domain.BatchEntry, 0, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return entries, fmt.Errorf("batch interrupted: %w", err)
		}

		start := time.Now()
		entry := domain.BatchEntry{Filename: filepath.Base(path)}

		_, artifacts, err := p.ProcessPDF(ctx, path, outputDir, opts)
		entry.Duration = time.Since(start)
		if err != nil {
			p.logger.Error().Str("document", entry.Filename).Err(err).Msg("document failed in batch")
			entry.Error = err.Error()
		} else {
			entry.Success = true
			entry.Artifacts = artifacts
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// writeArtifacts serializes the document into its TXT, JSON and Markdown
// representations plus the metadata record, all under one per-document folder
// named after the sanitized stem.
func (p *Processor) writeArtifacts(doc *domain.DocumentResult, stem, outputDir string) (*domain.DocumentArtifacts, error) {
	safeStem := domain.SanitizeFilename(stem)
	folder := filepath.Join(outputDir, safeStem)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot create output folder %s", folder), err)
	}

	jsonBytes, err := render.JSON(doc)
	if err != nil {
		return nil, domain.IOError("json rendering failed", err)
	}

	out := &domain.DocumentArtifacts{
		TxtPath:      filepath.Join(folder, safeStem+".txt"),
		JSONPath:     filepath.Join(folder, safeStem+".json"),
		MarkdownPath: filepath.Join(folder, safeStem+".md"),
		MetadataPath: filepath.Join(folder, safeStem+"_metadata.json"),
	}

	writes := []struct {
		format string
		path   string
		data   []byte
	}{
		{"txt", out.TxtPath, render.Text(doc)},
		{"json", out.JSONPath, jsonBytes},
		{"markdown", out.MarkdownPath, render.Markdown(doc)},
	}

	outputFiles := make([]string, 0, len(writes))
	for _, w := range writes {
		if err := os.WriteFile(w.path, w.data, 0o644); err != nil {
			return nil, domain.IOError(fmt.Sprintf("cannot write %s", w.path), err)
		}
		out.Artifacts = append(out.Artifacts, domain.ExportArtifact{
			Format:   w.format,
			Path:     w.path,
			ByteSize: int64(len(w.data)),
		})
		outputFiles = append(outputFiles, filepath.Base(w.path))
	}

	metaBytes, err := render.Metadata(doc, outputFiles, time.Now())
	if err != nil {
		return nil, domain.IOError("metadata rendering failed", err)
	}
	if err := os.WriteFile(out.MetadataPath, metaBytes, 0o644); err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot write %s", out.MetadataPath), err)
	}
	out.Artifacts = append(out.Artifacts, domain.ExportArtifact{
		Format:   "metadata",
		Path:     out.MetadataPath,
		ByteSize: int64(len(metaBytes)),
	})

	return out, nil
}
