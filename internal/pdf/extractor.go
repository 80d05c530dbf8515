// Package pdf implements page-level extraction from PDF documents.
//
// Raw text and page rendering come from go-fitz (MuPDF); positioned text used
// for block geometry comes from ledongthuc/pdf. Both views of the document are
// opened once and shared by all page extractions.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

// jpegQuality matches the rendering quality used for vision submission.
const jpegQuality = 85

// Opener opens PDF documents for page extraction.
type Opener struct {
	logger *observability.Logger
}

// NewOpener creates a document opener.
func NewOpener(logger *observability.Logger) *Opener {
	return &Opener{logger: logger.WithComponent("pdf")}
}

// Open validates and opens a PDF, returning a PageExtractor over it.
func (o *Opener) Open(path string) (domain.PageExtractor, error) {
	if err := ValidatePDFPath(path); err != nil {
		return nil, domain.LoadError(fmt.Sprintf("invalid PDF path %s", path), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("cannot stat %s", path), err)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, domain.LoadError(fmt.Sprintf("cannot open %s", path), err)
	}

	ex := &Extractor{
		doc: doc,
		src: &domain.SourceDocument{
			Path:      path,
			Filename:  filepath.Base(path),
			PageCount: doc.NumPage(),
			ByteSize:  info.Size(),
		},
		logger: o.logger,
	}

	// The geometry reader is best-effort: some PDFs that MuPDF renders fine
	// are rejected by the pure-Go parser. Blocks then fall back to raw text.
	geoFile, geo, err := lpdf.Open(path)
	if err != nil {
		o.logger.Warn().Str("path", path).Err(err).
			Msg("positioned-text reader unavailable, falling back to raw text blocks")
	} else {
		ex.geo = geo
		ex.geoFile = geoFile
	}

	return ex, nil
}

// Extractor extracts fully materialized per-page content from one open
// document. Safe for concurrent use: MuPDF handles are not safe for
// concurrent page access, so parsing is serialized on a mutex while JPEG
// encoding and block grouping run outside it.
type Extractor struct {
	mu      sync.Mutex
	doc     *fitz.Document
	geo     *lpdf.Reader
	geoFile *os.File
	src     *domain.SourceDocument
	logger  *observability.Logger
}

// Document describes the open source document.
func (e *Extractor) Document() *domain.SourceDocument {
	return e.src
}

// Extract parses one page and returns its text, blocks and rendered image.
func (e *Extractor) Extract(ctx context.Context, pageIndex int) (*domain.PageContent, error) {
	if pageIndex < 0 || pageIndex >= e.src.PageCount {
		return nil, domain.ExtractionError(pageIndex,
			fmt.Sprintf("page index out of range [0,%d)", e.src.PageCount), nil)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return nil, domain.ExtractionError(pageIndex, "document already closed", nil)
	}
	text, textErr := e.doc.Text(pageIndex)
	img, imgErr := e.doc.Image(pageIndex)
	e.mu.Unlock()

	if textErr != nil {
		return nil, domain.ExtractionError(pageIndex, "text extraction failed", textErr)
	}
	if imgErr != nil {
		return nil, domain.ExtractionError(pageIndex, "page render failed", imgErr)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, domain.ExtractionError(pageIndex, "image encoding failed", err)
	}
	bounds := img.Bounds()

	blocks := e.extractBlocks(pageIndex, text)

	return &domain.PageContent{
		RawText:   text,
		Blocks:    blocks,
		ImageJPEG: buf.Bytes(),
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
	}, nil
}

// extractBlocks builds positioned blocks from the geometry reader, falling
// back to raw-text segmentation when positions are unavailable.
func (e *Extractor) extractBlocks(pageIndex int, rawText string) []domain.TextBlock {
	if e.geo != nil {
		page := e.geo.Page(pageIndex + 1) // 1-based
		if !page.V.IsNull() {
			content := page.Content()
			if len(content.Text) > 0 {
				return BuildBlocks(content.Text)
			}
		}
	}
	return BlocksFromRawText(rawText)
}

// Close releases the underlying document handles. It takes the page mutex, so
// teardown waits for an in-flight Extract to leave the handle before freeing
// it; abandoned page calls after cancellation finish against a live document.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	if e.doc != nil {
		e.doc.Close()
		e.doc = nil
	}
	if e.geoFile != nil {
		if err := e.geoFile.Close(); err != nil {
			errs = append(errs, err)
		}
		e.geoFile = nil
	}
	e.geo = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
