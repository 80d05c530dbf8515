package domain

import "context"

// PageExtractor yields fully materialized content for individual pages of one
// open document. Implementations must be safe for concurrent calls on distinct
// page indexes, serializing internally if the underlying library requires it.
type PageExtractor interface {
	// Document describes the open source document.
	Document() *SourceDocument

	// Extract parses one page. The page index must be in [0, PageCount).
	Extract(ctx context.Context, pageIndex int) (*PageContent, error)

	// Close releases the underlying document handle.
	Close() error
}

// Enricher produces a natural-language analysis of a rendered page image.
// Implementations make at most one attempt per call; retry policy, if any,
// belongs to the caller.
type Enricher interface {
	Analyze(ctx context.Context, imageJPEG []byte, model string) (string, error)
}

// DocumentOpener opens a PDF and returns a PageExtractor for it. A failure to
// open is a load error: fatal for the document, no page tasks dispatched.
type DocumentOpener interface {
	Open(path string) (PageExtractor, error)
}
