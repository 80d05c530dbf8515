package pipeline

import (
	"fmt"
	"time"

	"github.com/spherical-ai/docmill/internal/domain"
)

// Assemble merges ordered page results into a DocumentResult with aggregate
// metadata. Pure: deterministic given its inputs, no I/O.
//
// The scheduler contract guarantees one result per page in index order; a
// mismatch here is an internal fault and fails the document rather than
// silently truncating it.
func Assemble(src *domain.SourceDocument, results []domain.PageResult, opts domain.Options, elapsed time.Duration) (*domain.DocumentResult, error) {
	if len(results) != src.PageCount {
		return nil, domain.AssemblyError(
			fmt.Sprintf("expected %d page results, got %d", src.PageCount, len(results)), nil)
	}

	var errs []string
	for i, page := range results {
		if page.Index != i {
			return nil, domain.AssemblyError(
				fmt.Sprintf("page result at position %d has index %d", i, page.Index), nil)
		}
		if page.Err != nil {
			errs = append(errs, fmt.Sprintf("page %d: %v", page.Index, page.Err))
		}
	}

	return &domain.DocumentResult{
		Filename:  src.Filename,
		PageCount: src.PageCount,
		Pages:     results,
		Mode: domain.ProcessingMode{
			Model:      opts.Model,
			UseVision:  opts.UseVision,
			MaxWorkers: opts.MaxWorkers,
		},
		Duration: elapsed,
		Errors:   errs,
	}, nil
}
