package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

// Scheduler fans page tasks out across a bounded worker pool and collects one
// result per page. The returned sequence is ordered by page index regardless
// of completion order. Each RunAll call builds and tears down its own pool;
// nothing is shared across documents.
type Scheduler struct {
	enricher domain.Enricher
	logger   *observability.Logger

	// OnPageDone, when set, is invoked after each page resolves with the
	// number of completed pages and the total. Calls are serialized.
	OnPageDone func(completed, total int)
}

// NewScheduler creates a page scheduler.
func NewScheduler(enricher domain.Enricher, logger *observability.Logger) *Scheduler {
	return &Scheduler{
		enricher: enricher,
		logger:   logger.WithComponent("scheduler"),
	}
}

// RunAll dispatches one task per page of the open document and blocks until
// every task has resolved or ctx is done. On cancellation, in-flight work is
// abandoned (workers drain on their own) and a document-level error is
// returned; no partial results are exposed.
func (s *Scheduler) RunAll(ctx context.Context, extractor domain.PageExtractor, opts domain.Options) ([]domain.PageResult, error) {
	opts = opts.Normalize()
	src := extractor.Document()
	total := src.PageCount

	results := make([]domain.PageResult, total)
	if total == 0 {
		return results, nil
	}

	workers := opts.MaxWorkers
	if workers > total {
		workers = total
	}

	s.logger.Debug().
		Str("document", src.Filename).
		Int("pages", total).
		Int("workers", workers).
		Bool("use_vision", opts.UseVision).
		Msg("dispatching page tasks")

	taskCh := make(chan domain.PageTask, total)
	for i := 0; i < total; i++ {
		taskCh <- domain.PageTask{Index: i, Document: src, Options: opts}
	}
	close(taskCh)

	worker := NewWorker(extractor, s.enricher, s.logger)

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				res := worker.Run(ctx, task)
				// Distinct slots per page index; only the progress counter
				// needs the lock.
				results[task.Index] = res

				mu.Lock()
				completed++
				if s.OnPageDone != nil {
					s.OnPageDone(completed, total)
				}
				mu.Unlock()
			}
		}()
	}

	poolDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(poolDone)
	}()

	select {
	case <-poolDone:
		return results, nil
	case <-ctx.Done():
		// Outstanding tasks are abandoned; the pool drains in the background
		// and does not block future calls.
		return nil, fmt.Errorf("page scheduling interrupted: %w", ctx.Err())
	}
}
