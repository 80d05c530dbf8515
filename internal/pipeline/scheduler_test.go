package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

// fakeExtractor serves synthetic page content and can fail selected pages.
type fakeExtractor struct {
	src       *domain.SourceDocument
	failPages map[int]bool
	delay     time.Duration
	closed    atomic.Bool
}

func newFakeExtractor(pages int) *fakeExtractor {
	return &fakeExtractor{
		src: &domain.SourceDocument{
			Path:      "/tmp/fake.pdf",
			Filename:  "fake.pdf",
			PageCount: pages,
		},
		failPages: map[int]bool{},
	}
}

func (f *fakeExtractor) Document() *domain.SourceDocument { return f.src }

func (f *fakeExtractor) Extract(ctx context.Context, pageIndex int) (*domain.PageContent, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failPages[pageIndex] {
		return nil, domain.ExtractionError(pageIndex, "synthetic failure", nil)
	}
	return &domain.PageContent{
		RawText:   fmt.Sprintf("page %d text", pageIndex),
		ImageJPEG: []byte{0xFF, 0xD8},
	}, nil
}

func (f *fakeExtractor) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeEnricher answers vision calls and can fail selected pages by their text.
type fakeEnricher struct {
	failAll bool
	calls   atomic.Int32
}

func (f *fakeEnricher) Analyze(ctx context.Context, imageJPEG []byte, model string) (string, error) {
	f.calls.Add(1)
	if f.failAll {
		return "", domain.InferenceError("synthetic inference failure", nil)
	}
	return "analysis of " + model, nil
}

func TestRunAllOrdersResultsByPage(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			ex := newFakeExtractor(10)
			ex.delay = time.Millisecond

			s := NewScheduler(nil, observability.Nop())
			results, err := s.RunAll(context.Background(), ex, domain.Options{MaxWorkers: workers})
			require.NoError(t, err)
			require.Len(t, results, 10)

			for i, r := range results {
				assert.Equal(t, i, r.Index)
				assert.Equal(t, fmt.Sprintf("page %d text", i), r.Text)
				assert.NoError(t, r.Err)
			}
		})
	}
}

func TestRunAllPartialExtractionFailure(t *testing.T) {
	ex := newFakeExtractor(3)
	ex.failPages[1] = true

	s := NewScheduler(nil, observability.Nop())
	results, err := s.RunAll(context.Background(), ex, domain.Options{MaxWorkers: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)

	require.Error(t, results[1].Err)
	assert.True(t, domain.IsType(results[1].Err, domain.ErrorTypeExtraction))
	assert.Empty(t, results[1].Text)
}

func TestRunAllVisionDegradesToTextOnly(t *testing.T) {
	ex := newFakeExtractor(4)
	enricher := &fakeEnricher{failAll: true}

	s := NewScheduler(enricher, observability.Nop())
	results, err := s.RunAll(context.Background(), ex, domain.Options{
		MaxWorkers: 2,
		UseVision:  true,
		Model:      "llava:13b",
	})
	require.NoError(t, err)

	for _, r := range results {
		assert.NotEmpty(t, r.Text, "extracted text must survive vision failure")
		assert.Empty(t, r.VisionAnalysis)
		require.Error(t, r.Err)
		assert.True(t, domain.IsType(r.Err, domain.ErrorTypeInference))
	}
	assert.Equal(t, int32(4), enricher.calls.Load())
}

func TestRunAllVisionSuccess(t *testing.T) {
	ex := newFakeExtractor(2)
	enricher := &fakeEnricher{}

	s := NewScheduler(enricher, observability.Nop())
	results, err := s.RunAll(context.Background(), ex, domain.Options{
		MaxWorkers: 2,
		UseVision:  true,
		Model:      "llava:13b",
	})
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, "analysis of llava:13b", r.VisionAnalysis)
		assert.NoError(t, r.Err)
	}
}

func TestRunAllVisionDisabledSkipsEnricher(t *testing.T) {
	ex := newFakeExtractor(3)
	enricher := &fakeEnricher{}

	s := NewScheduler(enricher, observability.Nop())
	_, err := s.RunAll(context.Background(), ex, domain.Options{MaxWorkers: 2})
	require.NoError(t, err)
	assert.Zero(t, enricher.calls.Load())
}

func TestRunAllEmptyDocument(t *testing.T) {
	ex := newFakeExtractor(0)

	s := NewScheduler(nil, observability.Nop())
	results, err := s.RunAll(context.Background(), ex, domain.Options{MaxWorkers: 4})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunAllCancellation(t *testing.T) {
	ex := newFakeExtractor(50)
	ex.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	s := NewScheduler(nil, observability.Nop())
	_, err := s.RunAll(ctx, ex, domain.Options{MaxWorkers: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunAllProgressCallback(t *testing.T) {
	ex := newFakeExtractor(5)

	s := NewScheduler(nil, observability.Nop())
	var last atomic.Int32
	var calls atomic.Int32
	s.OnPageDone = func(completed, total int) {
		calls.Add(1)
		last.Store(int32(completed))
		assert.Equal(t, 5, total)
	}

	_, err := s.RunAll(context.Background(), ex, domain.Options{MaxWorkers: 3})
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, int32(5), last.Load())
}
