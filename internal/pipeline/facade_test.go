package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

// fakeOpener hands out prepared extractors keyed by path.
type fakeOpener struct {
	extractors map[string]*fakeExtractor
}

func (f *fakeOpener) Open(path string) (domain.PageExtractor, error) {
	ex, ok := f.extractors[path]
	if !ok {
		return nil, domain.LoadError("cannot open "+path, nil)
	}
	return ex, nil
}

func TestProcessPDFWritesArtifacts(t *testing.T) {
	outDir := t.TempDir()
	ex := newFakeExtractor(2)
	ex.src.Filename = "annual report.pdf"
	opener := &fakeOpener{extractors: map[string]*fakeExtractor{"/in/annual report.pdf": ex}}

	p := NewProcessor(opener, nil, observability.Nop())
	doc, artifacts, err := p.ProcessPDF(context.Background(), "/in/annual report.pdf", outDir, domain.Options{MaxWorkers: 2})
	require.NoError(t, err)
	require.NotNil(t, artifacts)

	assert.Equal(t, 2, doc.PageCount)
	assert.True(t, ex.closed.Load(), "extractor must be closed after processing")

	folder := filepath.Join(outDir, "annual_report")
	for _, path := range []string{
		artifacts.TxtPath,
		artifacts.JSONPath,
		artifacts.MarkdownPath,
		artifacts.MetadataPath,
	} {
		assert.Equal(t, folder, filepath.Dir(path))
		info, err := os.Stat(path)
		require.NoError(t, err, "missing artifact %s", path)
		assert.Positive(t, info.Size())
	}
	require.Len(t, artifacts.Artifacts, 4)

	var meta map[string]any
	data, err := os.ReadFile(artifacts.MetadataPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "completed", meta["status"])
	assert.Equal(t, float64(2), meta["page_count"])
}

func TestProcessPDFOpenFailure(t *testing.T) {
	p := NewProcessor(&fakeOpener{}, nil, observability.Nop())
	_, _, err := p.ProcessPDF(context.Background(), "/in/missing.pdf", t.TempDir(), domain.Options{})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeLoad))
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	outDir := t.TempDir()
	good := newFakeExtractor(1)
	good.src.Filename = "good.pdf"
	opener := &fakeOpener{extractors: map[string]*fakeExtractor{"/in/good.pdf": good}}

	p := NewProcessor(opener, nil, observability.Nop())
	entries, err := p.ProcessBatch(context.Background(),
		[]string{"/in/broken.pdf", "/in/good.pdf"}, outDir, domain.Options{MaxWorkers: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.False(t, entries[0].Success)
	assert.NotEmpty(t, entries[0].Error)

	assert.True(t, entries[1].Success)
	require.NotNil(t, entries[1].Artifacts)
}

func TestProcessBatchCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(&fakeOpener{}, nil, observability.Nop())
	entries, err := p.ProcessBatch(ctx, []string{"/in/a.pdf"}, t.TempDir(), domain.Options{})
	require.Error(t, err)
	assert.Empty(t, entries)
}

func TestWriteArtifactsIdempotent(t *testing.T) {
	outDir := t.TempDir()
	ex := newFakeExtractor(1)
	ex.src.Filename = "stable.pdf"
	opener := &fakeOpener{extractors: map[string]*fakeExtractor{"/in/stable.pdf": ex}}

	p := NewProcessor(opener, nil, observability.Nop())
	_, first, err := p.ProcessPDF(context.Background(), "/in/stable.pdf", outDir, domain.Options{MaxWorkers: 1})
	require.NoError(t, err)
	firstTxt, err := os.ReadFile(first.TxtPath)
	require.NoError(t, err)
	firstJSON, err := os.ReadFile(first.JSONPath)
	require.NoError(t, err)

	// Second run over the same content must produce identical content bytes.
	ex2 := newFakeExtractor(1)
	ex2.src.Filename = "stable.pdf"
	opener.extractors["/in/stable.pdf"] = ex2

	_, second, err := p.ProcessPDF(context.Background(), "/in/stable.pdf", outDir, domain.Options{MaxWorkers: 1})
	require.NoError(t, err)

	secondTxt, err := os.ReadFile(second.TxtPath)
	require.NoError(t, err)
	secondJSON, err := os.ReadFile(second.JSONPath)
	require.NoError(t, err)

	assert.Equal(t, firstTxt, secondTxt)
	assert.Equal(t, firstJSON, secondJSON)
}
