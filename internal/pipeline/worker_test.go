package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/docmill/internal/domain"
	"github.com/spherical-ai/docmill/internal/observability"
)

type panickyExtractor struct {
	fakeExtractor
}

func (p *panickyExtractor) Extract(ctx context.Context, pageIndex int) (*domain.PageContent, error) {
	panic("library blew up")
}

func TestWorkerRecoversPanic(t *testing.T) {
	ex := &panickyExtractor{}
	ex.src = &domain.SourceDocument{Filename: "bomb.pdf", PageCount: 1}

	w := NewWorker(ex, nil, observability.Nop())
	result := w.Run(context.Background(), domain.PageTask{Index: 0, Document: ex.src})

	assert.Equal(t, 0, result.Index)
	require.Error(t, result.Err)
	assert.True(t, domain.IsType(result.Err, domain.ErrorTypeExtraction))
	assert.Contains(t, result.Err.Error(), "panic")
	assert.Empty(t, result.Text)
}
