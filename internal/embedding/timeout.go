package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

// TimeoutEmbedder bounds every provider call with a fixed deadline.
type TimeoutEmbedder struct {
	Embedder
	timeout time.Duration
}

// NewTimeoutEmbedder wraps e so each call fails with a timeout error after d.
func NewTimeoutEmbedder(e Embedder, d time.Duration) *TimeoutEmbedder {
	return &TimeoutEmbedder{Embedder: e, timeout: d}
}

// Embed returns the embedding for text within the deadline.
func (t *TimeoutEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, t, text)
}

// EmbedBatch embeds texts within the deadline.
func (t *TimeoutEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	vecs, err := t.Embedder.EmbedBatch(ctx, texts)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, apperr.Wrap(apperr.KindTimeout, "embed",
			fmt.Errorf("embedding timed out after %s: %w", t.timeout, err))
	}
	return vecs, err
}

// Unwrap returns the wrapped embedder.
func (t *TimeoutEmbedder) Unwrap() Embedder {
	return t.Embedder
}
