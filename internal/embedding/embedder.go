// Package embedding turns text into vectors through pluggable providers with an LRU cache.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

// Embedder produces vector embeddings for text.
// Every vector returned has length Dimensions(); Model() names the model and version
// so vectors from different models are never compared.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Model() string
	Close() error
}

// Local is implemented by embedders that run in-process and cost nothing per call.
type Local interface {
	Local() bool
}

// LocalOf unwraps cache and timeout layers and returns the innermost embedder
// when it is local.
func LocalOf(e Embedder) (Embedder, bool) {
	for {
		if l, ok := e.(Local); ok && l.Local() {
			return e, true
		}
		w, ok := e.(interface{ Unwrap() Embedder })
		if !ok {
			return nil, false
		}
		e = w.Unwrap()
	}
}

// checkInputs rejects empty batches and blank texts before any provider call.
func checkInputs(texts []string) error {
	if len(texts) == 0 {
		return apperr.New(apperr.KindEmbedding, "embed", "no text to embed")
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return apperr.New(apperr.KindEmbedding, "embed", fmt.Sprintf("text %d is empty", i))
		}
	}
	return nil
}

// checkVectors verifies a provider returned one vector of the expected length per input.
func checkVectors(vectors [][]float32, n, dims int) error {
	if len(vectors) != n {
		return apperr.New(apperr.KindEmbedding, "embed",
			fmt.Sprintf("provider returned %d vectors for %d inputs", len(vectors), n))
	}
	for i, v := range vectors {
		if len(v) != dims {
			return apperr.New(apperr.KindEmbedding, "embed",
				fmt.Sprintf("vector %d has %d dimensions, expected %d", i, len(v), dims))
		}
	}
	return nil
}

// embedOne is Embed in terms of EmbedBatch.
func embedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
