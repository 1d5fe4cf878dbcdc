package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/hyperjump/pdfqa/pkg/utils"
)

// HashingEmbedder is an offline, deterministic embedder. Text is analyzed with
// bleve's standard analyzer (unicode segmentation, lowercasing, English stop
// words); unigrams and adjacent bigrams are hashed into signed buckets with
// sublinear term frequency, and the result is L2-normalized.
type HashingEmbedder struct {
	dimensions int
	analyzer   textAnalyzer
}

type textAnalyzer interface {
	Analyze(input []byte) analysis.TokenStream
}

// NewHashingEmbedder returns a hashing embedder with the given dimensionality.
func NewHashingEmbedder(dimensions int) (*HashingEmbedder, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	a, err := registry.NewCache().AnalyzerNamed(standard.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyzer: %w", err)
	}
	return &HashingEmbedder{dimensions: dimensions, analyzer: a}, nil
}

// Terms returns the analyzed terms of text in order.
func (e *HashingEmbedder) Terms(text string) []string {
	tokens := e.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, string(tok.Term))
	}
	return terms
}

// Embed returns the hashed feature vector for text.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, e, text)
}

// EmbedBatch embeds each text independently.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := checkInputs(texts); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashingEmbedder) vector(text string) []float32 {
	terms := e.Terms(text)
	counts := make(map[string]int, len(terms)*2)
	for i, t := range terms {
		counts[t]++
		if i > 0 {
			counts[terms[i-1]+" "+t]++
		}
	}
	vec := make([]float32, e.dimensions)
	for feature, n := range counts {
		bucket, sign := e.bucket(feature)
		vec[bucket] += sign * float32(1+math.Log(float64(n)))
	}
	utils.NormalizeL2(vec)
	return vec
}

func (e *HashingEmbedder) bucket(feature string) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	sign := float32(1)
	if sum>>63 == 1 {
		sign = -1
	}
	return int(sum % uint64(e.dimensions)), sign
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the model tag.
func (e *HashingEmbedder) Model() string {
	return fmt.Sprintf("hashing-v1-%d", e.dimensions)
}

// Local reports true; hashing needs no model or network.
func (e *HashingEmbedder) Local() bool {
	return true
}

// Close is a no-op.
func (e *HashingEmbedder) Close() error {
	return nil
}
