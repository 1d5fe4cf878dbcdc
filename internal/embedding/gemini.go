package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

const geminiMaxBatch = 100

// GeminiEmbedder embeds text with a Google Gemini embedding model.
type GeminiEmbedder struct {
	client     *genai.Client
	model      *genai.EmbeddingModel
	dimensions int
	batchSize  int
}

// NewGeminiEmbedder connects to the Gemini API with apiKey.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions, batchSize int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini embedder: API key is not set")
	}
	if model == "" || dimensions <= 0 {
		return nil, fmt.Errorf("gemini embedder: model and dimensions are required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity
	if batchSize <= 0 || batchSize > geminiMaxBatch {
		batchSize = geminiMaxBatch
	}
	return &GeminiEmbedder{client: client, model: em, dimensions: dimensions, batchSize: batchSize}, nil
}

// Embed returns the embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, e, text)
}

// EmbedBatch sends texts through BatchEmbedContents.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := checkInputs(texts); err != nil {
		return nil, err
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch := e.model.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		res, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindEmbedding, "embed", fmt.Errorf("gemini embeddings: %w", err))
		}
		for _, emb := range res.Embeddings {
			if emb == nil {
				return nil, apperr.New(apperr.KindEmbedding, "embed", "gemini returned an empty embedding")
			}
			out = append(out, emb.Values)
		}
	}
	if err := checkVectors(out, len(texts), e.dimensions); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Model returns the model tag.
func (e *GeminiEmbedder) Model() string {
	return fmt.Sprintf("gemini-%s-%d", e.model.Name(), e.dimensions)
}

// Close closes the underlying client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
