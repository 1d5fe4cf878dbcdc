package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/pdfqa/internal/config"
)

// New builds the embedder selected by cfg.Provider. Provider calls are bounded by
// cfg.Timeout and repeated texts are served from an LRU cache when cfg.CacheSize
// is positive.
func New(ctx context.Context, cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case config.EmbedderHashing, "":
		e, err = NewHashingEmbedder(cfg.Dimensions)
	case config.EmbedderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	case config.EmbedderOpenAI:
		e, err = NewOpenAIEmbedder(cfg.APIKey(), cfg.BaseURL, cfg.Model, cfg.Dimensions, cfg.BatchSize)
	case config.EmbedderGemini:
		e, err = NewGeminiEmbedder(ctx, cfg.APIKey(), cfg.Model, cfg.Dimensions, cfg.BatchSize)
	case config.EmbedderONNX:
		e, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		e = NewTimeoutEmbedder(e, cfg.Timeout)
	}
	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(e, cfg.CacheSize), nil
	}
	return e, nil
}
