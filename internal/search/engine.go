// Package search ranks the chunks of one document against a natural-language query.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/embedding"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/vector"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// Documents resolves a doc_id to an indexed document.
type Documents interface {
	Lookup(ctx context.Context, docID string) (*models.Document, error)
}

// Engine runs semantic search over a single document's chunks.
type Engine struct {
	docs     Documents
	embedder embedding.Embedder
	topK     int
	maxTopK  int
	logger   *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for query timings.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine. The embedder must be the one that indexed the documents.
func NewEngine(docs Documents, embedder embedding.Embedder, cfg *config.SearchConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		docs:     docs,
		embedder: embedder,
		topK:     cfg.TopK,
		maxTopK:  cfg.MaxTopK,
	}
	if e.topK <= 0 {
		e.topK = 5
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = utils.OrNop(e.logger)
	return e
}

// Search returns up to k chunks of the document ranked by descending cosine
// similarity to query. k <= 0 selects the configured default. A document with
// no chunks yields an empty, non-nil hit list.
func (e *Engine) Search(ctx context.Context, docID, query string, k int) ([]models.SearchHit, error) {
	_, hits, err := e.Retrieve(ctx, docID, query, k)
	return hits, err
}

// Retrieve is Search that also returns the resolved document.
func (e *Engine) Retrieve(ctx context.Context, docID, query string, k int) (*models.Document, []models.SearchHit, error) {
	start := time.Now()
	query, k, err := e.processQuery(query, k)
	if err != nil {
		return nil, nil, err
	}
	doc, err := e.docs.Lookup(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if doc.NumChunks() == 0 {
		return doc, []models.SearchHit{}, nil
	}
	if doc.EmbeddingModel != e.embedder.Model() {
		return nil, nil, apperr.New(apperr.KindEmbedding, "search "+docID, fmt.Sprintf(
			"document was indexed with %s but the server embeds with %s; upload it again",
			doc.EmbeddingModel, e.embedder.Model()))
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			err = apperr.Wrap(apperr.KindEmbedding, "embed query", err)
		}
		return nil, nil, err
	}

	candidates := make([]vector.Candidate, len(doc.Chunks))
	for i, ch := range doc.Chunks {
		candidates[i] = vector.Candidate{Index: i, Vector: ch.Embedding}
	}
	// A local embedder can afford to score every chunk's passages too.
	local, isLocal := embedding.LocalOf(e.embedder)
	limit := k
	if isLocal {
		limit = len(candidates)
	}
	ranked, err := vector.TopK(ctx, queryVec, candidates, limit)
	if err == nil && isLocal {
		ranked, err = rescorePassages(ctx, local, queryVec, doc.Chunks, ranked, k)
	}
	if err != nil {
		return nil, nil, rankError(docID, err)
	}

	hits := make([]models.SearchHit, len(ranked))
	for i, r := range ranked {
		ch := doc.Chunks[r.Index]
		hits[i] = models.SearchHit{Text: ch.Text, Score: r.Score, ChunkIndex: ch.Index}
	}
	e.logger.Debug("search",
		zap.String("doc_id", docID),
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
		zap.Duration("took", time.Since(start)))
	return doc, hits, nil
}

func rankError(docID string, err error) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, vector.ErrDimensionMismatch):
		return apperr.Wrap(apperr.KindInternal, "rank "+docID, err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTimeout, "rank "+docID, err)
	default:
		return apperr.Wrap(apperr.KindInternal, "rank "+docID, err)
	}
}

// Texts returns the hit texts in rank order.
func Texts(hits []models.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Text
	}
	return out
}
