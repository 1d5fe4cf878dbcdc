package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/embedding"
	"github.com/hyperjump/pdfqa/internal/extract"
	"github.com/hyperjump/pdfqa/internal/fileid"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/storage"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// Indexer runs the upload pipeline: extract, chunk, embed, store.
// Indexing of one document ID is serialized; distinct documents index in
// parallel up to the configured number of concurrent uploads.
type Indexer struct {
	store       storage.Storage
	embedder    embedding.Embedder
	extractor   *extract.Extractor
	chunker     *Chunker
	janitor     *storage.Janitor
	batchSize   int
	concurrency int
	uploads     *semaphore.Weighted
	locks       *keyedMutex
	logger      *zap.Logger

	pendingMu sync.Mutex
	pending   map[string]*models.Document

	now         func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for pipeline events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithJanitor applies the janitor's retention policy to new documents and
// sweeps after every successful upload.
func WithJanitor(j *storage.Janitor) IndexerOption {
	return func(idx *Indexer) { idx.janitor = j }
}

// NewIndexer creates an indexer. extractor may be nil, in which case a
// default PDF extractor is used.
func NewIndexer(store storage.Storage, embedder embedding.Embedder, extractor *extract.Extractor, cfg *config.Config, opts ...IndexerOption) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	uploads := cfg.Indexer.MaxConcurrentUploads
	if uploads < 1 {
		uploads = 1
	}
	idx := &Indexer{
		store:       store,
		embedder:    embedder,
		extractor:   extractor,
		chunker:     NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap),
		batchSize:   max(cfg.Embedding.BatchSize, 1),
		concurrency: max(cfg.Embedding.Concurrency, 1),
		uploads:     semaphore.NewWeighted(int64(uploads)),
		locks:       newKeyedMutex(),
		pending:     make(map[string]*models.Document),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = utils.OrNop(idx.logger)
	return idx
}

// Upload indexes an uploaded PDF under a fresh document ID.
func (idx *Indexer) Upload(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	if !extract.IsPDFName(filename) {
		return nil, apperr.New(apperr.KindUnsupportedMedia, "upload", "Only PDF files are supported")
	}
	doc, _, err := idx.index(ctx, uuid.NewString(), filename, content, false)
	return doc, err
}

// IndexBytes indexes content under docID, replacing any existing document
// with that ID once the new chunk set is fully embedded.
func (idx *Indexer) IndexBytes(ctx context.Context, docID, filename string, content []byte) (*models.Document, error) {
	doc, _, err := idx.index(ctx, docID, filename, content, false)
	return doc, err
}

// IndexFile indexes the PDF at path under an ID derived from its absolute
// path. Files whose content is unchanged since the last run are skipped.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (*models.Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if !extract.IsPDFName(absPath) {
		return nil, apperr.New(apperr.KindUnsupportedMedia, "index file", "Only PDF files are supported")
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	doc, skipped, err := idx.index(ctx, fileid.FileDocID(absPath), filepath.Base(absPath), content, true)
	if err != nil {
		return nil, err
	}
	if skipped {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
	}
	return doc, nil
}

// RemoveFile deletes the document bound to path.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return idx.Delete(ctx, fileid.FileDocID(absPath))
}

// Delete removes a document. It waits for an in-flight indexing of the same ID.
func (idx *Indexer) Delete(ctx context.Context, docID string) error {
	unlock := idx.locks.Lock(docID)
	defer unlock()
	if err := idx.store.Delete(ctx, docID); err != nil {
		return err
	}
	idx.logger.Debug("indexer document deleted", zap.String("doc_id", docID))
	return nil
}

// Lookup returns the stored document. A document whose first indexing is
// still running reports KindNotIndexed; an unknown one KindUnknownDocument.
func (idx *Indexer) Lookup(ctx context.Context, docID string) (*models.Document, error) {
	doc, err := idx.store.Get(ctx, docID)
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, storage.ErrNotFound) && idx.pendingDoc(docID) != nil {
		return nil, apperr.New(apperr.KindNotIndexed, "lookup "+docID, "Document is still being indexed")
	}
	return nil, err
}

// Info describes a document without its chunks. While the first indexing of
// docID runs, the result has status "uploading" and no chunks.
func (idx *Indexer) Info(ctx context.Context, docID string) (models.DocumentInfo, error) {
	doc, err := idx.store.Get(ctx, docID)
	if err == nil {
		return doc.Info(), nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		if p := idx.pendingDoc(docID); p != nil {
			return p.Info(), nil
		}
	}
	return models.DocumentInfo{}, err
}

func (idx *Indexer) pendingDoc(docID string) *models.Document {
	idx.pendingMu.Lock()
	defer idx.pendingMu.Unlock()
	return idx.pending[docID]
}

// begin marks docID as uploading until the returned func is called.
func (idx *Indexer) begin(docID, filename string) func() {
	idx.pendingMu.Lock()
	idx.pending[docID] = &models.Document{
		ID:        docID,
		Filename:  filename,
		Status:    models.StatusUploading,
		CreatedAt: idx.now(),
	}
	idx.pendingMu.Unlock()
	return func() {
		idx.pendingMu.Lock()
		delete(idx.pending, docID)
		idx.pendingMu.Unlock()
	}
}

// Embedder returns the embedder used for chunk vectors.
func (idx *Indexer) Embedder() embedding.Embedder {
	return idx.embedder
}

func (idx *Indexer) index(ctx context.Context, docID, filename string, content []byte, skipUnchanged bool) (*models.Document, bool, error) {
	if err := idx.uploads.Acquire(ctx, 1); err != nil {
		return nil, false, apperr.Wrap(apperr.KindInternal, "upload", err)
	}
	defer idx.uploads.Release(1)

	unlock := idx.locks.Lock(docID)
	defer unlock()

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])
	if skipUnchanged {
		if prev, err := idx.store.Get(ctx, docID); err == nil &&
			prev.Checksum == checksum && prev.EmbeddingModel == idx.embedder.Model() {
			return prev, true, nil
		}
	}

	done := idx.begin(docID, filename)
	defer done()

	start := idx.now()
	text, err := idx.extractor.ExtractBytes(content)
	if err != nil {
		return nil, false, err
	}
	chunks := idx.chunker.Chunk(Preprocess(text))
	if len(chunks) == 0 {
		return nil, false, apperr.New(apperr.KindExtraction, "upload", "Could not extract text from PDF")
	}
	if err := idx.embedChunks(ctx, chunks); err != nil {
		return nil, false, err
	}

	created := idx.now()
	doc := &models.Document{
		ID:             docID,
		Filename:       filename,
		Checksum:       checksum,
		Status:         models.StatusIndexed,
		EmbeddingModel: idx.embedder.Model(),
		Dimensions:     idx.embedder.Dimensions(),
		Chunks:         chunks,
		CreatedAt:      created,
	}
	if idx.janitor != nil {
		doc.ExpiresAt = idx.janitor.ExpiresAt(created)
	}
	if err := idx.store.Put(ctx, doc); err != nil {
		return nil, false, fmt.Errorf("failed to store document: %w", err)
	}
	idx.logger.Info("document indexed",
		zap.String("doc_id", docID),
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
		zap.String("model", doc.EmbeddingModel),
		zap.Duration("took", idx.now().Sub(start)))

	if idx.janitor != nil {
		if _, err := idx.janitor.Sweep(ctx); err != nil {
			idx.logger.Warn("retention sweep failed", zap.Error(err))
		}
	}
	return doc, false, nil
}

// embedChunks fills every chunk's Embedding, batchSize texts per call with at
// most concurrency calls in flight. The first failure cancels the rest.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) error {
	dims := idx.embedder.Dimensions()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for start := 0; start < len(chunks); start += idx.batchSize {
		batch := chunks[start:min(start+idx.batchSize, len(chunks))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}
			vecs, err := idx.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			if len(vecs) != len(batch) {
				return apperr.Errorf(apperr.KindEmbedding, "embed chunks",
					"embedder returned %d vectors for %d chunks", len(vecs), len(batch))
			}
			for i, v := range vecs {
				if len(v) != dims {
					return apperr.Errorf(apperr.KindInternal, "embed chunks",
						"chunk %d has %d dimensions, expected %d", batch[i].Index, len(v), dims)
				}
				batch[i].Embedding = v
			}
			return nil
		})
	}
	err := g.Wait()
	var ae *apperr.Error
	if err != nil && !errors.As(err, &ae) {
		return apperr.Wrap(apperr.KindEmbedding, "embed chunks", err)
	}
	return err
}
