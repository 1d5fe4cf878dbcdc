package watcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// Ingester indexes and removes PDFs by path.
type Ingester interface {
	IndexFile(ctx context.Context, path string) (*models.Document, error)
	RemoveFile(ctx context.Context, path string) error
}

// Inbox binds watched PDFs to documents: writing a PDF indexes it under a
// path-derived doc_id, deleting it removes the document.
type Inbox struct {
	*Watcher
	ingester Ingester
	logger   *zap.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewInbox creates an inbox over cfg.Directories.
func NewInbox(ingester Ingester, cfg *config.WatchConfig, logger *zap.Logger, opts ...WatcherOption) *Inbox {
	in := &Inbox{ingester: ingester, logger: utils.OrNop(logger), ctx: context.Background()}
	opts = append([]WatcherOption{WithLogger(in.logger)}, opts...)
	in.Watcher = NewWatcher(cfg.Directories, cfg.RecursiveOrDefault(), in.index, in.remove, opts...)
	return in
}

// Start begins watching and indexes the PDFs already present.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	in.ctx = ctx
	in.mu.Unlock()
	if err := in.Watcher.Start(ctx); err != nil {
		return err
	}
	go in.SyncExistingFiles()
	return nil
}

func (in *Inbox) context() context.Context {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ctx
}

func (in *Inbox) index(path string) {
	doc, err := in.ingester.IndexFile(in.context(), path)
	if err != nil {
		in.logger.Warn("inbox indexing failed", zap.String("path", path), zap.Error(err))
		return
	}
	in.logger.Info("inbox document ready",
		zap.String("path", path),
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", doc.NumChunks()))
}

func (in *Inbox) remove(path string) {
	err := in.ingester.RemoveFile(in.context(), path)
	switch {
	case err == nil:
		in.logger.Info("inbox document removed", zap.String("path", path))
	case apperr.Is(err, apperr.KindUnknownDocument):
	default:
		in.logger.Warn("inbox removal failed", zap.String("path", path), zap.Error(err))
	}
}
