// Package storage defines the document store and its memory and SQLite backends.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/models"
)

// ErrNotFound is wrapped by every lookup of an unknown or expired document.
var ErrNotFound = errors.New("document not found")

// Storage holds indexed documents. A document is written whole by Put and is
// never visible half-written. Chunk embeddings returned by Get are shared with
// the store and must not be modified by callers.
type Storage interface {
	// Put inserts doc or atomically replaces a document with the same ID.
	Put(ctx context.Context, doc *models.Document) error
	// Get returns the document with its chunks in reading order.
	Get(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes documents whose ExpiresAt is at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	// EvictOldest removes the oldest documents until at most keep remain.
	EvictOldest(ctx context.Context, keep int) (int, error)

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}

func notFound(op, id string) error {
	return &apperr.Error{Kind: apperr.KindUnknownDocument, Op: op + " " + id, Message: "Unknown doc_id", Err: ErrNotFound}
}
