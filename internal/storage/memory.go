package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// MemoryStorage keeps documents in process memory. Reads share a lock; writes
// replace whole documents so readers never observe a partial update.
type MemoryStorage struct {
	docs map[string]*models.Document
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string]*models.Document), now: time.Now}
}

// Put stores a private copy of doc.
func (s *MemoryStorage) Put(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *doc
	cp.Chunks = make([]*models.Chunk, len(doc.Chunks))
	for i, c := range doc.Chunks {
		cp.Chunks[i] = &models.Chunk{Index: c.Index, Text: c.Text, Embedding: utils.CloneVector(c.Embedding)}
	}
	s.mu.Lock()
	s.docs[doc.ID] = &cp
	s.mu.Unlock()
	return nil
}

// Get returns the document. The Document value is a copy; its chunks are shared.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok || doc.Expired(s.now()) {
		return nil, notFound("get", id)
	}
	cp := *doc
	cp.Chunks = append([]*models.Chunk(nil), doc.Chunks...)
	return &cp, nil
}

// Delete removes the document.
func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return notFound("delete", id)
	}
	delete(s.docs, id)
	return nil
}

// DeleteExpired removes every document expired at now.
func (s *MemoryStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, doc := range s.docs {
		if doc.Expired(now) {
			delete(s.docs, id)
			n++
		}
	}
	return n, nil
}

// EvictOldest removes the oldest documents by CreatedAt until at most keep remain.
func (s *MemoryStorage) EvictOldest(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < 0 || len(s.docs) <= keep {
		return 0, nil
	}
	docs := make([]*models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.Before(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	evict := len(docs) - keep
	for _, d := range docs[:evict] {
		delete(s.docs, d.ID)
	}
	return evict, nil
}

// CountDocuments returns the number of stored documents.
func (s *MemoryStorage) CountDocuments(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.docs)), nil
}

// CountChunks returns the number of stored chunks across all documents.
func (s *MemoryStorage) CountChunks(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, d := range s.docs {
		n += int64(len(d.Chunks))
	}
	return n, nil
}

// Close releases nothing.
func (s *MemoryStorage) Close() error {
	return nil
}
