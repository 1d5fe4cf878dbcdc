package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/vector"
)

// SQLiteStorage implements Storage on SQLite so documents survive restarts.
// Embeddings are stored as little-endian float32 BLOBs.
type SQLiteStorage struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		embedding_model TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	CREATE INDEX IF NOT EXISTS idx_documents_expires_at ON documents(expires_at);

	CREATE TABLE IF NOT EXISTS chunks (
		document_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		PRIMARY KEY (document_id, chunk_index),
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Put replaces the document and all of its chunks in one transaction.
func (s *SQLiteStorage) Put(ctx context.Context, doc *models.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, doc.ID); err != nil {
		return fmt.Errorf("failed to clear document: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, checksum, status, embedding_model, dimensions, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.Checksum, doc.Status, doc.EmbeddingModel, doc.Dimensions,
		toMillis(doc.CreatedAt), toMillis(doc.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (document_id, chunk_index, text, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range doc.Chunks {
		if _, err := stmt.ExecContext(ctx, doc.ID, c.Index, c.Text, vector.Encode(c.Embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", c.Index, err)
		}
	}
	return tx.Commit()
}

// Get returns a document with its chunks ordered by chunk index.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var created, expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, checksum, status, embedding_model, dimensions, created_at, expires_at
		 FROM documents WHERE id = ?`, id,
	).Scan(&doc.ID, &doc.Filename, &doc.Checksum, &doc.Status, &doc.EmbeddingModel, &doc.Dimensions, &created, &expires)
	if err == sql.ErrNoRows {
		return nil, notFound("get", id)
	}
	if err != nil {
		return nil, err
	}
	doc.CreatedAt = fromMillis(created)
	doc.ExpiresAt = fromMillis(expires)
	if doc.Expired(s.now()) {
		return nil, notFound("get", id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_index, text, embedding FROM chunks WHERE document_id = ? ORDER BY chunk_index`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Chunk
		var blob []byte
		if err := rows.Scan(&c.Index, &c.Text, &blob); err != nil {
			return nil, err
		}
		if c.Embedding, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		doc.Chunks = append(doc.Chunks, &c)
	}
	return &doc, rows.Err()
}

// Delete removes the document and its chunks.
func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("delete", id)
	}
	return tx.Commit()
}

// DeleteExpired removes documents whose expires_at has passed.
func (s *SQLiteStorage) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return s.deleteWhere(ctx,
		`SELECT id FROM documents WHERE expires_at != 0 AND expires_at <= ?`, now.UnixMilli())
}

// EvictOldest removes the oldest documents until at most keep remain.
func (s *SQLiteStorage) EvictOldest(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		return 0, nil
	}
	return s.deleteWhere(ctx,
		`SELECT id FROM documents ORDER BY created_at DESC, id DESC LIMIT -1 OFFSET ?`, keep)
}

func (s *SQLiteStorage) deleteWhere(ctx context.Context, query string, args ...any) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}
	return len(ids), tx.Commit()
}

// CountDocuments returns the number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// CountChunks returns the number of chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
