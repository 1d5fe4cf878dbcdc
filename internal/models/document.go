// Package models defines the document, chunk and request/response types shared across pdfqa.
package models

import "time"

// Document status values.
const (
	StatusUploading = "uploading"
	StatusIndexed   = "indexed"
)

// Document is one uploaded PDF and its ordered chunks.
type Document struct {
	ID             string    `json:"doc_id" db:"id"`
	Filename       string    `json:"filename" db:"filename"`
	Checksum       string    `json:"checksum" db:"checksum"`
	Status         string    `json:"status" db:"status"`
	EmbeddingModel string    `json:"embedding_model" db:"embedding_model"`
	Dimensions     int       `json:"dimensions" db:"dimensions"`
	Chunks         []*Chunk  `json:"-" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ExpiresAt      time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// NumChunks returns the number of chunks in the document.
func (d *Document) NumChunks() int {
	return len(d.Chunks)
}

// Expired reports whether the document's retention deadline has passed at now.
func (d *Document) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt)
}

// Texts returns the chunk texts in reading order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Chunks))
	for i, c := range d.Chunks {
		out[i] = c.Text
	}
	return out
}

// Chunk is a contiguous span of a document's text with its embedding.
// Embedding is never modified once the document is stored.
type Chunk struct {
	Index     int       `json:"chunk_index" db:"chunk_index"`
	Text      string    `json:"text" db:"text"`
	Embedding []float32 `json:"-" db:"embedding"`
}

// DocumentInfo is the public view of a stored document.
type DocumentInfo struct {
	ID             string    `json:"doc_id"`
	Filename       string    `json:"filename"`
	Status         string    `json:"status"`
	NumChunks      int       `json:"num_chunks"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at,omitempty"`
}

// Info returns the public view of d.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		ID:             d.ID,
		Filename:       d.Filename,
		Status:         d.Status,
		NumChunks:      d.NumChunks(),
		EmbeddingModel: d.EmbeddingModel,
		Dimensions:     d.Dimensions,
		CreatedAt:      d.CreatedAt,
		ExpiresAt:      d.ExpiresAt,
	}
}
