package models

import "strings"

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	DocID     string `json:"doc_id"`
	NumChunks int    `json:"num_chunks"`
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	DocID    string `json:"doc_id"`
	Question string `json:"question"`
}

// AskResponse is returned by POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// SummaryRequest is the body of POST /summary.
type SummaryRequest struct {
	DocID string `json:"doc_id"`
}

// SummaryResponse is returned by POST /summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// SearchRequest is the body of POST /search. TopK <= 0 means the server default.
type SearchRequest struct {
	DocID string `json:"doc_id"`
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// SearchHit is one ranked chunk. Score is cosine similarity in [-1, 1].
type SearchHit struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

// SearchResponse is returned by POST /search. Hits are sorted by descending score.
type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

// Validate reports the first missing field of an ask request.
func (r *AskRequest) Validate() string {
	r.DocID = strings.TrimSpace(r.DocID)
	if r.DocID == "" {
		return "doc_id is required"
	}
	if strings.TrimSpace(r.Question) == "" {
		return "question is required"
	}
	return ""
}

// Validate reports the first missing field of a summary request.
func (r *SummaryRequest) Validate() string {
	r.DocID = strings.TrimSpace(r.DocID)
	if r.DocID == "" {
		return "doc_id is required"
	}
	return ""
}

// Validate reports the first missing or invalid field of a search request.
func (r *SearchRequest) Validate() string {
	r.DocID = strings.TrimSpace(r.DocID)
	if r.DocID == "" {
		return "doc_id is required"
	}
	if strings.TrimSpace(r.Query) == "" {
		return "query is required"
	}
	if r.TopK < 0 {
		return "top_k must not be negative"
	}
	return ""
}
