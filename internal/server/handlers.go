package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/search"
	"github.com/hyperjump/pdfqa/internal/storage"
	"github.com/hyperjump/pdfqa/internal/synth"
)

// multipartMemory is the part of an upload kept in memory before spilling to disk.
const multipartMemory = 8 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.HealthResponse{Status: "ok", Message: HealthMessage})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.config.Server.MaxUploadBytes
	if limit > 0 {
		if r.ContentLength > limit {
			s.respondError(w, apperr.New(apperr.KindTooLarge, "upload", "File too large"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, uploadError(err, "Invalid multipart form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "upload", "file is required"))
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, uploadError(err, "Could not read uploaded file"))
		return
	}
	s.logger.Debug("upload request", zap.String("filename", header.Filename), zap.Int("bytes", len(content)))

	doc, err := s.indexer.Upload(r.Context(), header.Filename, content)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{DocID: doc.ID, NumChunks: doc.NumChunks()})
}

func uploadError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.New(apperr.KindTooLarge, "upload", "File too large")
	}
	return &apperr.Error{Kind: apperr.KindInvalidRequest, Op: "upload", Message: message, Err: err}
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "ask", msg))
		return
	}
	s.logger.Debug("ask request", zap.String("doc_id", req.DocID))
	_, hits, err := s.engine.Retrieve(r.Context(), req.DocID, req.Question, 0)
	if err != nil {
		s.respondError(w, err)
		return
	}
	contexts := synth.SummaryContext(search.Texts(hits), 0, s.config.Synthesis.MaxContextChars)
	answer, err := s.synth.Answer(r.Context(), req.Question, contexts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req models.SummaryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "summary", msg))
		return
	}
	doc, err := s.indexer.Lookup(r.Context(), req.DocID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	cfg := s.config.Synthesis
	chunks := synth.SummaryContext(doc.Texts(), cfg.SummaryMaxChunks, cfg.MaxContextChars)
	summary, err := s.synth.Summarize(r.Context(), chunks)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SummaryResponse{Summary: summary})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "search", msg))
		return
	}
	s.logger.Debug("search request", zap.String("doc_id", req.DocID), zap.Int("top_k", req.TopK))
	hits, err := s.engine.Search(r.Context(), req.DocID, req.Query, req.TopK)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{Hits: hits})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	info, err := s.indexer.Info(r.Context(), chi.URLParam(r, "doc_id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doc_id")
	s.logger.Debug("delete document request", zap.String("doc_id", id))
	if err := s.indexer.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"doc_id": id, "status": "deleted"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	embedder := s.indexer.Embedder()
	resp := map[string]interface{}{
		"documents":      docCount,
		"chunks":         chunkCount,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	configInfo := map[string]interface{}{
		"storage_backend":      s.config.Storage.Backend,
		"embedding_model":      embedder.Model(),
		"embedding_dimensions": embedder.Dimensions(),
		"synthesizer":          s.synth.Name(),
		"chunk_size":           s.config.Chunking.ChunkSize,
		"chunk_overlap":        s.config.Chunking.ChunkOverlap,
		"top_k":                s.config.Search.TopK,
		"document_ttl":         s.config.Storage.TTL.String(),
		"max_documents":        s.config.Storage.MaxDocuments,
	}
	if du, ok := s.storage.(storage.DiskUsager); ok {
		if n, err := du.DiskUsageBytes(); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	if s.watch != nil {
		configInfo["watch_directories"] = s.watch.Directories()
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondStatus(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondStatus(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Path == "" {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "watch add", "path is required"))
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "watch add", "invalid path"))
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondStatus(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, err)
		return
	}
	if !info.IsDir() {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "watch add", "path is not a directory"))
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondStatus(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "watch remove", "path query parameter is required"))
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, apperr.New(apperr.KindInvalidRequest, "watch remove", "invalid path"))
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.respondError(w, &apperr.Error{Kind: apperr.KindInvalidRequest, Op: "decode", Message: "invalid request body", Err: err})
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes the error envelope with the status for err's kind.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("kind", string(kind)), zap.Error(err))
	}
	s.respondJSON(w, status, models.ErrorResponse{Detail: apperr.Message(err), Kind: string(kind)})
}

func (s *Server) respondStatus(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Detail: message})
}
