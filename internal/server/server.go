// Package server provides the HTTP API for pdfqa.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/indexer"
	"github.com/hyperjump/pdfqa/internal/search"
	"github.com/hyperjump/pdfqa/internal/storage"
	"github.com/hyperjump/pdfqa/internal/synth"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// HealthMessage is reported by GET /.
const HealthMessage = "Smart PDF backend running"

// WatchService manages the PDF inbox directories at runtime.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the pdfqa API.
type Server struct {
	indexer *indexer.Indexer
	engine  *search.Engine
	synth   synth.Synthesizer
	storage storage.Storage
	config  *config.Config
	watch   WatchService
	logger  *zap.Logger
	server  *http.Server
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithWatchService enables the /watch/directories endpoints.
func WithWatchService(ws WatchService) Option {
	return func(s *Server) { s.watch = ws }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	idx *indexer.Indexer,
	engine *search.Engine,
	synthesizer synth.Synthesizer,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		indexer: idx,
		engine:  engine,
		synth:   synthesizer,
		storage: store,
		config:  cfg,
		logger:  utils.OrNop(logger),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler with every route and middleware installed.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.Server.CORSEnabled() {
		r.Use(cors)
	}
	if t := s.config.Server.RequestTimeout; t > 0 {
		r.Use(middleware.Timeout(t))
	}

	r.Get("/", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/upload", s.handleUpload)
	r.Post("/ask", s.handleAsk)
	r.Post("/summary", s.handleSummary)
	r.Post("/search", s.handleSearch)
	r.Get("/documents/{doc_id}", s.handleGetDocument)
	r.Delete("/documents/{doc_id}", s.handleDeleteDocument)
	r.Get("/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// cors allows every origin, matching the browser client's expectations.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
