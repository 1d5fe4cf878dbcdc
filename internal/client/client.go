// Package client is a thin HTTP client for the pdfqa API.
//
// Every call is a single request with a fixed deadline. Failures are never
// retried; they surface as *RequestError values that carry the server's
// error envelope when one was returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

// DefaultTimeout bounds every call made by a Client.
const DefaultTimeout = 60 * time.Second

const (
	maxErrorBody   = 64 << 10
	maxDetailRunes = 300
)

var (
	// ErrNoDocumentSelected is returned before any network call when a
	// document-scoped operation is given an empty doc_id.
	ErrNoDocumentSelected = errors.New("no document selected")
	// ErrTimeout is matched by errors.Is when a call exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
)

// RequestError describes a failed call. StatusCode is zero for transport
// failures.
type RequestError struct {
	Op         string
	StatusCode int
	Detail     string
	Kind       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (%d): %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Timeout reports whether the call failed because its deadline passed.
func (e *RequestError) Timeout() bool { return errors.Is(e.Err, ErrTimeout) }

// Client talks to one pdfqa server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Upload sends the PDF at path as the multipart field "file".
func (c *Client) Upload(ctx context.Context, path string) (*models.UploadResponse, error) {
	const op = "upload"
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	return c.UploadBytes(ctx, filepath.Base(path), content)
}

// UploadBytes uploads content under filename.
func (c *Client) UploadBytes(ctx context.Context, filename string, content []byte) (*models.UploadResponse, error) {
	const op = "upload"
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if _, err := part.Write(content); err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out models.UploadResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask asks a question about docID.
func (c *Client) Ask(ctx context.Context, docID, question string) (*models.AskResponse, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, ErrNoDocumentSelected
	}
	var out models.AskResponse
	if err := c.postJSON(ctx, "ask", "/ask", models.AskRequest{DocID: docID, Question: question}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Summary requests a summary of docID.
func (c *Client) Summary(ctx context.Context, docID string) (*models.SummaryResponse, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, ErrNoDocumentSelected
	}
	var out models.SummaryResponse
	if err := c.postJSON(ctx, "summary", "/summary", models.SummaryRequest{DocID: docID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns the best matching chunks of docID. topK <= 0 uses the
// server default.
func (c *Client) Search(ctx context.Context, docID, query string, topK int) (*models.SearchResponse, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, ErrNoDocumentSelected
	}
	if topK < 0 {
		topK = 0
	}
	var out models.SearchResponse
	req := models.SearchRequest{DocID: docID, Query: query, TopK: topK}
	if err := c.postJSON(ctx, "search", "/search", req, &out); err != nil {
		return nil, err
	}
	if out.Hits == nil {
		out.Hits = []models.SearchHit{}
	}
	return &out, nil
}

// Health calls GET /. Any 200 counts as healthy.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	const op = "health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp)
	}
	out := &models.HealthResponse{Status: "ok"}
	// Older servers answer with arbitrary bodies.
	_ = json.NewDecoder(resp.Body).Decode(out)
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(err) {
			return &RequestError{Op: op, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
		}
		return &RequestError{Op: op, StatusCode: 0, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func transportError(op string, err error) *RequestError {
	if isTimeout(err) {
		return &RequestError{Op: op, Err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	return &RequestError{Op: op, Err: err}
}

// statusError keeps the raw body, cut to maxDetailRunes, as Detail unless it
// is an error envelope.
func statusError(op string, resp *http.Response) *RequestError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rerr := &RequestError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Detail:     utils.Truncate(strings.TrimSpace(string(raw)), maxDetailRunes),
	}
	var env models.ErrorResponse
	if json.Unmarshal(raw, &env) == nil && env.Detail != "" {
		rerr.Detail = env.Detail
		rerr.Kind = env.Kind
	}
	if rerr.Detail == "" {
		rerr.Detail = http.StatusText(resp.StatusCode)
	}
	return rerr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
