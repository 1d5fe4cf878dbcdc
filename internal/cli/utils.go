// Package cli renders pdfqa API results for the terminal.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/pdfqa/internal/client"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/search"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the raw API response, indented.
	OutputJSON OutputFormat = "json"
)

// hitWidth is the snippet length, in runes, shown per search hit.
const hitWidth = 240

// ParseFormat accepts "text" or "json". An empty string means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OutputText):
		return OutputText, nil
	case string(OutputJSON):
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteUpload prints the doc_id returned by an upload.
func WriteUpload(w io.Writer, filename string, resp *models.UploadResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintf(w, "Uploaded %s\ndoc_id: %s\nchunks: %d\n", filename, resp.DocID, resp.NumChunks)
	return err
}

// WriteAnswer prints an answer to question.
func WriteAnswer(w io.Writer, question string, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintf(w, "Q: %s\n\n%s\n", question, strings.TrimSpace(resp.Answer))
	return err
}

// WriteSummary prints a document summary.
func WriteSummary(w io.Writer, resp *models.SummaryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	_, err := fmt.Fprintln(w, strings.TrimSpace(resp.Summary))
	return err
}

// WriteSearchResults prints ranked hits, highlighting the query in each snippet.
func WriteSearchResults(w io.Writer, query string, resp *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		if resp.Hits == nil {
			resp = &models.SearchResponse{Hits: []models.SearchHit{}}
		}
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d hits for %q\n\n", len(resp.Hits), query)
	for i, hit := range resp.Hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Chunk: %d\n", i+1, hit.Score, hit.ChunkIndex)
		fmt.Fprintf(w, "\n%s\n\n", search.Highlight(hit.Text, query, hitWidth))
	}
	return nil
}

// WriteHealth prints the result of a health check.
func WriteHealth(w io.Writer, server string, resp *models.HealthResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	msg := resp.Message
	if msg == "" {
		msg = resp.Status
	}
	_, err := fmt.Fprintf(w, "%s: %s\n", server, msg)
	return err
}

// ErrorMessage turns a client error into the one-line status shown to users.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, client.ErrNoDocumentSelected) {
		return "No document selected. Upload a PDF first and pass its doc_id with --doc."
	}
	var rerr *client.RequestError
	if !errors.As(err, &rerr) {
		return err.Error()
	}
	op := capitalize(rerr.Op)
	switch {
	case rerr.Timeout():
		return op + " timed out. Check that the server is running and reachable."
	case rerr.StatusCode == 0:
		return fmt.Sprintf("%s failed: %v", op, rerr.Err)
	default:
		return fmt.Sprintf("%s failed: %s", op, rerr.Detail)
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Request"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
