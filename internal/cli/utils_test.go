package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/pdfqa/internal/client"
	"github.com/hyperjump/pdfqa/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" json ", OutputJSON, false},
		{"compact", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	resp := &models.SearchResponse{Hits: []models.SearchHit{
		{Text: "first", Score: 0.9, ChunkIndex: 2},
		{Text: "second", Score: 0.4, ChunkIndex: 0},
	}}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", resp, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded.Hits) != 2 || decoded.Hits[0].ChunkIndex != 2 {
		t.Errorf("decoded hits = %+v", decoded.Hits)
	}
}

func TestWriteSearchResults_JSON_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", &models.SearchResponse{}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"hits": []`) {
		t.Errorf("empty hits should encode as [], got %s", buf.String())
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	long := strings.Repeat("filler words here ", 40) + "the mitochondria produce energy " + strings.Repeat("more filler ", 40)
	resp := &models.SearchResponse{Hits: []models.SearchHit{
		{Text: long, Score: 0.8123, ChunkIndex: 3},
		{Text: "Short content", Score: 0.2},
	}}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "mitochondria", resp, OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{`Found 2 hits for "mitochondria"`, "Rank: 1", "Score: 0.8123", "Chunk: 3", "mitochondria produce", "Rank: 2", "Short content"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, long) {
		t.Error("long hit should be cut to a snippet")
	}
}

func TestWriteUploadAnswerSummaryHealth(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUpload(&buf, "a.pdf", &models.UploadResponse{DocID: "d-1", NumChunks: 4}, OutputText); err != nil {
		t.Fatal(err)
	}
	if out := buf.String(); !strings.Contains(out, "doc_id: d-1") || !strings.Contains(out, "chunks: 4") {
		t.Errorf("upload text = %q", out)
	}

	buf.Reset()
	if err := WriteUpload(&buf, "a.pdf", &models.UploadResponse{DocID: "d-1", NumChunks: 4}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var up models.UploadResponse
	if err := json.Unmarshal(buf.Bytes(), &up); err != nil || up.DocID != "d-1" {
		t.Errorf("upload json = %s (%v)", buf.String(), err)
	}

	buf.Reset()
	_ = WriteAnswer(&buf, "why?", &models.AskResponse{Answer: "  because.\n"}, OutputText)
	if buf.String() != "Q: why?\n\nbecause.\n" {
		t.Errorf("answer text = %q", buf.String())
	}

	buf.Reset()
	_ = WriteSummary(&buf, &models.SummaryResponse{Summary: "Summary:\n- one"}, OutputText)
	if buf.String() != "Summary:\n- one\n" {
		t.Errorf("summary text = %q", buf.String())
	}

	buf.Reset()
	_ = WriteHealth(&buf, "http://x", &models.HealthResponse{Status: "ok"}, OutputText)
	if buf.String() != "http://x: ok\n" {
		t.Errorf("health text = %q", buf.String())
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"no document", client.ErrNoDocumentSelected, "No document selected"},
		{"server detail", &client.RequestError{Op: "ask", StatusCode: 404, Detail: "Unknown doc_id"}, "Ask failed: Unknown doc_id"},
		{"timeout", &client.RequestError{Op: "upload", Err: fmt.Errorf("%w: deadline", client.ErrTimeout)}, "Upload timed out"},
		{"transport", &client.RequestError{Op: "search", Err: errors.New("connection refused")}, "Search failed: connection refused"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorMessage(tt.err)
			if tt.want == "" && got != "" || !strings.HasPrefix(got, tt.want) {
				t.Errorf("ErrorMessage() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}
