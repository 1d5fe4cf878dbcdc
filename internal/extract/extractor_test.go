package extract

import (
	"strings"
	"testing"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/pdftest"
)

func TestExtractBytes_textLayer(t *testing.T) {
	e := NewExtractor()
	content := pdftest.Build("Hello world\nSecond line", "Page two (draft)")
	got, err := e.ExtractBytes(content)
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	for _, want := range []string{"Hello world", "Second line", "Page two (draft)"} {
		if !strings.Contains(got, want) {
			t.Errorf("extracted text %q missing %q", got, want)
		}
	}
	if strings.Index(got, "Hello") > strings.Index(got, "Page two") {
		t.Error("pages out of reading order")
	}
}

func TestExtractBytes_maxPages(t *testing.T) {
	e := NewExtractor(WithMaxPages(1))
	got, err := e.ExtractBytes(pdftest.Build("first page", "second page"))
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if strings.Contains(got, "second page") {
		t.Errorf("expected only first page, got %q", got)
	}
}

func TestExtractBytes_imageOnly(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes(pdftest.Build("", ""))
	if !apperr.Is(err, apperr.KindExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if apperr.Message(err) != "Could not extract text from PDF" {
		t.Errorf("message = %q", apperr.Message(err))
	}
}

func TestExtractBytes_notPDF(t *testing.T) {
	e := NewExtractor()
	for _, content := range [][]byte{nil, []byte("just some text"), []byte("%PDF-1.4\ngarbage without trailer")} {
		if _, err := e.ExtractBytes(content); !apperr.Is(err, apperr.KindExtraction) {
			t.Errorf("ExtractBytes(%q) error = %v, want extraction error", content, err)
		}
	}
}

func TestIsPDFName(t *testing.T) {
	tests := map[string]bool{
		"report.pdf":      true,
		"REPORT.PDF":      true,
		" spaced.Pdf ":    true,
		"notes.txt":       false,
		"pdf":             false,
		"archive.pdf.zip": false,
	}
	for name, want := range tests {
		if got := IsPDFName(name); got != want {
			t.Errorf("IsPDFName(%q) = %v, want %v", name, got, want)
		}
	}
}
