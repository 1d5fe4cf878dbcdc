// Package extract pulls plain text out of uploaded PDF documents.
package extract

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

// Extractor extracts plain text from PDF files.
type Extractor struct {
	maxPages int
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithMaxPages stops extraction after n pages. Zero means no limit.
func WithMaxPages(n int) ExtractorOption {
	return func(e *Extractor) {
		e.maxPages = n
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// IsPDFName reports whether filename has a .pdf extension (case-insensitive).
func IsPDFName(filename string) bool {
	return strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".pdf")
}

// ExtractBytes returns the text of a PDF, pages joined by newlines in reading order.
// It fails with an extraction error when content is not a readable PDF or
// carries no text layer.
func (e *Extractor) ExtractBytes(content []byte) (string, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(content, "\r\n\t "), []byte("%PDF-")) {
		return "", apperr.New(apperr.KindExtraction, "extract", "Could not read PDF: not a PDF file")
	}
	text, err := extractPDF(content, e.maxPages)
	if err != nil {
		return "", apperr.Errorf(apperr.KindExtraction, "extract", "Could not read PDF: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.KindExtraction, "extract", "Could not extract text from PDF")
	}
	return text, nil
}
