package search

import (
	"strings"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

// processQuery trims the query and resolves k against the configured default and cap.
func (e *Engine) processQuery(query string, k int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, apperr.New(apperr.KindInvalidRequest, "search", "query is required")
	}
	if k <= 0 {
		k = e.topK
	}
	if e.maxTopK > 0 && k > e.maxTopK {
		k = e.maxTopK
	}
	return query, k, nil
}
