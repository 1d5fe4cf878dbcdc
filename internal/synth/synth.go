// Package synth turns retrieved chunks into answers and summaries.
package synth

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/pdfqa/internal/apperr"
)

// NotFoundAnswer is returned when the document holds no answer to the question.
const NotFoundAnswer = "I could not find an answer in the provided PDF."

// Synthesizer produces answers and summaries from document text.
type Synthesizer interface {
	// Answer answers question from contexts, most relevant first.
	Answer(ctx context.Context, question string, contexts []string) (string, error)
	// Summarize summarizes chunks given in reading order.
	Summarize(ctx context.Context, chunks []string) (string, error)
	Name() string
}

const (
	answerSystemPrompt = "You are an AI assistant that answers questions based ONLY on the " +
		"provided PDF context. If the answer is not in the context, say \"" + NotFoundAnswer + "\""
	summarySystemPrompt = "You are an expert summarizer. Create a concise, structured summary " +
		"of the provided PDF content. Use headings and bullet points."
)

func answerPrompt(question string, contexts []string) string {
	return "Context:\n" + strings.Join(contexts, "\n\n") + "\n\nQuestion: " + question + "\n\nAnswer in detail:"
}

func summaryPrompt(chunks []string) string {
	return "PDF Content:\n" + strings.Join(chunks, "\n\n") + "\n\nWrite a high-level summary:"
}

// checkContext rejects calls without usable document text.
func checkContext(op string, texts []string) error {
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			return nil
		}
	}
	return apperr.New(apperr.KindSynthesis, op, "no document content available")
}

// SummaryContext returns the first maxChunks chunks, trimmed so their combined
// length stays within maxChars. A chunk that would cross the limit is cut.
// Non-positive limits disable the corresponding bound.
func SummaryContext(chunks []string, maxChunks, maxChars int) []string {
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	if maxChars <= 0 {
		return append([]string(nil), chunks...)
	}
	out := make([]string, 0, len(chunks))
	left := maxChars
	for _, c := range chunks {
		if left <= 0 {
			break
		}
		r := []rune(c)
		if len(r) > left {
			out = append(out, string(r[:left]))
			break
		}
		out = append(out, c)
		left -= len(r)
	}
	return out
}

// upstream classifies a provider failure, keeping deadlines as timeouts.
func upstream(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.KindSynthesis, op, err)
}
