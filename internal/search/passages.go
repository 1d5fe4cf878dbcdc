package search

import (
	"context"
	"strings"

	"github.com/hyperjump/pdfqa/internal/embedding"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/vector"
	"github.com/hyperjump/pdfqa/pkg/utils"
)

const (
	passageWords  = 40
	passageStride = 20
)

// Passages splits chunk text into sentences. Sentences longer than
// passageWords are cut into overlapping word windows.
func Passages(text string) []string {
	var out []string
	for _, s := range utils.SplitSentences(text) {
		words := strings.Fields(s)
		if len(words) <= passageWords {
			out = append(out, s)
			continue
		}
		for start := 0; start < len(words); start += passageStride {
			end := min(start+passageWords, len(words))
			out = append(out, strings.Join(words[start:end], " "))
			if end == len(words) {
				break
			}
		}
	}
	return out
}

// rescorePassages raises each chunk's score to that of its best passage so a
// short phrase is not diluted by the rest of a long chunk, then re-ranks.
func rescorePassages(ctx context.Context, emb embedding.Embedder, query []float32, chunks []*models.Chunk, results []vector.Result, k int) ([]vector.Result, error) {
	for i := range results {
		passages := Passages(chunks[results[i].Index].Text)
		if len(passages) < 2 {
			continue
		}
		vecs, err := emb.EmbedBatch(ctx, passages)
		if err != nil {
			return nil, err
		}
		for _, v := range vecs {
			score, err := vector.Cosine(query, v)
			if err != nil {
				return nil, err
			}
			if score > results[i].Score {
				results[i].Score = score
			}
		}
	}
	return vector.Rank(results, k), nil
}
