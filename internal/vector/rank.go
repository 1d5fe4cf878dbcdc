package vector

import (
	"context"
	"sort"
)

// Candidate is a vector with its position in the owning document.
type Candidate struct {
	Index  int
	Vector []float32
}

// Result is a scored candidate.
type Result struct {
	Index int
	Score float64
}

// TopK scores every candidate against query and returns the best min(k, len(candidates))
// by descending cosine similarity. Equal scores keep the lower Index first.
// Neither query nor candidate vectors are modified.
func TopK(ctx context.Context, query []float32, candidates []Candidate, k int) ([]Result, error) {
	if k <= 0 || len(candidates) == 0 {
		return []Result{}, nil
	}
	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		score, err := Cosine(query, c.Vector)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Index: c.Index, Score: score})
	}
	return Rank(results, k), nil
}

// Rank sorts results in place by descending score, lower Index first on ties,
// and returns the first min(k, len(results)).
func Rank(results []Result, k int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
	if k < 0 {
		k = 0
	}
	if k < len(results) {
		results = results[:k]
	}
	return results
}
