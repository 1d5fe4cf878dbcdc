package synth

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/pdfqa/pkg/utils"
)

// Extractive answers and summarizes by selecting sentences from the document.
// It needs no network and always returns the same output for the same input.
type Extractive struct {
	maxSentences int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewExtractive returns an extractive synthesizer selecting at most
// maxSentences sentences per answer and twice that per summary.
func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = 4
	}
	return &Extractive{
		maxSentences: maxSentences,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the provider name.
func (s *Extractive) Name() string { return "extractive" }

type scored struct {
	idx   int
	score float64
}

// Answer picks the sentences sharing the most terms with question. Ties keep
// the sentence from the higher-ranked context.
func (s *Extractive) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	if err := checkContext("answer", contexts); err != nil {
		return "", err
	}
	terms := map[string]struct{}{}
	for _, tok := range s.terms(question) {
		terms[tok] = struct{}{}
	}
	if len(terms) == 0 {
		return NotFoundAnswer, nil
	}
	sentences := s.sentences(contexts)
	candidates := make([]scored, 0, len(sentences))
	for i, sent := range sentences {
		toks := s.terms(sent)
		seen := map[string]struct{}{}
		for _, tok := range toks {
			if _, ok := terms[tok]; ok {
				seen[tok] = struct{}{}
			}
		}
		if len(seen) == 0 {
			continue
		}
		candidates = append(candidates, scored{i, float64(len(seen)) + 1/math.Sqrt(float64(len(toks))+1)})
	}
	if len(candidates) == 0 {
		return NotFoundAnswer, nil
	}
	return strings.Join(pick(sentences, candidates, s.maxSentences), " "), nil
}

// Summarize ranks sentences by normalized term frequency and lists the best
// ones as bullets in reading order.
func (s *Extractive) Summarize(ctx context.Context, chunks []string) (string, error) {
	if err := checkContext("summarize", chunks); err != nil {
		return "", err
	}
	sentences := s.sentences(chunks)
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range s.terms(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	candidates := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := s.terms(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok] / maxF
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		candidates[i] = scored{i, score}
	}
	var b strings.Builder
	b.WriteString("Summary:\n")
	for _, sent := range pick(sentences, candidates, 2*s.maxSentences) {
		b.WriteString("- ")
		b.WriteString(sent)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// pick returns the n best candidates' sentences in their original order.
func pick(sentences []string, candidates []scored, n int) []string {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	selected := make([]int, n)
	for i := range selected {
		selected[i] = candidates[i].idx
	}
	sort.Ints(selected)
	out := make([]string, n)
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return out
}

// sentences splits texts into unique sentences, keeping first occurrences.
// Overlapping chunks repeat text, so duplicates are expected.
func (s *Extractive) sentences(texts []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, t := range texts {
		for _, sent := range utils.SplitSentences(t) {
			if _, ok := seen[sent]; ok {
				continue
			}
			seen[sent] = struct{}{}
			out = append(out, sent)
		}
	}
	return out
}

func (s *Extractive) terms(text string) []string {
	toks := s.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := toks[:0]
	for _, tok := range toks {
		if _, stop := s.stopwords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "its", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such",
		"into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off",
		"own", "same", "too", "very", "can", "will", "just", "should", "now", "what", "which", "who",
		"whom", "how", "why", "when", "where", "do", "does", "did", "i", "you", "we", "they", "he", "she",
		"me", "my", "your", "our", "their", "tell", "please", "there", "has", "have", "had",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
