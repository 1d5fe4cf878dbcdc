package synth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
)

var bioContexts = []string{
	"The mitochondria is the powerhouse of the cell. It produces ATP through respiration.",
	"Photosynthesis converts sunlight into chemical energy. Plants store that energy as glucose.",
}

func TestExtractive_Answer(t *testing.T) {
	s := NewExtractive(1)
	got, err := s.Answer(context.Background(), "What is the powerhouse of the cell?", bioContexts)
	if err != nil {
		t.Fatal(err)
	}
	if got != "The mitochondria is the powerhouse of the cell." {
		t.Errorf("Answer = %q", got)
	}
}

func TestExtractive_Answer_notFound(t *testing.T) {
	s := NewExtractive(3)
	got, err := s.Answer(context.Background(), "Who won the football world cup?", bioContexts)
	if err != nil {
		t.Fatal(err)
	}
	if got != NotFoundAnswer {
		t.Errorf("Answer = %q, want fallback", got)
	}
}

func TestExtractive_Answer_keepsReadingOrder(t *testing.T) {
	s := NewExtractive(2)
	got, _ := s.Answer(context.Background(), "energy sunlight glucose", bioContexts)
	if !strings.HasPrefix(got, "Photosynthesis") || !strings.HasSuffix(got, "glucose.") {
		t.Errorf("Answer = %q", got)
	}
}

func TestExtractive_Summarize(t *testing.T) {
	s := NewExtractive(1)
	ctx := context.Background()
	a, err := s.Summarize(ctx, bioContexts)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Summarize(ctx, bioContexts)
	if a != b {
		t.Errorf("summary not deterministic:\n%s\n---\n%s", a, b)
	}
	lines := strings.Split(a, "\n")
	if lines[0] != "Summary:" || len(lines) != 3 {
		t.Fatalf("summary = %q", a)
	}
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, "- ") {
			t.Errorf("line %q is not a bullet", l)
		}
	}
}

func TestExtractive_dedupesOverlap(t *testing.T) {
	s := NewExtractive(4)
	dup := []string{"Cells divide by mitosis.", "Cells divide by mitosis. Mitosis has four phases."}
	got, _ := s.Answer(context.Background(), "mitosis", dup)
	if strings.Count(got, "Cells divide by mitosis.") != 1 {
		t.Errorf("duplicate sentence in %q", got)
	}
}

func TestEmptyContext(t *testing.T) {
	s := NewExtractive(3)
	ctx := context.Background()
	if _, err := s.Answer(ctx, "q", nil); !apperr.Is(err, apperr.KindSynthesis) {
		t.Errorf("Answer(nil) = %v", err)
	}
	if _, err := s.Summarize(ctx, []string{"  "}); !apperr.Is(err, apperr.KindSynthesis) {
		t.Errorf("Summarize(blank) = %v", err)
	}
}

func TestSummaryContext(t *testing.T) {
	chunks := []string{"aaaa", "bbbb", "cccc", "dddd"}
	if got := SummaryContext(chunks, 2, 0); len(got) != 2 || got[1] != "bbbb" {
		t.Errorf("chunk limit: %v", got)
	}
	got := SummaryContext(chunks, 10, 6)
	if len(got) != 2 || got[0] != "aaaa" || got[1] != "bb" {
		t.Errorf("char limit: %v", got)
	}
	if got := SummaryContext(chunks, 0, 0); len(got) != 4 {
		t.Errorf("no limits: %v", got)
	}
}

func chatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Answer(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  The mitochondria.  "},"finish_reason":"stop"}]}`))
	})
	s, err := NewOpenAI("key", srv.URL+"/v1", "gpt-test", 0.2, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	answer, err := s.Answer(context.Background(), "What is the powerhouse?", bioContexts)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "The mitochondria." {
		t.Errorf("answer = %q", answer)
	}
	if got.Model != "gpt-test" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	if got.Messages[0].Role != "system" || !strings.Contains(got.Messages[0].Content, "ONLY") {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	user := got.Messages[1].Content
	if !strings.HasPrefix(user, "Context:\n") || !strings.HasSuffix(user, "Question: What is the powerhouse?\n\nAnswer in detail:") {
		t.Errorf("user prompt = %q", user)
	}
}

func TestOpenAI_upstreamError(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})
	s, _ := NewOpenAI("key", srv.URL+"/v1", "gpt-test", 0, time.Second)
	if _, err := s.Summarize(context.Background(), bioContexts); !apperr.Is(err, apperr.KindSynthesis) {
		t.Errorf("err = %v", err)
	}
}

func TestOpenAI_timeout(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	s, _ := NewOpenAI("key", srv.URL+"/v1", "gpt-test", 0, 50*time.Millisecond)
	if _, err := s.Answer(context.Background(), "q", bioContexts); !apperr.Is(err, apperr.KindTimeout) {
		t.Errorf("err = %v", err)
	}
}

func TestNew_factory(t *testing.T) {
	s, err := New(context.Background(), &config.SynthesisConfig{Provider: config.SynthExtractive})
	if err != nil || s.Name() != "extractive" {
		t.Fatalf("extractive: %v %v", s, err)
	}
	if _, err := New(context.Background(), &config.SynthesisConfig{Provider: "llama"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(context.Background(), &config.SynthesisConfig{Provider: config.SynthOpenAI, Model: "m", APIKeyEnv: "PDFQA_TEST_UNSET_KEY"}); err == nil {
		t.Error("expected error without API key")
	}
}
