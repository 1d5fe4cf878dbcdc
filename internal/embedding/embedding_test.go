package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestHashingEmbedder_deterministicAndNormalized(t *testing.T) {
	e, err := NewHashingEmbedder(64)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a, err := e.Embed(ctx, "The invoice total is due in March.")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "The invoice total is due in March.")
	if len(a) != 64 {
		t.Fatalf("len = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text produced different vectors")
		}
	}
	if n := math.Sqrt(dot(a, a)); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", n)
	}
	if e.Model() != "hashing-v1-64" {
		t.Errorf("Model() = %q", e.Model())
	}
}

func TestHashingEmbedder_relatedTextScoresHigher(t *testing.T) {
	e, _ := NewHashingEmbedder(256)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "payment deadline for the invoice")
	related, _ := e.Embed(ctx, "The invoice payment deadline is the end of March.")
	unrelated, _ := e.Embed(ctx, "Photosynthesis converts sunlight into chemical energy.")
	if dot(q, related) <= dot(q, unrelated) {
		t.Errorf("related score %f should exceed unrelated %f", dot(q, related), dot(q, unrelated))
	}
}

func TestHashingEmbedder_terms(t *testing.T) {
	e, _ := NewHashingEmbedder(8)
	terms := e.Terms("The Quick brown FOX")
	if strings.Join(terms, " ") != "quick brown fox" {
		t.Errorf("Terms = %v", terms)
	}
}

func TestEmbedders_rejectBlankInput(t *testing.T) {
	h, _ := NewHashingEmbedder(8)
	for _, e := range []Embedder{h, NewMockEmbedder(8)} {
		if _, err := e.Embed(context.Background(), "   "); !apperr.Is(err, apperr.KindEmbedding) {
			t.Errorf("%s: expected embedding error for blank text, got %v", e.Model(), err)
		}
		if _, err := e.EmbedBatch(context.Background(), nil); !apperr.Is(err, apperr.KindEmbedding) {
			t.Errorf("%s: expected embedding error for empty batch, got %v", e.Model(), err)
		}
	}
}

func TestMockEmbedder_failing(t *testing.T) {
	m := NewMockEmbedder(4)
	m.SetFailing(true)
	if _, err := m.Embed(context.Background(), "x"); !apperr.Is(err, apperr.KindEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
	m.SetFailing(false)
	if _, err := m.Embed(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
}

func TestCachedEmbedder_servesRepeats(t *testing.T) {
	m := NewMockEmbedder(4)
	c := NewCachedEmbedder(m, 10)
	ctx := context.Background()
	first, err := c.EmbedBatch(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.EmbedBatch(ctx, []string{"b", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1", m.Calls())
	}
	if second[0][0] != first[1][0] || second[1][0] != first[0][0] {
		t.Error("cached vectors returned in wrong order")
	}
	second[0][0] = 42
	again, _ := c.Embed(ctx, "b")
	if again[0] == 42 {
		t.Error("cache returned an aliased vector")
	}
}

func TestOpenAIEmbedder_httptest(t *testing.T) {
	var gotInputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		gotInputs = append(gotInputs, req.Input...)
		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			// reverse order to check the client sorts by index
			idx := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": idx, "embedding": []float32{float32(idx), 1, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", srv.URL+"/v1", "local-embed", 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(gotInputs) != 3 {
		t.Fatalf("server saw %d inputs", len(gotInputs))
	}
	if vecs[0][0] != 0 || vecs[1][0] != 1 || vecs[2][0] != 0 {
		t.Errorf("vectors not ordered by index: %v", vecs)
	}
}

func TestOpenAIEmbedder_dimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1,2]}]}`))
	}))
	defer srv.Close()
	e, _ := NewOpenAIEmbedder("k", srv.URL+"/v1", "m", 3, 8)
	if _, err := e.Embed(context.Background(), "x"); !apperr.Is(err, apperr.KindEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestOpenAIEmbedder_upstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()
	e, _ := NewOpenAIEmbedder("k", srv.URL+"/v1", "m", 3, 8)
	if _, err := e.Embed(context.Background(), "x"); !apperr.Is(err, apperr.KindEmbedding) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestNew_factory(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, &config.EmbeddingConfig{Provider: config.EmbedderHashing, Dimensions: 16, CacheSize: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("expected cached embedder, got %T", e)
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
	if _, err := New(ctx, &config.EmbeddingConfig{Provider: "nope", Dimensions: 16}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := New(ctx, &config.EmbeddingConfig{Provider: config.EmbedderOpenAI, Model: "m", Dimensions: 8, APIKeyEnv: "PDFQA_TEST_UNSET_KEY"}); err == nil {
		t.Error("expected error when the OpenAI key is missing")
	}
}

func TestNew_slowProviderTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	t.Setenv("PDFQA_TEST_OPENAI_KEY", "k")
	e, err := New(context.Background(), &config.EmbeddingConfig{
		Provider:   config.EmbedderOpenAI,
		BaseURL:    srv.URL + "/v1",
		Model:      "m",
		Dimensions: 3,
		BatchSize:  8,
		CacheSize:  4,
		Timeout:    50 * time.Millisecond,
		APIKeyEnv:  "PDFQA_TEST_OPENAI_KEY",
	})
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err = e.Embed(context.Background(), "slow")
	if kind := apperr.KindOf(err); kind != apperr.KindTimeout {
		t.Fatalf("kind = %s, want timeout (err %v)", kind, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("call took %v", elapsed)
	}
}

func TestTimeoutEmbedder_passesThrough(t *testing.T) {
	inner := NewMockEmbedder(4)
	e := NewTimeoutEmbedder(inner, time.Second)
	v, err := e.Embed(context.Background(), "fast")
	if err != nil || len(v) != 4 {
		t.Fatalf("Embed = %v, %v", v, err)
	}
	if e.Unwrap() != inner {
		t.Error("Unwrap should return the wrapped embedder")
	}
}

func TestLocalOf(t *testing.T) {
	h, err := NewHashingEmbedder(8)
	if err != nil {
		t.Fatal(err)
	}
	wrapped := NewCachedEmbedder(NewTimeoutEmbedder(h, time.Second), 4)
	if got, ok := LocalOf(wrapped); !ok || got != Embedder(h) {
		t.Errorf("LocalOf(cached hashing) = %T, %v", got, ok)
	}
	if _, ok := LocalOf(NewCachedEmbedder(NewMockEmbedder(8), 4)); ok {
		t.Error("mock embedder should not be local")
	}
}

func TestSimpleTokenizer(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, mask, types := tok.Tokenize("hello world", 8)
	if len(ids) != 8 || len(mask) != 8 || len(types) != 8 {
		t.Fatal("wrong lengths")
	}
	if ids[0] != clsToken || ids[3] != sepToken {
		t.Errorf("ids = %v", ids)
	}
	if mask[3] != 1 || mask[4] != 0 {
		t.Errorf("mask = %v", mask)
	}
	long := strings.Repeat("w ", 50)
	ids, _, _ = tok.Tokenize(long, 8)
	if ids[7] != sepToken {
		t.Errorf("truncated input should end with SEP, got %v", ids)
	}
}
