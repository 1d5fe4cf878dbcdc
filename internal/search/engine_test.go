package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/pdfqa/internal/apperr"
	"github.com/hyperjump/pdfqa/internal/config"
	"github.com/hyperjump/pdfqa/internal/embedding"
	"github.com/hyperjump/pdfqa/internal/indexer"
	"github.com/hyperjump/pdfqa/internal/models"
	"github.com/hyperjump/pdfqa/internal/pdftest"
	"github.com/hyperjump/pdfqa/internal/storage"
)

func testEngine(t *testing.T) (*Engine, *indexer.Indexer, storage.Storage) {
	t.Helper()
	cfg := config.Default()
	cfg.Chunking.ChunkSize = 12
	cfg.Chunking.ChunkOverlap = 0
	cfg.Search.TopK = 2
	cfg.Search.MaxTopK = 3
	store := storage.NewMemoryStorage()
	emb, err := embedding.NewHashingEmbedder(256)
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.NewIndexer(store, emb, nil, cfg)
	return NewEngine(idx, emb, &cfg.Search), idx, store
}

var biologyPDF = pdftest.Build(
	"The mitochondria is the powerhouse of the cell and produces energy.",
	"Photosynthesis in plants converts sunlight into chemical energy.",
	"Ribosomes assemble proteins from amino acids inside the cell.",
	"The French revolution began in seventeen eighty nine in Paris.",
)

func TestEngine_Search(t *testing.T) {
	engine, idx, _ := testEngine(t)
	ctx := context.Background()
	doc, err := idx.Upload(ctx, "bio.pdf", biologyPDF)
	if err != nil {
		t.Fatal(err)
	}

	hits, err := engine.Search(ctx, doc.ID, "what is the powerhouse of the cell", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Fatalf("default k: got %d hits, want 2", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted: %v > %v", hits[i].Score, hits[i-1].Score)
		}
	}
	if hits[0].ChunkIndex != 0 {
		t.Errorf("best hit = chunk %d %q", hits[0].ChunkIndex, hits[0].Text)
	}
	for _, h := range hits {
		if h.Score < -1 || h.Score > 1 {
			t.Errorf("score out of range: %v", h.Score)
		}
	}
}

func TestEngine_Search_kCapped(t *testing.T) {
	engine, idx, _ := testEngine(t)
	ctx := context.Background()
	doc, _ := idx.Upload(ctx, "bio.pdf", biologyPDF)
	hits, err := engine.Search(ctx, doc.ID, "energy", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("got %d hits, want cap of 3", len(hits))
	}
}

func TestEngine_Search_deterministic(t *testing.T) {
	engine, idx, _ := testEngine(t)
	ctx := context.Background()
	doc, _ := idx.Upload(ctx, "bio.pdf", biologyPDF)
	a, _ := engine.Search(ctx, doc.ID, "cell energy", 3)
	b, _ := engine.Search(ctx, doc.ID, "cell energy", 3)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("hit %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEngine_Search_zeroChunkDocument(t *testing.T) {
	engine, _, store := testEngine(t)
	ctx := context.Background()
	_ = store.Put(ctx, &models.Document{ID: "empty", Status: models.StatusIndexed, EmbeddingModel: "hashing-v1-256", CreatedAt: time.Now()})
	hits, err := engine.Search(ctx, "empty", "anything", 5)
	if err != nil {
		t.Fatal(err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("hits = %#v, want empty non-nil", hits)
	}
}

func TestEngine_Search_errors(t *testing.T) {
	engine, idx, store := testEngine(t)
	ctx := context.Background()
	doc, _ := idx.Upload(ctx, "bio.pdf", biologyPDF)

	if _, err := engine.Search(ctx, "nope", "cell", 1); !apperr.Is(err, apperr.KindUnknownDocument) {
		t.Errorf("unknown doc: %v", err)
	}
	if _, err := engine.Search(ctx, doc.ID, "   ", 1); !apperr.Is(err, apperr.KindInvalidRequest) {
		t.Errorf("blank query: %v", err)
	}

	stale := &models.Document{
		ID: "stale", Status: models.StatusIndexed, EmbeddingModel: "other-model", Dimensions: 3, CreatedAt: time.Now(),
		Chunks: []*models.Chunk{{Index: 0, Text: "x", Embedding: []float32{1, 0, 0}}},
	}
	_ = store.Put(ctx, stale)
	if _, err := engine.Search(ctx, "stale", "cell", 1); !apperr.Is(err, apperr.KindEmbedding) {
		t.Errorf("model mismatch: %v", err)
	}

	broken := &models.Document{
		ID: "broken", Status: models.StatusIndexed, EmbeddingModel: "hashing-v1-256", Dimensions: 3, CreatedAt: time.Now(),
		Chunks: []*models.Chunk{{Index: 0, Text: "x", Embedding: []float32{1, 0, 0}}},
	}
	_ = store.Put(ctx, broken)
	if _, err := engine.Search(ctx, "broken", "cell", 1); !apperr.Is(err, apperr.KindInternal) {
		t.Errorf("dimension mismatch: %v", err)
	}
}

func TestPassages(t *testing.T) {
	got := Passages("First short sentence. Second one here!  ")
	if len(got) != 2 || got[0] != "First short sentence." || got[1] != "Second one here!" {
		t.Errorf("Passages = %q", got)
	}

	long := strings.TrimSpace(strings.Repeat("word ", 50))
	windows := Passages(long)
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if n := len(strings.Fields(windows[0])); n != passageWords {
		t.Errorf("first window has %d words", n)
	}
	if n := len(strings.Fields(windows[1])); n != 30 {
		t.Errorf("last window has %d words, want 30", n)
	}
	if Passages("   ") != nil {
		t.Error("blank text should have no passages")
	}
}

func TestEngine_Search_phraseInLongChunk(t *testing.T) {
	cfg := config.Default()
	store := storage.NewMemoryStorage()
	emb, err := embedding.New(context.Background(), &cfg.Embedding)
	if err != nil {
		t.Fatal(err)
	}
	idx := indexer.NewIndexer(store, emb, nil, cfg)
	engine := NewEngine(idx, emb, &cfg.Search)

	filler := strings.Repeat("Harbor lanterns glow over the granite bridge at dusk. ", 20)
	doc, err := idx.Upload(context.Background(), "long.pdf", pdftest.Build(
		filler+"Enzymes catalyze reactions in living cells. "+filler))
	if err != nil {
		t.Fatal(err)
	}
	if doc.NumChunks() != 1 {
		t.Fatalf("want one long chunk, got %d", doc.NumChunks())
	}
	hits, err := engine.Search(context.Background(), doc.ID, "enzymes catalyze reactions", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Score <= 0.3 {
		t.Errorf("hits = %+v, want the chunk scored by its best sentence", hits)
	}
}

func TestTexts(t *testing.T) {
	got := Texts([]models.SearchHit{{Text: "a"}, {Text: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Texts = %v", got)
	}
}
