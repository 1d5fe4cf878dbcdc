package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 30s
storage:
  backend: sqlite
  database_path: "./db/pdfqa.db"
  ttl: 2h
extraction:
  max_pages: 50
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v, want 30s", cfg.Server.RequestTimeout)
	}
	if cfg.Storage.TTL != 2*time.Hour {
		t.Errorf("ttl = %v, want 2h", cfg.Storage.TTL)
	}
	if want := filepath.Join(dir, "db", "pdfqa.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if cfg.Extraction.MaxPages != 50 {
		t.Errorf("max_pages = %d, want 50", cfg.Extraction.MaxPages)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestLoad_rejectsUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("embedding:\n  provider: word2vec\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "word2vec") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestLoad_envFileNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "synthesis:\n  provider: gemini\n  api_key_env: PDFQA_TEST_GEMINI_KEY\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PDFQA_TEST_GEMINI_KEY=secret-from-env\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PDFQA_TEST_GEMINI_KEY") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Synthesis.APIKey(); got != "secret-from-env" {
		t.Errorf("APIKey() = %q", got)
	}
	if cfg.Synthesis.Model != "gemini-1.5-flash" {
		t.Errorf("gemini default model not applied: %q", cfg.Synthesis.Model)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Chunking.ChunkSize != 400 || cfg.Chunking.ChunkOverlap != 40 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	if cfg.Search.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Search.TopK)
	}
	if cfg.Synthesis.SummaryMaxChunks != 10 {
		t.Errorf("summary_max_chunks = %d, want 10", cfg.Synthesis.SummaryMaxChunks)
	}
	if cfg.Embedding.Provider != EmbedderHashing || cfg.Synthesis.Provider != SynthExtractive {
		t.Errorf("providers = %s/%s", cfg.Embedding.Provider, cfg.Synthesis.Provider)
	}
	if !cfg.Server.CORSEnabled() {
		t.Error("cors should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate_overlapNotSmallerThanSize(t *testing.T) {
	cfg := Default()
	cfg.Chunking.ChunkOverlap = cfg.Chunking.ChunkSize
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

func TestValidate_negativeMaxPages(t *testing.T) {
	cfg := Default()
	if cfg.Extraction.MaxPages != 0 {
		t.Errorf("max_pages default = %d, want 0 (every page)", cfg.Extraction.MaxPages)
	}
	cfg.Extraction.MaxPages = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_pages")
	}
}

func TestExpandPath(t *testing.T) {
	configDir := "/etc/pdfqa"
	if got := expandPath("./data", configDir); got != filepath.Join(configDir, "data") {
		t.Errorf("dot-slash path = %q", got)
	}
	if got := expandPath("/abs/path", configDir); got != "/abs/path" {
		t.Errorf("absolute path = %q", got)
	}
	if got := expandPath("", configDir); got != "" {
		t.Errorf("empty path = %q", got)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		if got := expandPath("pdfqa/db", configDir); got != filepath.Join(home, "pdfqa/db") {
			t.Errorf("home-relative path = %q", got)
		}
	}
}
