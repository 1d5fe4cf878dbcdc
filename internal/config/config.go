// Package config provides configuration loading and structs for the pdfqa server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Synthesis  SynthesisConfig  `yaml:"synthesis"`
	Search     SearchConfig     `yaml:"search"`
	Indexer    IndexerConfig    `yaml:"indexer"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	CORS           *bool         `yaml:"cors"`
}

// CORSEnabled returns whether cross-origin requests are allowed; defaults to true when unset.
func (s *ServerConfig) CORSEnabled() bool {
	if s.CORS != nil {
		return *s.CORS
	}
	return true
}

// StorageConfig selects the document store backend and its retention policy.
// A negative TTL keeps documents forever; a negative MaxDocuments disables the cap.
type StorageConfig struct {
	Backend       string        `yaml:"backend"`
	DatabasePath  string        `yaml:"database_path"`
	TTL           time.Duration `yaml:"ttl"`
	MaxDocuments  int           `yaml:"max_documents"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ExtractionConfig bounds PDF text extraction. MaxPages of zero reads every page.
type ExtractionConfig struct {
	MaxPages int `yaml:"max_pages"`
}

// ChunkingConfig holds word-window chunking settings.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Dimensions  int           `yaml:"dimensions"`
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	CacheSize   int           `yaml:"cache_size"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	ModelPath   string        `yaml:"model_path"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// APIKey returns the provider key read from the configured environment variable.
func (e *EmbeddingConfig) APIKey() string {
	return lookupKey(e.APIKeyEnv)
}

// SynthesisConfig selects and tunes the answer/summary synthesizer.
type SynthesisConfig struct {
	Provider           string        `yaml:"provider"`
	Model              string        `yaml:"model"`
	BaseURL            string        `yaml:"base_url"`
	APIKeyEnv          string        `yaml:"api_key_env"`
	Temperature        float32       `yaml:"temperature"`
	SummaryMaxChunks   int           `yaml:"summary_max_chunks"`
	MaxContextChars    int           `yaml:"max_context_chars"`
	MaxAnswerSentences int           `yaml:"max_answer_sentences"`
	Timeout            time.Duration `yaml:"timeout"`
}

// APIKey returns the provider key read from the configured environment variable.
func (s *SynthesisConfig) APIKey() string {
	return lookupKey(s.APIKeyEnv)
}

// SearchConfig holds retrieval defaults.
type SearchConfig struct {
	TopK    int `yaml:"top_k"`
	MaxTopK int `yaml:"max_top_k"`
}

// IndexerConfig bounds concurrent uploads.
type IndexerConfig struct {
	MaxConcurrentUploads int `yaml:"max_concurrent_uploads"`
}

// WatchConfig holds PDF inbox settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// A .env file next to the config is loaded into the environment when present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	if err := LoadEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied, for running without a file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// LoadEnv loads the given .env files into the process environment.
// Missing files are skipped and existing variables are not overridden.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks provider names and numeric bounds after defaults are applied.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Embedding.Provider {
	case EmbedderHashing, EmbedderOpenAI, EmbedderGemini, EmbedderONNX, EmbedderMock:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.Synthesis.Provider {
	case SynthExtractive, SynthOpenAI, SynthGemini:
	default:
		return fmt.Errorf("unknown synthesis provider %q", c.Synthesis.Provider)
	}
	if c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}
	if c.Extraction.MaxPages < 0 {
		return fmt.Errorf("extraction max_pages must not be negative")
	}
	if c.Search.TopK < 1 {
		return fmt.Errorf("search top_k must be positive")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

func lookupKey(env string) string {
	if env == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(env))
}
