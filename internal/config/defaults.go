package config

import "time"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Embedding providers.
const (
	EmbedderHashing = "hashing"
	EmbedderOpenAI  = "openai"
	EmbedderGemini  = "gemini"
	EmbedderONNX    = "onnx"
	EmbedderMock    = "mock"
)

// Synthesis providers.
const (
	SynthExtractive = "extractive"
	SynthOpenAI     = "openai"
	SynthGemini     = "gemini"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 32 << 20
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageMemory
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/pdfqa.db"
	}
	if cfg.Storage.TTL == 0 {
		cfg.Storage.TTL = 24 * time.Hour
	}
	if cfg.Storage.MaxDocuments == 0 {
		cfg.Storage.MaxDocuments = 100
	}
	if cfg.Storage.SweepInterval == 0 {
		cfg.Storage.SweepInterval = 5 * time.Minute
	}

	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 400
	}
	if cfg.Chunking.ChunkOverlap == 0 {
		cfg.Chunking.ChunkOverlap = 40
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = EmbedderHashing
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.Concurrency == 0 {
		cfg.Embedding.Concurrency = 4
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	switch cfg.Embedding.Provider {
	case EmbedderOpenAI:
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-3-small"
		}
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 1536
		}
		if cfg.Embedding.APIKeyEnv == "" {
			cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
		}
	case EmbedderGemini:
		if cfg.Embedding.Model == "" {
			cfg.Embedding.Model = "text-embedding-004"
		}
		if cfg.Embedding.Dimensions == 0 {
			cfg.Embedding.Dimensions = 768
		}
		if cfg.Embedding.APIKeyEnv == "" {
			cfg.Embedding.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}

	if cfg.Synthesis.Provider == "" {
		cfg.Synthesis.Provider = SynthExtractive
	}
	switch cfg.Synthesis.Provider {
	case SynthOpenAI:
		if cfg.Synthesis.Model == "" {
			cfg.Synthesis.Model = "gpt-4o-mini"
		}
		if cfg.Synthesis.APIKeyEnv == "" {
			cfg.Synthesis.APIKeyEnv = "OPENAI_API_KEY"
		}
	case SynthGemini:
		if cfg.Synthesis.Model == "" {
			cfg.Synthesis.Model = "gemini-1.5-flash"
		}
		if cfg.Synthesis.APIKeyEnv == "" {
			cfg.Synthesis.APIKeyEnv = "GEMINI_API_KEY"
		}
	}
	if cfg.Synthesis.Temperature == 0 {
		cfg.Synthesis.Temperature = 0.2
	}
	if cfg.Synthesis.SummaryMaxChunks == 0 {
		cfg.Synthesis.SummaryMaxChunks = 10
	}
	if cfg.Synthesis.MaxContextChars == 0 {
		cfg.Synthesis.MaxContextChars = 20000
	}
	if cfg.Synthesis.MaxAnswerSentences == 0 {
		cfg.Synthesis.MaxAnswerSentences = 4
	}
	if cfg.Synthesis.Timeout == 0 {
		cfg.Synthesis.Timeout = 45 * time.Second
	}

	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
	if cfg.Search.TopK > cfg.Search.MaxTopK {
		cfg.Search.TopK = cfg.Search.MaxTopK
	}

	if cfg.Indexer.MaxConcurrentUploads == 0 {
		cfg.Indexer.MaxConcurrentUploads = 4
	}

	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
