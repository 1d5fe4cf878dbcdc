package storage

import (
	"fmt"

	"github.com/hyperjump/pdfqa/internal/config"
)

// New opens the backend selected by cfg.Backend.
func New(cfg *config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.StorageMemory, "":
		return NewMemoryStorage(), nil
	case config.StorageSQLite:
		return NewSQLiteStorage(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
