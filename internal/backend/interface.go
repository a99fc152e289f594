package backend

import (
	"context"

	"finboard/internal/cache"
	"finboard/internal/sources"
)

// Backend serves and stores the records behind the read API.
type Backend interface {
	sources.TransactionReader
	sources.CategoryReader
	sources.TransactionWriter
	sources.CategoryWriter
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and what the caller needs to
// manage its lifetime.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	// Ping reports backend health; nil means always healthy.
	Ping func(ctx context.Context) error
	// Caches should be registered with a cache.Manager for periodic cleanup.
	Caches []cache.Cleaner
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// IsReadOnly reports whether the backend rejects writes.
func (bt BackendType) IsReadOnly() bool {
	return bt == SheetsBackend
}
