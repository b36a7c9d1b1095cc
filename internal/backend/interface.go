package backend

import (
	"context"

	"aureum/internal/sheets"
	"aureum/internal/storage"
)

// Factory builds the storage and mirror backends named by a Config.
type Factory interface {
	CreateStore(ctx context.Context, cfg Config) (storage.Store, error)
	CreateMirror(ctx context.Context, cfg Config) (sheets.TransactionMirror, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	// Mirror. An empty SpreadsheetID selects the in-memory mirror.
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
