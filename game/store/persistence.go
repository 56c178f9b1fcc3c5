package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/snakegame/game/service"
)

var (
	ErrNoRecord      = service.ErrNoRecord
	ErrCorruptRecord = service.ErrCorruptRecord
	ErrUnknownKind   = errors.New("unknown store kind")
)

// Store kinds accepted by Open
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// SQLiteFilename is the database file created under the data directory.
const SQLiteFilename = "snake.db"

// Open returns the record store of the given kind rooted at dataDir.
func Open(kind, dataDir string) (service.RecordStore, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindFile, "":
		return NewFileStore(dataDir)
	case KindSQLite:
		return OpenSQLite(filepath.Join(dataDir, SQLiteFilename))
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

var (
	_ service.RecordStore = (*FileStore)(nil)
	_ service.RecordStore = (*SQLiteStore)(nil)
	_ service.RecordStore = (*MemoryStore)(nil)
)
