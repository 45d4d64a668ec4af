package storage

import (
	"fmt"
	"path/filepath"

	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/pkg/filesystem"
	"github.com/doeshing/mathool/internal/ports"
)

// Store is a key-value store that can describe where it keeps its data.
type Store interface {
	ports.KeyValueStore
	Path() string
}

// Open builds the store configured by storage.backend and storage.path.
// An empty path resolves under ~/.mathool/store.
func Open(cfg domain.Config) (Store, error) {
	path := filesystem.ExpandPath(cfg.Storage.Path)
	switch cfg.GetStorageBackend() {
	case domain.StorageBackendFile:
		if path == "" {
			path = filepath.Join(filesystem.AppDir(), "store")
		}
		return NewFileStore(path), nil
	case domain.StorageBackendSQLite:
		if path == "" {
			path = filepath.Join(filesystem.AppDir(), "store", "mathool.db")
		}
		return NewSQLiteStore(path)
	case domain.StorageBackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
