package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names a SpatialIndex implementation.
type Backend string

const (
	// BackendMemory keeps postings in ordered in-memory trees. Not persisted.
	BackendMemory Backend = "memory"

	// BackendSQLite stores postings in SQLite (default for on-disk indexes).
	// Enables concurrent multi-process readers via WAL mode.
	BackendSQLite Backend = "sqlite"

	// BackendBleve stores postings in a Bleve v2 index.
	// Has exclusive file locking via BoltDB - single process only.
	BackendBleve Backend = "bleve"
)

// Backends lists the supported backend names.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendSQLite, BackendBleve}
}

// NewSpatialIndexWithBackend creates a SpatialIndex using the specified backend.
// The path should be the base path without extension - the extension will be
// added based on the backend type (.db for SQLite, .bleve for Bleve). The
// memory backend ignores the path.
//
// If basePath is empty, the on-disk backends create in-memory indexes.
func NewSpatialIndexWithBackend(basePath string, backend string) (SpatialIndex, error) {
	switch Backend(backend) {
	case BackendSQLite, "":
		var path string
		if basePath != "" {
			path = basePath + ".db"
		}
		return NewSQLiteIndex(path)

	case BackendBleve:
		var path string
		if basePath != "" {
			path = basePath + ".bleve"
		}
		return NewBleveIndex(path)

	case BackendMemory:
		return NewMemoryIndex(), nil

	default:
		return nil, fmt.Errorf("unknown spatial index backend: %s (valid options: memory, sqlite, bleve)", backend)
	}
}

// DetectBackend detects which backend an existing index uses based on file existence.
// Returns the detected backend or an empty string if no index exists.
func DetectBackend(basePath string) Backend {
	if fileExists(basePath + ".db") {
		return BackendSQLite
	}
	if dirExists(basePath + ".bleve") {
		return BackendBleve
	}
	return ""
}

// IndexBasePath returns the base path of the spatial index inside dataDir.
func IndexBasePath(dataDir string) string {
	return filepath.Join(dataDir, "spatial")
}

// IndexPath returns the full path to the index file/directory
// based on the backend type.
func IndexPath(dataDir string, backend string) string {
	basePath := IndexBasePath(dataDir)
	switch Backend(backend) {
	case BackendBleve:
		return basePath + ".bleve"
	case BackendMemory:
		return ""
	default:
		return basePath + ".db"
	}
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists checks if a directory exists at the given path.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
