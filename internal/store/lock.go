package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	geoerrors "github.com/Aman-CERP/geoprefix/internal/errors"
)

// WriteLock serializes writers to one index directory across processes
// using gofrs/flock. Readers do not take it.
type WriteLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewWriteLock creates a lock for dataDir.
// The lock file will be created at <dir>/.write.lock
func NewWriteLock(dataDir string) *WriteLock {
	lockPath := filepath.Join(dataDir, ".write.lock")
	return &WriteLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Acquire takes the lock without blocking. It returns an error matching
// errors.ErrIndexLocked when another process holds it.
func (l *WriteLock) Acquire() error {
	if l.locked {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return geoerrors.New(geoerrors.ErrCodeIndexLocked,
			"spatial index is locked by another process", nil).
			WithDetail("lock", l.path).
			WithSuggestion("Wait for the other indexing run to finish")
	}

	l.locked = true
	return nil
}

// Release frees the lock. Safe to call when not held.
func (l *WriteLock) Release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *WriteLock) Path() string {
	return l.path
}

// IsLocked returns true if the lock is currently held.
func (l *WriteLock) IsLocked() bool {
	return l.locked
}
