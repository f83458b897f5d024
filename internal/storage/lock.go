package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireLock takes the exclusive write lock guarding the metrics
// database. Extraction and collection runs hold it so two `ns` processes
// never interleave writes; read-only commands don't bother.
//
// The lock file lives next to the database. Release with Unlock (use
// defer).
func AcquireLock(dbPath string) (*flock.Flock, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".write-lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring write lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another ns process is writing to %s (lock held on %s)",
			dbPath, lock.Path())
	}
	return lock, nil
}
