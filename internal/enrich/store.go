package enrich

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/jfmyers9/tagfill/internal/dataset"
)

// Store persists checkpoints for a run.
type Store interface {
	// Lock claims outputPath for the caller until the returned func is called.
	Lock(outputPath string) (unlock func() error, err error)

	// Load returns the previous output and its manifest. Either is nil when
	// absent.
	Load(outputPath string) (*dataset.Table, *Manifest, error)

	// Save replaces the output and its manifest.
	Save(outputPath string, t *dataset.Table, m *Manifest) error
}

// FileStore keeps checkpoints as a CSV file plus a JSON manifest on disk.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Lock takes an exclusive flock on outputPath+".lock". It does not wait:
// a second run against the same output fails with ErrLocked.
func (s *FileStore) Lock(outputPath string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(outputPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputPath)
	}

	return lock.Unlock, nil
}

// Load reads the output CSV and manifest if they exist.
func (s *FileStore) Load(outputPath string) (*dataset.Table, *Manifest, error) {
	t, err := dataset.ReadFile(outputPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("failed to read previous output: %w", err)
		}
		t = nil
	}

	m, err := ReadManifest(ManifestPath(outputPath))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		m = nil
	}

	return t, m, nil
}

// Save writes the CSV first, then the manifest. Each is atomic on its own;
// a crash between the two leaves a manifest that lags the CSV, which only
// costs refetching the rows of one interval.
func (s *FileStore) Save(outputPath string, t *dataset.Table, m *Manifest) error {
	if err := dataset.WriteFileAtomic(outputPath, t); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if m == nil {
		return nil
	}
	if err := writeManifest(ManifestPath(outputPath), m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
