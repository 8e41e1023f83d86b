package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rewired-gh/arbscan/internal/logger"
	"github.com/rewired-gh/arbscan/internal/models"
)

// FileStore persists the stats snapshot as a single JSON document. Every
// Record performs read-modify-write with a whole-file replace; a concurrent
// second writer would silently lose updates (last writer wins).
type FileStore struct {
	path string
}

// NewFileStore creates the parent directory if needed and returns a store
// writing to path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = filepath.Join(os.TempDir(), "arbscan", "stats.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Record loads the current document (initializing a fresh one when the file
// is absent or corrupt), folds in the scan record, and rewrites the file.
func (f *FileStore) Record(rec models.ScanRecord) error {
	snap, err := f.load()
	if err != nil {
		logger.Warn("Stats file unreadable, reinitializing: %v", err)
		snap = nil
	}
	if snap == nil {
		snap = &models.StatsSnapshot{}
	}

	apply(snap, rec)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}

// Read returns the persisted snapshot or (nil, nil) when no file exists yet.
func (f *FileStore) Read() (*models.StatsSnapshot, error) {
	return f.load()
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) load() (*models.StatsSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats file: %w", err)
	}
	var snap models.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse stats file: %w", err)
	}
	return &snap, nil
}
