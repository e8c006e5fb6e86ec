// Package store is the on-disk columnar read model: one Parquet file per
// mirrored table. Files are written by the syncer (single writer, atomic
// replace) and read by the analytics calculators (many readers).
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/jkrumm/fpp-analytics/pkg/model"
)

// ErrNotFound is returned when a table file does not exist yet.
var ErrNotFound = errors.New("table file not found")

// Keyed is implemented by all row types; SyncKey is the watermark column.
type Keyed interface {
	SyncKey() int64
}

// Store addresses Parquet table files under a data directory.
type Store struct {
	dataDir string
}

// New creates the data directory if needed and returns a Store.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the root directory holding the table files.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) tablePath(table string) string {
	return filepath.Join(s.dataDir, table+".parquet")
}

// ReadAll loads every row of a table. Missing files map to ErrNotFound;
// whether that is fatal is the caller's call (watermark lookups tolerate
// it, calculators do not).
func ReadAll[T any](s *Store, table string) ([]T, error) {
	rows, err := parquet.ReadFile[T](s.tablePath(table))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
		}
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return rows, nil
}

// WriteAll replaces a table file atomically: rows are written to a
// temporary file in the same directory which is then renamed over the
// target, so concurrent readers never observe a partial file.
func WriteAll[T any](s *Store, table string, rows []T) error {
	tmpPath := filepath.Join(s.dataDir, "."+table+".parquet.tmp")

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", table, err)
	}
	if err := parquet.Write[T](f, rows); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", table, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", table, err)
	}
	if err := os.Rename(tmpPath, s.tablePath(table)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", table, err)
	}
	return nil
}

// MaxWatermark scans the existing table file and returns the maximum
// sync key. A missing or empty file is not an error: it means "sync
// everything" and is reported via ok=false.
func MaxWatermark[T Keyed](s *Store, table string) (watermark int64, ok bool, err error) {
	rows, err := ReadAll[T](s, table)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	watermark = rows[0].SyncKey()
	for _, row := range rows[1:] {
		if key := row.SyncKey(); key > watermark {
			watermark = key
		}
	}
	return watermark, true, nil
}

// Merge unions new rows with existing rows, deduplicated on the sync
// key with new rows taking precedence, sorted ascending by key.
func Merge[T Keyed](newRows, existing []T) []T {
	merged := make(map[int64]T, len(newRows)+len(existing))
	for _, row := range existing {
		merged[row.SyncKey()] = row
	}
	for _, row := range newRows {
		merged[row.SyncKey()] = row
	}

	out := make([]T, 0, len(merged))
	for _, row := range merged {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SyncKey() < out[j].SyncKey()
	})
	return out
}

// FileStatus describes one table file for the health endpoint.
type FileStatus struct {
	Name      string `json:"name"`
	Present   bool   `json:"present"`
	SizeBytes int64  `json:"size_bytes"`
}

// Files reports presence and size of every required table file.
func (s *Store) Files() []FileStatus {
	statuses := make([]FileStatus, 0, len(model.Tables))
	for _, table := range model.Tables {
		status := FileStatus{Name: table + ".parquet"}
		if info, err := os.Stat(s.tablePath(table)); err == nil {
			status.Present = true
			status.SizeBytes = info.Size()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Reset deletes all table files and the freshness marker, forcing the
// next sync cycle to rebuild the read model from scratch.
func (s *Store) Reset() error {
	for _, table := range model.Tables {
		if err := os.Remove(s.tablePath(table)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", table, err)
		}
	}
	if err := os.Remove(s.markerPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove freshness marker: %w", err)
	}
	return nil
}
