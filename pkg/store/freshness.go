package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// The freshness marker is a single timestamp written after each
// successful sync cycle. The response cache keys off it; it is not a
// source of truth and is safe to delete.
const markerFile = "freshness.txt"

func (s *Store) markerPath() string {
	return filepath.Join(s.dataDir, markerFile)
}

// WriteFreshness records a sync completion timestamp. Written via temp
// file + rename like the table files.
func (s *Store) WriteFreshness(at time.Time) error {
	tmpPath := s.markerPath() + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(at.UTC().Format(time.RFC3339Nano)), 0o644); err != nil {
		return fmt.Errorf("write freshness marker: %w", err)
	}
	if err := os.Rename(tmpPath, s.markerPath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace freshness marker: %w", err)
	}
	return nil
}

// ReadFreshness returns the current marker value, or ok=false when the
// marker is missing or unreadable (callers treat that as a cache miss).
func (s *Store) ReadFreshness() (marker string, ok bool) {
	// An unreadable marker degrades to a miss, never an error.
	raw, err := os.ReadFile(s.markerPath())
	if err != nil {
		return "", false
	}
	marker = strings.TrimSpace(string(raw))
	return marker, marker != ""
}
