package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/fileutil"
)

// Locations tracks the three audio lifecycle directories. A file lives in
// exactly one of them at a time and only stage transitions move it.
type Locations struct {
	Incoming   string
	Processing string
	Archive    string
}

// NewLocations derives the lifecycle directories from config.
func NewLocations(cfg *config.Config) Locations {
	return Locations{
		Incoming:   cfg.Paths.IncomingDir,
		Processing: cfg.Paths.ProcessingDir,
		Archive:    cfg.Paths.ArchiveDir,
	}
}

// IncomingPath returns the download destination for a filename.
func (l Locations) IncomingPath(name string) string {
	return filepath.Join(l.Incoming, name)
}

// MoveToProcessing relocates an incoming file into the processing directory
// and returns its new path.
func (l Locations) MoveToProcessing(path string) (string, error) {
	return moveInto(path, l.Processing)
}

// MoveToArchive relocates a processing file into the archive directory and
// returns its new path.
func (l Locations) MoveToArchive(path string) (string, error) {
	return moveInto(path, l.Archive)
}

// Purge removes an episode's audio artifact wherever it currently sits. A
// missing file is not an error; the sweep may run after a partial cleanup.
func (l Locations) Purge(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("purge %s: %w", path, err)
	}
	return nil
}

func moveInto(path, dir string) (string, error) {
	if path == "" {
		return "", errors.New("source path required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", dir, err)
	}
	target := filepath.Join(dir, filepath.Base(path))
	if path == target {
		return target, nil
	}
	if err := os.Rename(path, target); err != nil {
		// Rename fails across filesystems; fall back to copy and delete.
		if copyErr := fileutil.CopyFile(path, target); copyErr != nil {
			return "", fmt.Errorf("move %s to %s: %w", path, dir, copyErr)
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return "", fmt.Errorf("remove source after copy: %w", rmErr)
		}
	}
	return target, nil
}
