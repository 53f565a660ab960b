package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

func newLocations(t *testing.T) Locations {
	t.Helper()
	base := t.TempDir()
	return Locations{
		Incoming:   filepath.Join(base, "incoming"),
		Processing: filepath.Join(base, "processing"),
		Archive:    filepath.Join(base, "archive"),
	}
}

func TestMoveThroughLifecycle(t *testing.T) {
	loc := newLocations(t)
	source := loc.IncomingPath("ep.mp3")
	testsupport.WriteFile(t, source, 128)

	processing, err := loc.MoveToProcessing(source)
	if err != nil {
		t.Fatalf("move to processing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("source still present after move")
	}
	if filepath.Dir(processing) != loc.Processing {
		t.Fatalf("processing path = %q", processing)
	}

	archived, err := loc.MoveToArchive(processing)
	if err != nil {
		t.Fatalf("move to archive: %v", err)
	}
	if filepath.Dir(archived) != loc.Archive {
		t.Fatalf("archive path = %q", archived)
	}
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
}

func TestPurgeTolerantOfMissingFile(t *testing.T) {
	loc := newLocations(t)
	if err := loc.Purge(loc.IncomingPath("gone.mp3")); err != nil {
		t.Fatalf("purge missing file: %v", err)
	}
	if err := loc.Purge(""); err != nil {
		t.Fatalf("purge empty path: %v", err)
	}

	present := loc.IncomingPath("here.mp3")
	testsupport.WriteFile(t, present, 16)
	if err := loc.Purge(present); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := os.Stat(present); !os.IsNotExist(err) {
		t.Fatal("file survived purge")
	}
}
