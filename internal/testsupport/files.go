package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile drops a filler artifact at path, creating parent directories as
// needed. Tests use it to stand in for downloaded audio and stage text
// outputs, so only the size matters, not the content. A size <= 0 still
// yields one byte so the file registers on disk.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	payload := bytes.Repeat([]byte("podsum"), int(size/6)+1)
	if err := os.WriteFile(path, payload[:size], 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
