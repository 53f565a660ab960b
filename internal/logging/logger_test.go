package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/services"
)

func TestPrettyHandlerFormatsComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("episode admitted", String(FieldComponent, "ingest"), Int64("episode_id", 7))

	line := buf.String()
	if !strings.Contains(line, "INFO ingest: episode admitted") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "episode_id=7") {
		t.Fatalf("missing attr in line: %q", line)
	}
}

func TestPrettyHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Warn("skip", String("reason", "too long"))

	if !strings.Contains(buf.String(), `reason="too long"`) {
		t.Fatalf("value not quoted: %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newPrettyHandler(&buf, lvl))

	ctx := services.WithEpisodeID(context.Background(), 11)
	ctx = services.WithStage(ctx, "download")
	WithContext(ctx, base).Info("working")

	line := buf.String()
	for _, want := range []string{"episode_id=11", "stage=download"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("parseLevel(debug) = %v", got)
	}
	if got := parseLevel(""); got != slog.LevelInfo {
		t.Fatalf("parseLevel(empty) = %v", got)
	}
	if got := parseLevel("bogus"); got != slog.LevelInfo {
		t.Fatalf("parseLevel(bogus) = %v", got)
	}
}
