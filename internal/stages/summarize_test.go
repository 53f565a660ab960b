package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

func writeTranscript(t *testing.T, cfg *config.Config, text string) string {
	t.Helper()
	path := filepath.Join(cfg.Paths.TextDir, "2025-08-12_episode.txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir text dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func TestSummarizerWritesSummaryArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcriptPath := writeTranscript(t, cfg, "Speaker A: welcome\n\nSpeaker B: thanks")

	item := &store.Item{
		PodcastSlug:    "test-feed",
		PodcastName:    "Test Feed",
		Title:          "Episode One",
		Context:        "Two hosts discuss testing.",
		TranscriptPath: transcriptPath,
	}
	completer := &fakeCompleter{response: "## Summary\n\nA pleasant chat."}
	s := NewSummarizerWithClient(cfg, completer, nil)

	if err := s.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	result, err := s.Execute(context.Background(), item)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Summary != "## Summary\n\nA pleasant chat." {
		t.Errorf("summary = %q", result.Summary)
	}
	if filepath.Ext(result.SummaryPath) != ".md" {
		t.Errorf("summary path = %q, want markdown file", result.SummaryPath)
	}
	written, readErr := os.ReadFile(result.SummaryPath)
	if readErr != nil {
		t.Fatalf("read summary artifact: %v", readErr)
	}
	if string(written) != result.Summary {
		t.Error("artifact content differs from persisted summary")
	}

	if completer.model != cfg.LLM.SummaryModel {
		t.Errorf("model = %q, want %q", completer.model, cfg.LLM.SummaryModel)
	}
	if !strings.Contains(completer.user, "Two hosts discuss testing.") {
		t.Errorf("prompt missing episode context: %q", completer.user)
	}
	if !strings.Contains(completer.user, "Speaker A: welcome") {
		t.Errorf("prompt missing transcript: %q", completer.user)
	}
}

func TestSummarizerUsesFeedPromptOverride(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Feeds[0].SummaryPrompt = "Summarize for experts."
	transcriptPath := writeTranscript(t, cfg, "transcript text")

	item := &store.Item{PodcastSlug: "test-feed", Title: "Ep", TranscriptPath: transcriptPath}
	completer := &fakeCompleter{response: "done"}
	s := NewSummarizerWithClient(cfg, completer, nil)

	if _, err := s.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if completer.system != "Summarize for experts." {
		t.Errorf("system prompt = %q, want feed override", completer.system)
	}
}

func TestSummarizerSlicesLongTranscripts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.LLM.TranscriptSlice = 50
	transcriptPath := writeTranscript(t, cfg, strings.Repeat("chatter ", 100))

	item := &store.Item{PodcastSlug: "test-feed", Title: "Ep", TranscriptPath: transcriptPath}
	completer := &fakeCompleter{response: "done"}
	s := NewSummarizerWithClient(cfg, completer, nil)

	if _, err := s.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(completer.user) > 300 {
		t.Errorf("prompt not sliced, %d chars", len(completer.user))
	}
}

func TestSummarizerPrepareNeedsTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s := NewSummarizerWithClient(cfg, &fakeCompleter{}, nil)

	if err := s.Prepare(context.Background(), &store.Item{}); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing transcript path should fail validation, got %v", err)
	}
	item := &store.Item{TranscriptPath: filepath.Join(cfg.Paths.TextDir, "ghost.txt")}
	if err := s.Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing transcript file should fail validation, got %v", err)
	}
}
