package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/services/assemblyai"
	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/testsupport"
)

type fakeTranscriptService struct {
	transcript assemblyai.Transcript
	err        error
	audioPath  string
}

func (f *fakeTranscriptService) Transcribe(_ context.Context, audioPath string) (assemblyai.Transcript, error) {
	f.audioPath = audioPath
	if f.err != nil {
		return assemblyai.Transcript{}, f.err
	}
	return f.transcript, nil
}

func TestTranscriberMovesAudioAndWritesTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	podcast := testsupport.SeedPodcast(t, st, "test-feed")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "ep-1")

	audioPath := filepath.Join(cfg.Paths.IncomingDir, "2025-08-12_episode.mp3")
	testsupport.WriteFile(t, audioPath, 1024)
	item.AudioPath = audioPath

	service := &fakeTranscriptService{transcript: assemblyai.Transcript{
		ID: "job-1",
		Utterances: []assemblyai.Utterance{
			{Speaker: "A", Text: "welcome to the show"},
			{Speaker: "B", Text: "glad to be here"},
		},
	}}
	tr := NewTranscriberWithService(cfg, st, service, nil)

	if err := tr.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	result, err := tr.Execute(context.Background(), item)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !strings.HasPrefix(result.AudioPath, cfg.Paths.ProcessingDir) {
		t.Errorf("audio path %q not under processing dir", result.AudioPath)
	}
	if _, statErr := os.Stat(audioPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("incoming copy should be gone after the move")
	}
	if service.audioPath != result.AudioPath {
		t.Errorf("transcription ran against %q, want the processing copy", service.audioPath)
	}

	text, readErr := os.ReadFile(result.TranscriptPath)
	if readErr != nil {
		t.Fatalf("read transcript: %v", readErr)
	}
	if !strings.Contains(string(text), "Speaker A: welcome to the show") {
		t.Errorf("transcript missing speaker labels: %s", text)
	}

	// The moved path is persisted even before the stage result lands.
	stored, getErr := st.GetItem(context.Background(), item.EpisodeID)
	if getErr != nil {
		t.Fatalf("GetItem: %v", getErr)
	}
	if stored.AudioPath != result.AudioPath {
		t.Errorf("stored audio path %q, want %q", stored.AudioPath, result.AudioPath)
	}
}

func TestTranscriberRejectsEmptyTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	podcast := testsupport.SeedPodcast(t, st, "test-feed")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "ep-1")

	audioPath := filepath.Join(cfg.Paths.IncomingDir, "ep.mp3")
	testsupport.WriteFile(t, audioPath, 256)
	item.AudioPath = audioPath

	service := &fakeTranscriptService{transcript: assemblyai.Transcript{ID: "job-2", Text: "   "}}
	tr := NewTranscriberWithService(cfg, st, service, nil)
	if _, err := tr.Execute(context.Background(), item); !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error for empty transcript, got %v", err)
	}
}

func TestTranscriberSurfacesServiceError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	podcast := testsupport.SeedPodcast(t, st, "test-feed")
	item := testsupport.SeedEpisode(t, st, podcast.ID, "ep-1")

	audioPath := filepath.Join(cfg.Paths.IncomingDir, "ep.mp3")
	testsupport.WriteFile(t, audioPath, 256)
	item.AudioPath = audioPath

	service := &fakeTranscriptService{err: services.Wrap(services.ErrTimeout, "assemblyai", "poll", "transcript not ready", nil)}
	tr := NewTranscriberWithService(cfg, st, service, nil)
	if _, err := tr.Execute(context.Background(), item); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestTranscriberPrepareNeedsAudioOnDisk(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	tr := NewTranscriberWithService(cfg, st, &fakeTranscriptService{}, nil)

	if err := tr.Prepare(context.Background(), &store.Item{}); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing path should fail validation, got %v", err)
	}
	item := &store.Item{AudioPath: filepath.Join(cfg.Paths.IncomingDir, "ghost.mp3")}
	if err := tr.Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Errorf("missing file should fail validation, got %v", err)
	}
}
