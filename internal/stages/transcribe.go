package stages

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/media"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/services/assemblyai"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// TranscriptService produces a speaker-labeled transcript for an audio file.
// Satisfied by *assemblyai.Client.
type TranscriptService interface {
	Transcribe(ctx context.Context, audioPath string) (assemblyai.Transcript, error)
}

// Transcriber moves audio from incoming to processing and produces the
// transcript text file.
type Transcriber struct {
	cfg       *config.Config
	store     *store.Store
	locations media.Locations
	service   TranscriptService
	logger    *slog.Logger
}

// NewTranscriber constructs the transcribe stage handler.
func NewTranscriber(cfg *config.Config, st *store.Store, logger *slog.Logger) *Transcriber {
	client := assemblyai.NewClient(cfg.Transcriber.APIKey,
		assemblyai.WithBaseURL(cfg.Transcriber.BaseURL),
		assemblyai.WithPollInterval(time.Duration(cfg.Transcriber.PollIntervalSeconds)*time.Second),
	)
	return NewTranscriberWithService(cfg, st, client, logger)
}

// NewTranscriberWithService allows injecting the transcript service (used in tests).
func NewTranscriberWithService(cfg *config.Config, st *store.Store, service TranscriptService, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		cfg:       cfg,
		store:     st,
		locations: media.NewLocations(cfg),
		service:   service,
		logger:    componentLogger(logger, "transcribe"),
	}
}

// SetLogger installs a stage-scoped logger.
func (t *Transcriber) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logger
	}
}

func (t *Transcriber) Prepare(_ context.Context, item *store.Item) error {
	if strings.TrimSpace(item.AudioPath) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "validate", "no audio file recorded for episode", nil)
	}
	if _, err := os.Stat(item.AudioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "validate", "audio file missing on disk", err)
	}
	return nil
}

func (t *Transcriber) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	// Claim the audio file before the long transcription wait. The new path
	// is persisted immediately so a crash mid-transcription still leaves the
	// record pointing at the real file.
	audioPath, err := t.locations.MoveToProcessing(item.AudioPath)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, "transcribe", "claim", "move audio to processing", err)
	}
	if err := t.store.SetAudioPath(ctx, item.EpisodeID, audioPath); err != nil {
		return empty, err
	}
	item.AudioPath = audioPath

	waitCtx := ctx
	if wait := time.Duration(t.cfg.Limits.TranscribeWaitMinutes) * time.Minute; wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	transcript, err := t.service.Transcribe(waitCtx, audioPath)
	if err != nil {
		return empty, err
	}

	text := transcript.Formatted()
	if strings.TrimSpace(text) == "" {
		return empty, services.Wrap(services.ErrExternalService, "transcribe", "result", "transcript came back empty", nil)
	}

	transcriptPath := t.textPath(audioPath, ".txt")
	if err := os.MkdirAll(filepath.Dir(transcriptPath), 0o755); err != nil {
		return empty, services.Wrap(services.ErrValidation, "transcribe", "write", "create text directory", err)
	}
	if err := os.WriteFile(transcriptPath, []byte(text), 0o644); err != nil {
		return empty, services.Wrap(services.ErrValidation, "transcribe", "write", "write transcript", err)
	}

	t.logger.InfoContext(ctx, "transcript written",
		logging.String("path", transcriptPath),
		logging.Int("chars", len(text)))
	return store.StageResult{AudioPath: audioPath, TranscriptPath: transcriptPath}, nil
}

func (t *Transcriber) textPath(audioPath, ext string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(t.cfg.Paths.TextDir, base+ext)
}

func (t *Transcriber) HealthCheck(_ context.Context) stage.Health {
	if strings.TrimSpace(t.cfg.Transcriber.APIKey) == "" {
		return stage.Unhealthy("transcribe", "transcriber api key not configured")
	}
	return stage.Healthy("transcribe")
}
