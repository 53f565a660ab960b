package stages

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/media"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// Archiver moves delivered audio into the archive directory and closes out
// the episode.
type Archiver struct {
	locations media.Locations
	logger    *slog.Logger
}

// NewArchiver constructs the archive stage handler.
func NewArchiver(cfg *config.Config, logger *slog.Logger) *Archiver {
	return &Archiver{
		locations: media.NewLocations(cfg),
		logger:    componentLogger(logger, "archive"),
	}
}

// SetLogger installs a stage-scoped logger.
func (a *Archiver) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

func (a *Archiver) Prepare(_ context.Context, item *store.Item) error {
	if strings.TrimSpace(item.AudioPath) == "" {
		return services.Wrap(services.ErrValidation, "archive", "validate", "no audio file recorded for episode", nil)
	}
	return nil
}

func (a *Archiver) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	archivePath, err := a.locations.MoveToArchive(item.AudioPath)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, "archive", "move", "move audio to archive", err)
	}

	a.logger.InfoContext(ctx, "audio archived", logging.String("path", archivePath))
	return store.StageResult{AudioPath: archivePath}, nil
}

func (a *Archiver) HealthCheck(_ context.Context) stage.Health {
	if err := os.MkdirAll(a.locations.Archive, 0o755); err != nil {
		return stage.Unhealthy("archive", "archive directory unavailable: "+err.Error())
	}
	return stage.Healthy("archive")
}
