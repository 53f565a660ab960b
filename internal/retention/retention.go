package retention

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
)

// Sweeper removes aged artifacts: archived audio, transcript and summary
// text, and old log files. Only regular files are touched; directory
// structure is left in place.
type Sweeper struct {
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a retention sweeper.
func New(cfg *config.Config, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{
		cfg:    cfg,
		logger: logger.With(logging.String("component", "retention")),
		now:    time.Now,
	}
}

// Result counts removals per artifact class.
type Result struct {
	ArchivedAudio int
	TextFiles     int
	LogFiles      int
}

// Sweep removes everything past its retention window. A zero or negative
// retention setting disables the sweep for that class.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var result Result

	removed, err := s.sweepDir(ctx, s.cfg.Paths.ArchiveDir, s.cfg.Retention.ArchiveDays)
	if err != nil {
		return result, err
	}
	result.ArchivedAudio = removed

	removed, err = s.sweepDir(ctx, s.cfg.Paths.TextDir, s.cfg.Retention.TextDays)
	if err != nil {
		return result, err
	}
	result.TextFiles = removed

	removed, err = s.sweepDir(ctx, s.cfg.Paths.LogDir, s.cfg.Logging.RetentionDays)
	if err != nil {
		return result, err
	}
	result.LogFiles = removed

	s.logger.InfoContext(ctx, "retention sweep finished",
		logging.Int("archived_audio", result.ArchivedAudio),
		logging.Int("text_files", result.TextFiles),
		logging.Int("log_files", result.LogFiles))
	return result, nil
}

func (s *Sweeper) sweepDir(ctx context.Context, dir string, days int) (int, error) {
	if days <= 0 || dir == "" {
		return 0, nil
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)

	var removed int
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		s.logger.Debug("removed aged artifact", logging.String("path", path))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return removed, err
	}
	return removed, nil
}
