package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/services/llm"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// Summarizer turns the transcript into a markdown summary, persisted both on
// the episode record and as a text artifact.
type Summarizer struct {
	cfg    *config.Config
	llm    Completer
	logger *slog.Logger
}

// NewSummarizer constructs the summarize stage handler.
func NewSummarizer(cfg *config.Config, logger *slog.Logger) *Summarizer {
	client := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
		llm.WithMaxOutputTokens(cfg.LLM.MaxOutputTokens),
	)
	return NewSummarizerWithClient(cfg, client, logger)
}

// NewSummarizerWithClient allows injecting the completion client (used in tests).
func NewSummarizerWithClient(cfg *config.Config, client Completer, logger *slog.Logger) *Summarizer {
	return &Summarizer{
		cfg:    cfg,
		llm:    client,
		logger: componentLogger(logger, "summarize"),
	}
}

// SetLogger installs a stage-scoped logger.
func (s *Summarizer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Summarizer) Prepare(_ context.Context, item *store.Item) error {
	if strings.TrimSpace(item.TranscriptPath) == "" {
		return services.Wrap(services.ErrValidation, "summarize", "validate", "no transcript recorded for episode", nil)
	}
	if _, err := os.Stat(item.TranscriptPath); err != nil {
		return services.Wrap(services.ErrValidation, "summarize", "validate", "transcript file missing on disk", err)
	}
	return nil
}

func (s *Summarizer) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	raw, err := os.ReadFile(item.TranscriptPath)
	if err != nil {
		return empty, services.Wrap(services.ErrValidation, "summarize", "read", "read transcript", err)
	}
	transcript := truncateRunes(string(raw), s.cfg.LLM.TranscriptSlice)

	summary, err := s.llm.Complete(ctx, s.cfg.LLM.SummaryModel, s.systemPrompt(item), s.userPrompt(item, transcript))
	if err != nil {
		return empty, err
	}

	summaryPath := s.summaryPath(item)
	if err := os.MkdirAll(filepath.Dir(summaryPath), 0o755); err != nil {
		return empty, services.Wrap(services.ErrValidation, "summarize", "write", "create text directory", err)
	}
	if err := os.WriteFile(summaryPath, []byte(summary), 0o644); err != nil {
		return empty, services.Wrap(services.ErrValidation, "summarize", "write", "write summary", err)
	}

	s.logger.InfoContext(ctx, "summary written",
		logging.String("path", summaryPath),
		logging.Int("chars", len(summary)))
	return store.StageResult{Summary: summary, SummaryPath: summaryPath}, nil
}

// systemPrompt prefers the per-feed override when one is configured.
func (s *Summarizer) systemPrompt(item *store.Item) string {
	if feedCfg, ok := s.cfg.FeedBySlug(item.PodcastSlug); ok {
		if prompt := strings.TrimSpace(feedCfg.SummaryPrompt); prompt != "" {
			return prompt
		}
	}
	return s.cfg.LLM.SummaryPrompt
}

func (s *Summarizer) userPrompt(item *store.Item, transcript string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Podcast: %s\nEpisode: %s\n", item.PodcastName, item.Title)
	if episodeContext := strings.TrimSpace(item.Context); episodeContext != "" {
		fmt.Fprintf(&b, "\nBackground context:\n%s\n", episodeContext)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s\n", transcript)
	return b.String()
}

func (s *Summarizer) summaryPath(item *store.Item) string {
	base := "summary"
	if item.TranscriptPath != "" {
		base = strings.TrimSuffix(filepath.Base(item.TranscriptPath), filepath.Ext(item.TranscriptPath))
	}
	return filepath.Join(s.cfg.Paths.TextDir, base+".md")
}

func (s *Summarizer) HealthCheck(_ context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("summarize", "llm api key not configured")
	}
	return stage.Healthy("summarize")
}
