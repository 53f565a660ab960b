package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/services"
	"github.com/umangjaipuria/podcast-summary/internal/services/llm"
	"github.com/umangjaipuria/podcast-summary/internal/stage"
	"github.com/umangjaipuria/podcast-summary/internal/store"
)

// Completer runs a single-turn chat completion. Satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)
}

// Contextualizer derives listening context for an episode from its feed
// metadata, before any audio is transcribed.
type Contextualizer struct {
	cfg    *config.Config
	llm    Completer
	logger *slog.Logger
}

// NewContextualizer constructs the contextualize stage handler.
func NewContextualizer(cfg *config.Config, logger *slog.Logger) *Contextualizer {
	client := llm.NewClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
		llm.WithMaxOutputTokens(cfg.LLM.MaxOutputTokens),
	)
	return NewContextualizerWithClient(cfg, client, logger)
}

// NewContextualizerWithClient allows injecting the completion client (used in tests).
func NewContextualizerWithClient(cfg *config.Config, client Completer, logger *slog.Logger) *Contextualizer {
	return &Contextualizer{
		cfg:    cfg,
		llm:    client,
		logger: componentLogger(logger, "contextualize"),
	}
}

// SetLogger installs a stage-scoped logger.
func (c *Contextualizer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

func (c *Contextualizer) Prepare(_ context.Context, item *store.Item) error {
	if strings.TrimSpace(item.Title) == "" && strings.TrimSpace(item.Description) == "" {
		return services.Wrap(services.ErrValidation, "contextualize", "validate",
			"episode has no metadata to contextualize", nil)
	}
	return nil
}

func (c *Contextualizer) Execute(ctx context.Context, item *store.Item) (store.StageResult, error) {
	var empty store.StageResult

	episodeContext, err := c.llm.Complete(ctx, c.cfg.LLM.ContextModel, c.cfg.LLM.ContextPrompt, c.metadataPrompt(item))
	if err != nil {
		return empty, err
	}

	c.logger.InfoContext(ctx, "context generated",
		logging.Int("chars", len(episodeContext)))
	return store.StageResult{Context: episodeContext}, nil
}

// metadataPrompt assembles the episode metadata handed to the model. Raw feed
// JSON is included truncated so one enormous show-notes blob cannot blow the
// prompt budget.
func (c *Contextualizer) metadataPrompt(item *store.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Podcast: %s\n", item.PodcastName)
	fmt.Fprintf(&b, "Episode: %s\n", item.Title)
	if item.PublishedAt != nil {
		fmt.Fprintf(&b, "Published: %s\n", item.PublishedAt.Format("2006-01-02"))
	}
	if item.DurationSeconds > 0 {
		fmt.Fprintf(&b, "Duration: %d minutes\n", item.DurationSeconds/60)
	}
	if desc := strings.TrimSpace(item.Description); desc != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", truncateRunes(desc, c.cfg.LLM.ContextMetaChars))
	}
	if raw := strings.TrimSpace(item.RawFeedJSON); raw != "" {
		fmt.Fprintf(&b, "\nFeed entry:\n%s\n", truncateRunes(raw, c.cfg.LLM.ContextMetaChars))
	}
	return b.String()
}

func (c *Contextualizer) HealthCheck(_ context.Context) stage.Health {
	if strings.TrimSpace(c.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("contextualize", "llm api key not configured")
	}
	return stage.Healthy("contextualize")
}
