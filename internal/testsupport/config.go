package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.IncomingDir = filepath.Join(base, "audio", "incoming")
	cfg.Paths.ProcessingDir = filepath.Join(base, "audio", "processing")
	cfg.Paths.ArchiveDir = filepath.Join(base, "audio", "archive")
	cfg.Paths.TextDir = filepath.Join(base, "text")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Transcriber.APIKey = "test"
	cfg.Transcriber.PollIntervalSeconds = 1
	cfg.LLM.APIKey = "test"
	cfg.Email.Sender = "Podsum <podsum@example.com>"
	cfg.Feeds = []config.Feed{
		{
			Slug:       "test-feed",
			Name:       "Test Feed",
			URL:        "https://example.com/feed.xml",
			Active:     true,
			Recipients: []string{"reader@example.com"},
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFeeds replaces the configured feeds on the test config.
func WithFeeds(feeds ...config.Feed) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Feeds = feeds
	}
}

// WithRecipients replaces the first feed's recipient list.
func WithRecipients(recipients ...string) ConfigOption {
	return func(cfg *config.Config) {
		if len(cfg.Feeds) > 0 {
			cfg.Feeds[0].Recipients = recipients
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
