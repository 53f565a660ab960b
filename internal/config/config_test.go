package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/umangjaipuria/podcast-summary/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalFeeds = `
[[feeds]]
slug = "daily"
name = "Daily Show"
url = "https://example.com/feed.xml"
active = true
recipients = ["reader@example.com"]
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalFeeds)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Limits.MaxDurationMinutes != 240 {
		t.Fatalf("default max duration = %d", cfg.Limits.MaxDurationMinutes)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("default log format = %q", cfg.Logging.Format)
	}
	if !strings.HasPrefix(cfg.Paths.IncomingDir, "/") {
		t.Fatalf("incoming dir not expanded: %q", cfg.Paths.IncomingDir)
	}
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	path := writeConfig(t, minimalFeeds+`
[[feeds]]
slug = "daily"
name = "Other"
url = "https://example.com/other.xml"
active = true
recipients = ["reader@example.com"]
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "duplicate feed slug") {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}
}

func TestLoadRejectsActiveFeedWithoutRecipients(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
slug = "quiet"
name = "Quiet"
url = "https://example.com/feed.xml"
active = true
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "recipient") {
		t.Fatalf("expected recipient error, got %v", err)
	}
}

func TestLoadRejectsRelativeFeedURL(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
slug = "rel"
name = "Relative"
url = "feed.xml"
active = true
recipients = ["reader@example.com"]
`)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "not absolute") {
		t.Fatalf("expected url error, got %v", err)
	}
}

func TestLoadRejectsBadRecipient(t *testing.T) {
	path := writeConfig(t, `
[[feeds]]
slug = "bad"
name = "Bad"
url = "https://example.com/feed.xml"
active = true
recipients = ["not-an-address"]
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected recipient validation error")
	}
}

func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	path := writeConfig(t, `
[limits]
max_duration_minutes = 0
`+minimalFeeds)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "max_duration_minutes") {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestEmailValidationRequiresSenderWithKey(t *testing.T) {
	path := writeConfig(t, `
[email]
api_key = "re_123"
`+minimalFeeds)
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "email.sender") {
		t.Fatalf("expected sender error, got %v", err)
	}
}

func TestFeedBySlug(t *testing.T) {
	path := writeConfig(t, minimalFeeds)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	feed, ok := cfg.FeedBySlug("daily")
	if !ok || feed.Name != "Daily Show" {
		t.Fatalf("FeedBySlug = %+v, %v", feed, ok)
	}
	if _, ok := cfg.FeedBySlug("missing"); ok {
		t.Fatal("unexpected feed match")
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
