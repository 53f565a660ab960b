package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir       string `toml:"data_dir"`
	IncomingDir   string `toml:"incoming_dir"`
	ProcessingDir string `toml:"processing_dir"`
	ArchiveDir    string `toml:"archive_dir"`
	TextDir       string `toml:"text_dir"`
	LogDir        string `toml:"log_dir"`
}

// Limits contains admission and run control configuration.
type Limits struct {
	CandidatesPerPoll     int `toml:"candidates_per_poll"`
	MaxDurationMinutes    int `toml:"max_duration_minutes"`
	MaxAudioMB            int `toml:"max_audio_mb"`
	MaxEpisodeAgeDays     int `toml:"max_episode_age_days"`
	PollIntervalMinutes   int `toml:"poll_interval_minutes"`
	TranscribeWaitMinutes int `toml:"transcribe_wait_minutes"`
	RunTimeoutMinutes     int `toml:"run_timeout_minutes"`
}

// Transcriber contains configuration for the AssemblyAI API.
type Transcriber struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// LLM contains configuration for the OpenAI-compatible chat API used by the
// contextualize and summarize stages.
type LLM struct {
	APIKey           string `toml:"api_key"`
	BaseURL          string `toml:"base_url"`
	ContextModel     string `toml:"context_model"`
	SummaryModel     string `toml:"summary_model"`
	ContextPrompt    string `toml:"context_prompt"`
	SummaryPrompt    string `toml:"summary_prompt"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxOutputTokens  int    `toml:"max_output_tokens"`
	TranscriptSlice  int    `toml:"transcript_slice_chars"`
	ContextMetaChars int    `toml:"context_metadata_chars"`
}

// Email contains configuration for the Resend API.
type Email struct {
	APIKey          string `toml:"api_key"`
	Sender          string `toml:"sender"`
	ReplyTo         string `toml:"reply_to"`
	OperatorAddress string `toml:"operator_address"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Retention contains configuration for artifact cleanup sweeps.
type Retention struct {
	ArchiveDays int `toml:"archive_days"`
	TextDays    int `toml:"text_days"`
}

// Feed describes a subscribed podcast feed.
type Feed struct {
	Slug          string   `toml:"slug"`
	Name          string   `toml:"name"`
	URL           string   `toml:"url"`
	Active        bool     `toml:"active"`
	Recipients    []string `toml:"recipients"`
	SummaryPrompt string   `toml:"summary_prompt"`
}

// Config encapsulates all configuration values for podsum.
//
// Configuration sections by subsystem:
//   - Paths: data directory, the three audio locations, text output, logs
//   - Limits: admission policy ceilings and run timing
//   - Transcriber: AssemblyAI connection settings
//   - LLM: chat completion settings for context and summary generation
//   - Email: Resend delivery settings
//   - Logging: log format, level, and retention
//   - Retention: archive and text cleanup windows
//   - Feeds: subscribed podcast feeds and their recipients
type Config struct {
	Paths       Paths       `toml:"paths"`
	Limits      Limits      `toml:"limits"`
	Transcriber Transcriber `toml:"transcriber"`
	LLM         LLM         `toml:"llm"`
	Email       Email       `toml:"email"`
	Logging     Logging     `toml:"logging"`
	Retention   Retention   `toml:"retention"`
	Feeds       []Feed      `toml:"feeds"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podsum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podsum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{
		c.Paths.DataDir,
		c.Paths.IncomingDir,
		c.Paths.ProcessingDir,
		c.Paths.ArchiveDir,
		c.Paths.TextDir,
		c.Paths.LogDir,
	} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FeedBySlug returns the configured feed with the given slug.
func (c *Config) FeedBySlug(slug string) (Feed, bool) {
	slug = strings.TrimSpace(slug)
	for _, feed := range c.Feeds {
		if feed.Slug == slug {
			return feed, true
		}
	}
	return Feed{}, false
}

// ActiveFeeds returns the feeds currently enabled for polling.
func (c *Config) ActiveFeeds() []Feed {
	active := make([]Feed, 0, len(c.Feeds))
	for _, feed := range c.Feeds {
		if feed.Active {
			active = append(active, feed)
		}
	}
	return active
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
