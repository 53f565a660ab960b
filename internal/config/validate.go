package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	return c.validateFeeds()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.data_dir":       c.Paths.DataDir,
		"paths.incoming_dir":   c.Paths.IncomingDir,
		"paths.processing_dir": c.Paths.ProcessingDir,
		"paths.archive_dir":    c.Paths.ArchiveDir,
		"paths.text_dir":       c.Paths.TextDir,
		"paths.log_dir":        c.Paths.LogDir,
	}
	keys := make([]string, 0, len(required))
	for key := range required {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	distinct := map[string]string{}
	for _, pair := range []struct{ key, dir string }{
		{"paths.incoming_dir", c.Paths.IncomingDir},
		{"paths.processing_dir", c.Paths.ProcessingDir},
		{"paths.archive_dir", c.Paths.ArchiveDir},
	} {
		if other, ok := distinct[pair.dir]; ok {
			return fmt.Errorf("%s and %s must not share a directory", other, pair.key)
		}
		distinct[pair.dir] = pair.key
	}
	return nil
}

func (c *Config) validateLimits() error {
	return ensurePositiveMap(map[string]int{
		"limits.candidates_per_poll":     c.Limits.CandidatesPerPoll,
		"limits.max_duration_minutes":    c.Limits.MaxDurationMinutes,
		"limits.max_audio_mb":            c.Limits.MaxAudioMB,
		"limits.max_episode_age_days":    c.Limits.MaxEpisodeAgeDays,
		"limits.poll_interval_minutes":   c.Limits.PollIntervalMinutes,
		"limits.transcribe_wait_minutes": c.Limits.TranscribeWaitMinutes,
		"limits.run_timeout_minutes":     c.Limits.RunTimeoutMinutes,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.ArchiveDays < 0 {
		return errors.New("retention.archive_days must not be negative")
	}
	if c.Retention.TextDays < 0 {
		return errors.New("retention.text_days must not be negative")
	}
	return nil
}

func (c *Config) validateEmail() error {
	if c.Email.APIKey == "" {
		// Delivery degrades to a dry-run mailer when unset.
		return nil
	}
	if c.Email.Sender == "" {
		return errors.New("email.sender must be set when email.api_key is configured")
	}
	if _, err := mail.ParseAddress(c.Email.Sender); err != nil {
		return fmt.Errorf("email.sender is not a valid address: %w", err)
	}
	if c.Email.ReplyTo != "" {
		if _, err := mail.ParseAddress(c.Email.ReplyTo); err != nil {
			return fmt.Errorf("email.reply_to is not a valid address: %w", err)
		}
	}
	if c.Email.OperatorAddress != "" {
		if _, err := mail.ParseAddress(c.Email.OperatorAddress); err != nil {
			return fmt.Errorf("email.operator_address is not a valid address: %w", err)
		}
	}
	if c.Email.TimeoutSeconds <= 0 {
		return errors.New("email.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFeeds() error {
	seen := map[string]struct{}{}
	for i, feed := range c.Feeds {
		if feed.Slug == "" {
			return fmt.Errorf("feeds[%d].slug must be set", i)
		}
		if _, ok := seen[feed.Slug]; ok {
			return fmt.Errorf("duplicate feed slug %q", feed.Slug)
		}
		seen[feed.Slug] = struct{}{}

		if feed.URL == "" {
			return fmt.Errorf("feed %q: url must be set", feed.Slug)
		}
		parsed, err := url.Parse(feed.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("feed %q: url %q is not absolute", feed.Slug, feed.URL)
		}
		if feed.Active && len(feed.Recipients) == 0 {
			return fmt.Errorf("feed %q: at least one recipient is required", feed.Slug)
		}
		for _, recipient := range feed.Recipients {
			if _, err := mail.ParseAddress(recipient); err != nil {
				return fmt.Errorf("feed %q: recipient %q is not a valid address: %w", feed.Slug, recipient, err)
			}
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
