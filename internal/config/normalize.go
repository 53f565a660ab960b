package config

import "strings"

func (c *Config) normalize() error {
	pathFields := []*string{
		&c.Paths.DataDir,
		&c.Paths.IncomingDir,
		&c.Paths.ProcessingDir,
		&c.Paths.ArchiveDir,
		&c.Paths.TextDir,
		&c.Paths.LogDir,
	}
	for _, field := range pathFields {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = ""
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Transcriber.APIKey = strings.TrimSpace(c.Transcriber.APIKey)
	c.Transcriber.BaseURL = strings.TrimRight(strings.TrimSpace(c.Transcriber.BaseURL), "/")
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	c.LLM.ContextModel = strings.TrimSpace(c.LLM.ContextModel)
	c.LLM.SummaryModel = strings.TrimSpace(c.LLM.SummaryModel)
	c.Email.APIKey = strings.TrimSpace(c.Email.APIKey)
	c.Email.Sender = strings.TrimSpace(c.Email.Sender)
	c.Email.ReplyTo = strings.TrimSpace(c.Email.ReplyTo)
	c.Email.OperatorAddress = strings.TrimSpace(c.Email.OperatorAddress)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	for i := range c.Feeds {
		feed := &c.Feeds[i]
		feed.Slug = strings.ToLower(strings.TrimSpace(feed.Slug))
		feed.Name = strings.TrimSpace(feed.Name)
		feed.URL = strings.TrimSpace(feed.URL)
		feed.SummaryPrompt = strings.TrimSpace(feed.SummaryPrompt)
		recipients := make([]string, 0, len(feed.Recipients))
		for _, recipient := range feed.Recipients {
			recipient = strings.TrimSpace(recipient)
			if recipient != "" {
				recipients = append(recipients, recipient)
			}
		}
		feed.Recipients = recipients
	}

	return nil
}
