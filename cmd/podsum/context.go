package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/umangjaipuria/podcast-summary/internal/config"
	"github.com/umangjaipuria/podcast-summary/internal/logging"
	"github.com/umangjaipuria/podcast-summary/internal/store"
	"github.com/umangjaipuria/podcast-summary/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// openStore opens the database alongside a config-derived logger. The caller
// owns closing the store.
func (c *commandContext) openStore() (*config.Config, *store.Store, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, st, logger, nil
}

func (c *commandContext) newManager() (*workflow.Manager, *store.Store, *config.Config, error) {
	cfg, st, logger, err := c.openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	return workflow.NewManager(cfg, st, logger), st, cfg, nil
}
