package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittometa/internal/logger"
	"github.com/marmos91/dittometa/pkg/config"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the configuration once and configures the logger from it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		level := cfg.Logging.Level
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			level = *c.logLevelFlag
		}
		if err := logger.Configure(level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStores opens the stores for the duration of fn. When metrics are
// enabled the metrics server runs alongside.
func (c *commandContext) withStores(cmd *cobra.Command, fn func(*config.Stores) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	m := config.InitializeMetrics(cfg)
	if m.Server != nil {
		serverDone := make(chan struct{})
		go func() {
			defer close(serverDone)
			if err := m.Server.Start(ctx); err != nil {
				logger.Warn("Metrics server: %v", err)
			}
		}()
		defer func() {
			cancel()
			<-serverDone
		}()
	}

	stores, err := config.OpenStores(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, stores.Close())
	}()

	return fn(stores)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
