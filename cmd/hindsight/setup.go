package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/openquant/hindsight/internal/config"
	"github.com/openquant/hindsight/internal/logger"
)

// loadConfig builds the validated configuration and logger shared by all
// subcommands.
func loadConfig() (*config.Config, *zap.Logger, error) {
	log := logger.Must(debug)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, log, nil
}
