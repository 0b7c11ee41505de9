package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskpipe/internal/config"
	"github.com/phrazzld/taskpipe/internal/platform/logger"
	"github.com/phrazzld/taskpipe/internal/redact"
)

// loadAppConfig loads and validates configuration and installs the JSON
// logger as the default.
func loadAppConfig(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database", redact.URL(cfg.Database.URL),
		"broker", redact.URL(cfg.Broker.URL),
		"queue", cfg.Broker.Queue,
		"cache", cfg.Cache.Addr)
	return cfg, log, nil
}
