// Package providers contains dependency injection providers for the tillpoint tools.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/logger"
)

// ConfigProvider provides the application configuration parsed from args.
func ConfigProvider(args []string) do.Provider[*config.Config] {
	return func(do.Injector) (*config.Config, error) {
		return config.LoadConfig(args)
	}
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithFields(map[string]any{
		"environment":   cfg.App.Environment,
		"log_level":     cfg.Logger.Level,
		"store_backend": cfg.Store.Backend,
		"store_path":    cfg.Store.Path,
		"catalog_path":  cfg.Catalog.Path,
	}).Debug("Configuration loaded")

	return log, nil
}
