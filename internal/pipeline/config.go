package pipeline

import (
	"log/slog"

	"filmatlas/internal/config"
	"filmatlas/internal/services"
	"filmatlas/internal/tmdb"
)

// OptionsFromConfig maps the [pipeline] section onto Options. A configured
// delay of zero disables the inter-batch wait.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	delay := cfg.BatchDelay()
	if delay == 0 {
		delay = -1
	}
	return Options{
		BatchSize:  cfg.Pipeline.BatchSize,
		BatchDelay: delay,
		Logger:     logger,
	}
}

// NewFromConfig wires a TMDB-backed pipeline. A missing credential fails
// here, before any record is looked up.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if err := cfg.RequireTMDB(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "configure", "", err)
	}
	client, err := tmdb.New(cfg.TMDB.APIToken, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBRequestTimeout()),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
	)
	if err != nil {
		return nil, err
	}
	return New(NewCatalogLookup(client, cfg.TMDB.ImageBaseURL), OptionsFromConfig(cfg, logger)), nil
}
