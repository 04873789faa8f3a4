package service

import (
	"log/slog"

	logmetrics "logdata/internal/logs/metrics"
)

const (
	DefaultSearchLimit = 100
	MaxSearchLimit     = 1000
)

type serviceConfig struct {
	logger       *slog.Logger
	metrics      *logmetrics.Metrics
	defaultLimit int
	maxLimit     int
}

type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithMetrics(m *logmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

// WithSearchLimits sets the limit applied when a search names none, and the
// ceiling for explicit limits. Non-positive values keep the defaults.
func WithSearchLimits(defaultLimit, maxLimit int) Option {
	return func(c *serviceConfig) {
		if defaultLimit > 0 {
			c.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			c.maxLimit = maxLimit
		}
	}
}

func newConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{
		logger:       slog.Default(),
		defaultLimit: DefaultSearchLimit,
		maxLimit:     MaxSearchLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxLimit < cfg.defaultLimit {
		cfg.maxLimit = cfg.defaultLimit
	}
	return cfg
}
