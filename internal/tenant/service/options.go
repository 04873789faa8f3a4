package service

import (
	"log/slog"

	tenantmetrics "logdata/internal/tenant/metrics"
)

// serviceConfig holds optional dependencies for services.
type serviceConfig struct {
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
}

// Option configures a service.
type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

func newConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}
