// Package config loads process configuration from an optional .env file and
// LOGDATA_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "LOGDATA_"

// DevRegistrationSecret is used only when Env is "dev" and no secret is set.
const DevRegistrationSecret = "dev-registration-secret-change-in-production"

// Server captures process-level configuration. Sub-configs are flattened so
// every key maps to a single LOGDATA_<KEY> variable.
type Server struct {
	Env             string        `koanf:"env" validate:"oneof=dev test prod"`
	Addr            string        `koanf:"addr" validate:"required"`
	MetricsAddr     string        `koanf:"metrics_addr"`
	LogLevel        string        `koanf:"log_level" validate:"oneof=debug info warn error"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	BodyLimitBytes  int64         `koanf:"body_limit_bytes" validate:"gt=0"`
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string `koanf:"trusted_proxies"`

	Registration RegistrationConfig `koanf:",squash"`
	Database     DatabaseConfig     `koanf:",squash"`
	Redis        RedisConfig        `koanf:",squash"`
	Kafka        KafkaConfig        `koanf:",squash"`
	SMTP         SMTPConfig         `koanf:",squash"`
	Alerting     AlertingConfig     `koanf:",squash"`
	Search       SearchConfig       `koanf:",squash"`
	RateLimit    RateLimitConfig    `koanf:",squash"`
}

type RegistrationConfig struct {
	Secret   string        `koanf:"registration_secret"`
	TokenTTL time.Duration `koanf:"registration_token_ttl" validate:"gt=0"`
}

// DatabaseConfig selects Postgres storage when URL is set; otherwise stores are in-memory.
type DatabaseConfig struct {
	URL             string        `koanf:"database_url"`
	MaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
}

// RedisConfig enables the tenant public key cache when URL is set.
type RedisConfig struct {
	URL          string        `koanf:"redis_url"`
	KeyCacheTTL  time.Duration `koanf:"key_cache_ttl" validate:"gt=0"`
	PoolSize     int           `koanf:"redis_pool_size" validate:"gt=0"`
	MinIdleConns int           `koanf:"redis_min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `koanf:"redis_dial_timeout"`
	ReadTimeout  time.Duration `koanf:"redis_read_timeout"`
	WriteTimeout time.Duration `koanf:"redis_write_timeout"`
}

// KafkaConfig enables publishing alert notifications when Brokers is set.
type KafkaConfig struct {
	Brokers    []string `koanf:"kafka_brokers"`
	AlertTopic string   `koanf:"kafka_alert_topic"`
	Acks       string   `koanf:"kafka_acks" validate:"oneof=0 1 all"`
}

// SMTPConfig enables email delivery when Host is set.
type SMTPConfig struct {
	Host     string `koanf:"smtp_host"`
	Port     int    `koanf:"smtp_port" validate:"gt=0"`
	Username string `koanf:"smtp_username"`
	Password string `koanf:"smtp_password"`
	From     string `koanf:"smtp_from" validate:"required,email"`
}

type AlertingConfig struct {
	Timeout time.Duration `koanf:"alert_timeout" validate:"gt=0"`
}

type SearchConfig struct {
	DefaultLimit int `koanf:"search_default_limit" validate:"gt=0"`
	MaxLimit     int `koanf:"search_max_limit" validate:"gtefield=DefaultLimit"`
}

// RateLimitConfig throttles registration requests per client IP. A zero
// limit disables throttling.
type RateLimitConfig struct {
	RegistrationLimit  int           `koanf:"registration_rate_limit" validate:"gte=0"`
	RegistrationWindow time.Duration `koanf:"registration_rate_window" validate:"gt=0"`
	BreakerCooldown    time.Duration `koanf:"rate_limit_breaker_cooldown" validate:"gt=0"`
}

// Default returns the configuration used when no variables are set.
func Default() Server {
	return Server{
		Env:             "dev",
		Addr:            ":8080",
		MetricsAddr:     ":9090",
		LogLevel:        "info",
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		BodyLimitBytes:  1 << 20,
		Registration: RegistrationConfig{
			TokenTTL: 15 * time.Minute,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			KeyCacheTTL:  5 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			AlertTopic: "logdata.alerts",
			Acks:       "all",
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "alerts@logdata.local",
		},
		Alerting: AlertingConfig{Timeout: 5 * time.Second},
		Search:   SearchConfig{DefaultLimit: 100, MaxLimit: 1000},
		RateLimit: RateLimitConfig{
			RegistrationLimit:  5,
			RegistrationWindow: time.Hour,
			BreakerCooldown:    5 * time.Second,
		},
	}
}

// Load reads .env (if present) into the process environment, then overlays
// LOGDATA_ variables on the defaults and validates the result.
func Load() (*Server, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Server, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)
	cfg.TrustedProxies = compact(cfg.TrustedProxies)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Server) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Registration.Secret == "" {
		if !c.IsDev() {
			return errors.New("invalid config: LOGDATA_REGISTRATION_SECRET is required outside dev")
		}
		c.Registration.Secret = DevRegistrationSecret
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AlertTopic == "" {
		return errors.New("invalid config: LOGDATA_KAFKA_ALERT_TOPIC is required when brokers are set")
	}
	return nil
}

// IsDev reports whether the process runs in local development mode.
func (c *Server) IsDev() bool {
	return c.Env == "dev"
}

// compact splits comma-separated entries and drops blanks, since a single
// env value may arrive as one slice element.
func compact(ss []string) []string {
	var out []string
	for _, s := range ss {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
