// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend names accepted by STORE and SESSION_STORE.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds every setting the API server reads at startup.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	TLSCert  string `envconfig:"TLS_CERT"`
	TLSKey   string `envconfig:"TLS_KEY"`

	Store       string `envconfig:"STORE" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	SessionStore string        `envconfig:"SESSION_STORE" default:"memory"`
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"1h"`

	AMQPURL   string `envconfig:"AMQP_URL"`
	AMQPQueue string `envconfig:"AMQP_QUEUE" default:"order_events"`

	OTELHost        string  `envconfig:"OTEL_HOST"`
	OTELStdout      bool    `envconfig:"OTEL_STDOUT"`
	OTELProbability float64 `envconfig:"OTEL_PROBABILITY" default:"1.0"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	TransitionPolicy string `envconfig:"ORDER_TRANSITION_POLICY" default:"permissive"`

	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"Admin User"`
}

// Load reads the environment and validates the combination of settings.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend selections and their required companions.
func (c *Config) Validate() error {
	switch c.Store {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}

	switch c.SessionStore {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
