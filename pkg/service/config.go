// Package service wires configuration, the queue source, the processor, the
// response sinks, and the worker pool into one runnable unit and owns its
// lifecycle: start, run, drain, stop.
package service

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the environment-variable surface, consumed once at startup. A
// missing required key or an out-of-range value is a fatal startup error.
type Config struct {
	QueueURL  string `env:"SQS_QUEUE_URL,required,notEmpty"`
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`

	MaxMessages       int32 `env:"SQS_MAX_MESSAGES" envDefault:"10"`
	WaitSeconds       int32 `env:"SQS_WAIT_TIME" envDefault:"20"`
	VisibilitySeconds int32 `env:"SQS_VISIBILITY_TIMEOUT" envDefault:"300"`

	MaxWorkers   int           `env:"MAX_WORKERS" envDefault:"5"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY,required,notEmpty"`
	Model           string `env:"ANTHROPIC_MODEL"`
	MaxTokens       int64  `env:"ANTHROPIC_MAX_TOKENS" envDefault:"4096"`

	// RedisAddr switches the redelivery guard to Redis; empty keeps the
	// process-local in-memory store.
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	DedupeTTL     time.Duration `env:"DEDUPE_TTL" envDefault:"24h"`

	SinkTimeout time.Duration `env:"SINK_TIMEOUT" envDefault:"30s"`
	HTTPPort    string        `env:"HTTP_PORT" envDefault:":8080"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges the queue protocol and pool require.
func (c *Config) Validate() error {
	if c.MaxMessages < 1 || c.MaxMessages > 10 {
		return fmt.Errorf("SQS_MAX_MESSAGES must be between 1 and 10, got %d", c.MaxMessages)
	}
	if c.WaitSeconds < 0 || c.WaitSeconds > 20 {
		return fmt.Errorf("SQS_WAIT_TIME must be between 0 and 20, got %d", c.WaitSeconds)
	}
	if c.VisibilitySeconds <= 0 {
		return fmt.Errorf("SQS_VISIBILITY_TIMEOUT must be positive, got %d", c.VisibilitySeconds)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	return nil
}
