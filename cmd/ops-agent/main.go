// The ops-agent binary consumes operation requests from an SQS queue, runs
// them through an LLM-backed operations processor, and routes each result to
// its callback webhook or Slack response URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := service.LoadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration.")
		return 1
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown log level, keeping default.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to construct service.")
		return 1
	}

	if err := svc.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Service exited with error.")
		return 1
	}
	return 0
}
