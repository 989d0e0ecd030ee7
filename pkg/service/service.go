package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/agent"
	"github.com/illmade-knight/go-ops-agent/pkg/dedupe"
	"github.com/illmade-knight/go-ops-agent/pkg/pipeline"
	"github.com/illmade-knight/go-ops-agent/pkg/queue"
	"github.com/illmade-knight/go-ops-agent/pkg/respond"
)

// Service owns the assembled pipeline and its lifecycle. Construction
// failures are fatal by design: the process must not enter its running state
// with a partially wired pipeline.
type Service struct {
	cfg      *Config
	logger   zerolog.Logger
	pipeline *pipeline.Service
	health   *HealthServer
	closers  []io.Closer
}

// New validates the configuration and constructs every collaborator: SQS
// source, marker store, LLM processor, response sinks, and the worker pool.
func New(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	source, err := queue.NewSQSSource(queue.SQSConfig{
		QueueURL:          cfg.QueueURL,
		MaxMessages:       cfg.MaxMessages,
		WaitSeconds:       cfg.WaitSeconds,
		VisibilitySeconds: cfg.VisibilitySeconds,
	}, sqs.NewFromConfig(awsCfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue source: %w", err)
	}

	svc := &Service{cfg: cfg, logger: logger}

	var markers pipeline.MarkerStore
	if cfg.RedisAddr != "" {
		redisStore, err := dedupe.NewRedisStore(ctx, &dedupe.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DedupeTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis marker store: %w", err)
		}
		svc.closers = append(svc.closers, redisStore)
		markers = redisStore
	} else {
		markers = dedupe.NewInMemoryStore(cfg.DedupeTTL)
	}

	processor, err := agent.NewLLMProcessor(agent.Config{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	// One outbound client shared by both sinks; its timeout bounds every
	// sink delivery call.
	sinkClient := &http.Client{Timeout: cfg.SinkTimeout}
	router, err := respond.NewRouter(
		respond.NewSlackResponder(sinkClient, logger),
		respond.NewWebhookCaller(sinkClient, logger),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response router: %w", err)
	}

	consumer, err := pipeline.NewConsumer(pipeline.ConsumerConfig{
		PollInterval: cfg.PollInterval,
	}, source, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	pool, err := pipeline.NewService(pipeline.ServiceConfig{
		NumWorkers: cfg.MaxWorkers,
	}, consumer, source, processor, router, markers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	svc.pipeline = pool
	svc.health = NewHealthServer(logger, cfg.HTTPPort)
	return svc, nil
}

// Run starts the service and blocks until ctx is cancelled, then drains.
// In-flight requests always complete: the drain has no deadline, because an
// executing request may already have taken external side effects whose
// outcome must still be routed.
func (s *Service) Run(ctx context.Context) error {
	if err := s.health.Start(); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	s.logger.Info().
		Str("queue_url", s.cfg.QueueURL).
		Int("max_workers", s.cfg.MaxWorkers).
		Dur("poll_interval", s.cfg.PollInterval).
		Msg("Service running.")

	<-ctx.Done()
	s.logger.Info().Msg("Shutdown signal received, draining...")
	return s.shutdown()
}

func (s *Service) shutdown() error {
	// Unbounded drain: completion wins over shutdown speed.
	drainErr := s.pipeline.Stop(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.SinkTimeout)
	defer cancel()
	if err := s.health.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Health server shutdown failed.")
	}

	for _, closer := range s.closers {
		if err := closer.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing resource.")
		}
	}

	s.logger.Info().Msg("Service stopped.")
	return drainErr
}
