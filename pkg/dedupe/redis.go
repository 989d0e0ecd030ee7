package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "ops-agent:processed:"

// RedisConfig holds the configuration for the Redis marker store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// TTL is the retention window for markers. It only needs to outlive the
	// queue's maximum redelivery horizon.
	TTL time.Duration
}

// RedisStore is a marker store backed by Redis, for deployments where more
// than one consumer process drains the same queue.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore connects and pings the Redis server before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		client: rdb,
		ttl:    cfg.TTL,
		logger: logger.With().Str("component", "RedisStore").Logger(),
	}, nil
}

// Seen checks for a marker.
func (s *RedisStore) Seen(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Mark stores a marker with the configured TTL.
func (s *RedisStore) Mark(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, keyPrefix+id, time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	s.logger.Info().Msg("Closing Redis client connection...")
	return s.client.Close()
}
