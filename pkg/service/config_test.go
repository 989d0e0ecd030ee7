package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-ops-agent/pkg/service"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SQS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/1/ops-requests")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := service.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.AWSRegion)
	assert.Equal(t, int32(10), cfg.MaxMessages)
	assert.Equal(t, int32(20), cfg.WaitSeconds)
	assert.Equal(t, int32(300), cfg.VisibilitySeconds)
	assert.Equal(t, 5, cfg.MaxWorkers)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.SinkTimeout)
	assert.Equal(t, 24*time.Hour, cfg.DedupeTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_MissingQueueURLIsFatal(t *testing.T) {
	t.Setenv("SQS_QUEUE_URL", "")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	_, err := service.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("SQS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/1/ops-requests")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := service.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SQS_MAX_MESSAGES", "3")
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := service.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, int32(3), cfg.MaxMessages)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfig_RejectsOutOfRangeValues(t *testing.T) {
	cases := map[string][2]string{
		"batch above SQS limit": {"SQS_MAX_MESSAGES", "11"},
		"wait above SQS limit":  {"SQS_WAIT_TIME", "30"},
		"zero visibility":       {"SQS_VISIBILITY_TIMEOUT", "0"},
		"zero workers":          {"MAX_WORKERS", "0"},
		"zero poll interval":    {"POLL_INTERVAL", "0s"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := service.LoadConfig()
			assert.Error(t, err)
		})
	}
}
