package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "banksia-api", cfg.AppName)
	assert.Equal(t, 3004, cfg.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 24*time.Hour, cfg.EmbeddingCacheTTL)
	assert.Equal(t, 15, cfg.LLMMaxConcurrency)

	thresholds, err := cfg.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, 0.40, thresholds.ManualReviewFloor)
	assert.Equal(t, 0.60, thresholds.VerificationFloor)
	assert.Equal(t, 0.85, thresholds.HighConfidenceFloor)
	assert.Equal(t, 0.95, thresholds.ExactMatchFloor)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("LLM_REVIEW_THRESHOLD", "0.65")
	t.Setenv("JOB_LOCK_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 0.65, cfg.LLMReviewThreshold)
	assert.Equal(t, 30*time.Minute, cfg.JobLockTTL)
}

func TestLoadRejectsThresholdsOutOfOrder(t *testing.T) {
	t.Setenv("MANUAL_REVIEW_THRESHOLD", "0.7")
	t.Setenv("LLM_REVIEW_THRESHOLD", "0.6")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds out of order")
}

func TestLoadRejectsInvalidFields(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogLevel")
}
