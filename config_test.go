package figmadl

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// TC001: Zero config is filled with production defaults
func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, http.DefaultTransport, cfg.Transport)
	assert.NotNil(t, cfg.Logger)

	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 50*time.Millisecond, cfg.RateLimit.SafetyMargin)

	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, time.Second, cfg.Retry.MaxJitter)
	assert.Equal(t, 2*time.Second, cfg.Retry.ThrottleDelayStep)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxThrottleDelay)

	assert.Equal(t, 2, cfg.Queue.Concurrency)
	assert.Equal(t, time.Second, cfg.Queue.Interval)

	assert.Equal(t, 5, cfg.Batch.Size)
}

// TC002: Batch cool-down defaults to twice the queue interval
func TestBatchConfig_CooldownDefault(t *testing.T) {
	cfg := Config{Queue: QueueConfig{Interval: 300 * time.Millisecond}}.withDefaults()
	assert.Equal(t, 600*time.Millisecond, cfg.Batch.Cooldown)

	cfg = Config{}.withDefaults()
	assert.Equal(t, 2*time.Second, cfg.Batch.Cooldown)
}

// TC003: Explicit values survive default application
func TestConfig_ExplicitValuesPreserved(t *testing.T) {
	logger := zap.NewNop()
	cfg := Config{
		BaseURL:   "https://example.com",
		Logger:    logger,
		RateLimit: RateLimitConfig{MaxRequests: 3, Window: time.Second, SafetyMargin: time.Millisecond},
		Retry:     RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxJitter: time.Millisecond, ThrottleDelayStep: time.Millisecond, MaxThrottleDelay: time.Millisecond},
		Queue:     QueueConfig{Concurrency: 4, Interval: time.Millisecond},
		Batch:     BatchConfig{Size: 2, Cooldown: time.Millisecond},
	}.withDefaults()

	assert.Equal(t, "https://example.com", cfg.BaseURL)
	assert.Same(t, logger, cfg.Logger)
	assert.Equal(t, 3, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
	assert.Equal(t, 4, cfg.Queue.Concurrency)
	assert.Equal(t, 2, cfg.Batch.Size)
	assert.Equal(t, time.Millisecond, cfg.Batch.Cooldown)
}

// TC004: Enabling the breaker without providing one installs the default
func TestConfig_CircuitBreakerDefault(t *testing.T) {
	cfg := Config{CircuitBreakerEnable: true}.withDefaults()
	assert.NotNil(t, cfg.CircuitBreaker)

	cfg = Config{}.withDefaults()
	assert.Nil(t, cfg.CircuitBreaker)
}
