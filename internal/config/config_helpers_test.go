package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  int
	}{
		{"unset uses default", nil, 42},
		{"valid", ptr("100"), 100},
		{"negative", ptr("-10"), -10},
		{"zero", ptr("0"), 0},
		{"not a number", ptr("many"), 42},
		{"float", ptr("42.5"), 42},
		{"empty", ptr(""), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_INT_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsInt("TEST_INT_VAR", 42))
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		want  time.Duration
	}{
		{"unset uses default", nil, 7 * 24 * time.Hour},
		{"hours", ptr("24h"), 24 * time.Hour},
		{"compound", ptr("1h30m"), 90 * time.Minute},
		{"milliseconds", ptr("500ms"), 500 * time.Millisecond},
		{"bare number is invalid", ptr("30"), 7 * 24 * time.Hour},
		{"garbage", ptr("a week"), 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setOrUnset(t, "TEST_DURATION_VAR", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_DURATION_VAR", DefaultWebhookTTL))
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT_VAR", "2.5")
	assert.InDelta(t, 2.5, getEnvAsFloat("TEST_FLOAT_VAR", 1), 0.0001)

	t.Setenv("TEST_FLOAT_VAR", "fast")
	assert.InDelta(t, 1.0, getEnvAsFloat("TEST_FLOAT_VAR", 1), 0.0001)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, splitList(" 10.0.0.1, ,10.0.0.2 "))
}

func TestLoad_PoolAndWorkerConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns)
		assert.Equal(t, DefaultDBMaxConnIdleTime, cfg.DBMaxConnIdleTime)
		assert.Equal(t, DefaultDBMaxConnLifetime, cfg.DBMaxConnLifetime)
		assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
		assert.Equal(t, DefaultWorkerQueueSize, cfg.WorkerQueueSize)
		assert.Equal(t, DefaultEventMaxRetries, cfg.EventMaxRetries)
		assert.Equal(t, DefaultDeadLetterPath, cfg.DeadLetterPath)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		clearEnvVars(t)
		t.Setenv("API_KEY", "test-key")
		t.Setenv("DB_MAX_CONNS", "not-a-number")
		t.Setenv("DB_MAX_CONN_IDLE_TIME", "invalid")
		t.Setenv("DB_MAX_CONN_LIFETIME", "1h")
		t.Setenv("WORKER_COUNT", "eight")
		t.Setenv("EVENT_RETRY_DELAY", "500ms")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns)
		assert.Equal(t, DefaultDBMaxConnIdleTime, cfg.DBMaxConnIdleTime)
		assert.Equal(t, time.Hour, cfg.DBMaxConnLifetime)
		assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
		assert.Equal(t, 500*time.Millisecond, cfg.EventRetryDelay)
	})
}

func ptr(s string) *string { return &s }

// setOrUnset sets key to *value, or removes it for the test when value is nil
func setOrUnset(t *testing.T, key string, value *string) {
	t.Helper()
	t.Setenv(key, "")
	if value == nil {
		require.NoError(t, os.Unsetenv(key))
		return
	}
	t.Setenv(key, *value)
}
