package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/infrastructure/config"
)

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, config.FileEnvVar, "DATABASE_URL", "OPS_HTTP_PORT", "ACCRUAL_INTERVAL", "WITHDRAWAL_FEE_TON", "OUTBOX_STREAM", "OUTBOX_RETENTION", "REDIS_POOL_SIZE", "DATABASE_LOCK_TIMEOUT")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.OpsHTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.AccrualInterval)
	assert.Equal(t, "farmledger:events", cfg.OutboxStream)
	assert.True(t, cfg.WithdrawalFeeTON.IsZero())
	assert.Equal(t, 168*time.Hour, cfg.OutboxRetention)
	assert.Equal(t, 10, cfg.RedisPoolSize)
	assert.Equal(t, 5*time.Second, cfg.DatabaseLockTimeout)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t, config.FileEnvVar)
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("OPS_HTTP_PORT", "9191")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("DATABASE_LOCK_TIMEOUT", "0s")
	t.Setenv("ACCRUAL_BATCH_SIZE", "50")
	t.Setenv("WITHDRAWAL_FEE_TON", "0.05")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://example", cfg.DatabaseURL)
	assert.Equal(t, "redis://example", cfg.RedisURL)
	assert.Equal(t, "9191", cfg.OpsHTTPPort)
	assert.Equal(t, 45*time.Second, cfg.DatabaseTimeout)
	assert.Zero(t, cfg.DatabaseLockTimeout)
	assert.Equal(t, 50, cfg.AccrualBatchSize)
	assert.True(t, cfg.WithdrawalFeeTON.Equal(decimal.RequireFromString("0.05")))
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farmledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://from-file
accrual_interval: 1m
accrual_concurrency: 3
outbox_stream: file-stream
`), 0o600))

	t.Setenv(config.FileEnvVar, path)
	clearEnv(t, "DATABASE_URL", "ACCRUAL_INTERVAL", "ACCRUAL_CONCURRENCY")
	t.Setenv("OUTBOX_STREAM", "env-stream")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://from-file", cfg.DatabaseURL)
	assert.Equal(t, time.Minute, cfg.AccrualInterval)
	assert.Equal(t, 3, cfg.AccrualConcurrency)
	assert.Equal(t, "env-stream", cfg.OutboxStream)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid duration", "HTTP_READ_TIMEOUT", "not-a-duration"},
		{"invalid decimal", "WITHDRAWAL_FEE_TON", "lots"},
		{"negative fee", "WITHDRAWAL_FEE_TON", "-1"},
		{"zero interval", "ACCRUAL_INTERVAL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, config.FileEnvVar)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(config.FileEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeLockTimeout(t *testing.T) {
	clearEnv(t, config.FileEnvVar)
	t.Setenv("DATABASE_LOCK_TIMEOUT", "-1s")

	_, err := config.Load()
	require.ErrorContains(t, err, "DATABASE_LOCK_TIMEOUT")
}
