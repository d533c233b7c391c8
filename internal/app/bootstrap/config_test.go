package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"APP_ENV", "STORAGE_DRIVER", "DB_URL", "POSTGRES_URL", "REDIS_URL", "KAFKA_BROKERS",
		"COMMISSION_PERCENT", "FEATURE_AUTO_WITHDRAWALS", "SWEEP_INTERVAL_SECONDS", "HTTP_PORT",
		"CURRENCY", "PAYMENTS_ENABLED", "RATE_LIMIT_RPS",
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
service:
  id: super-try-api
  http_port: 8181
storage:
  driver: postgres
dependencies:
  postgres_url: postgres://file/db
  kafka_brokers: [" kafka-1:9092 ", ""]
payments:
  commission_percent: "12.5"
workers:
  sweep_interval_seconds: 30
  auto_withdrawals: true
`)
	t.Setenv("DB_URL", "postgres://env/db")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("HTTP_PORT", "not-a-number")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, 8181, cfg.HTTPPort, "unparsable env keeps the file value")
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "12.5", cfg.CommissionPercent.String())
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.True(t, cfg.AutoWithdrawals)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 5, cfg.LoginMaxAttempts)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("FEATURE_AUTO_WITHDRAWALS", "yes")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.AutoWithdrawals)
	assert.Equal(t, "10", cfg.CommissionPercent.String())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		file string
	}{
		"postgres without url": {env: map[string]string{"STORAGE_DRIVER": "postgres"}},
		"unknown driver":       {env: map[string]string{"STORAGE_DRIVER": "sqlite"}},
		"commission too high":  {env: map[string]string{"STORAGE_DRIVER": "memory", "COMMISSION_PERCENT": "150"}},
		"commission garbage":   {env: map[string]string{"STORAGE_DRIVER": "memory", "COMMISSION_PERCENT": "ten"}},
		"broken yaml":          {file: "service: [unclosed"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tc.file != "" {
				path = writeConfig(t, tc.file)
			}
			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}
