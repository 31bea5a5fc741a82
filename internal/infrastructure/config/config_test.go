package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "billing", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.Equal(t, LockBackendPostgres, cfg.Numbering.LockBackend)
		assert.Equal(t, LockPolicyProceed, cfg.Numbering.LockFailurePolicy)
		assert.Equal(t, 5*time.Second, cfg.Numbering.LockWait)
		assert.Equal(t, 4, cfg.Numbering.LockPoolSize)
		assert.Equal(t, 200*time.Millisecond, cfg.Database.SlowQueryThreshold)
		assert.False(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, "info", cfg.Telemetry.LogsLevel)
		assert.False(t, cfg.Profiling.Enabled)
		assert.Equal(t, "billing", cfg.Profiling.ApplicationName)

		assert.Equal(t, "AT", cfg.Tax.HomeCountry)
		assert.True(t, cfg.Tax.StandardRate.Equal(decimal.NewFromInt(20)))
		assert.Equal(t, 14, cfg.Invoice.PaymentTermDays)

		assert.Equal(t, 5, cfg.Dunning.ReminderDays)
		assert.Equal(t, 14, cfg.Dunning.FirstNoticeDays)
		assert.Equal(t, 30, cfg.Dunning.FinalNoticeDays)
		assert.Equal(t, 45, cfg.Dunning.CollectionWarningDays)
		assert.True(t, cfg.Dunning.FeeFirst.IsZero())
		assert.False(t, cfg.Dunning.InterestEnabled)

		assert.Equal(t, 6, cfg.Scheduler.SweepHour)
		assert.Equal(t, "memory", cfg.Idempotency.Backend)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	})

	t.Run("loads values from environment variables with BILLING prefix", func(t *testing.T) {
		t.Setenv("BILLING_APP_NAME", "test-app")
		t.Setenv("BILLING_APP_PORT", "9000")
		t.Setenv("BILLING_DATABASE_HOST", "testdb.local")
		t.Setenv("BILLING_DATABASE_PORT", "5433")
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("BILLING_NUMBERING_LOCK_BACKEND", "redis")
		t.Setenv("BILLING_NUMBERING_LOCK_FAILURE_POLICY", "fail")
		t.Setenv("BILLING_TAX_HOME_COUNTRY", "de")
		t.Setenv("BILLING_TAX_STANDARD_RATE", "19")
		t.Setenv("BILLING_DUNNING_FEE_FIRST", "5.00")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, LockBackendRedis, cfg.Numbering.LockBackend)
		assert.Equal(t, LockPolicyFail, cfg.Numbering.LockFailurePolicy)
		assert.Equal(t, "DE", cfg.Tax.HomeCountry)
		assert.True(t, cfg.Tax.StandardRate.Equal(decimal.NewFromInt(19)))
		assert.True(t, cfg.Dunning.FeeFirst.Equal(decimal.NewFromInt(5)))
		assert.True(t, cfg.Dunning.Policy().ChargesConfigured())
	})

	t.Run("reads a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "billing.toml")
		content := `
[invoice]
payment_term_days = 30

[dunning]
reminder_days = 0
first_notice_days = 10
final_notice_days = 20
collection_warning_days = 40
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.Invoice.PaymentTermDays)
		assert.Equal(t, 0, cfg.Dunning.ReminderDays)
		assert.Equal(t, 10, cfg.Dunning.FirstNoticeDays)
		assert.Equal(t, 40, cfg.Dunning.CollectionWarningDays)
	})

	t.Run("reads observability and lock pool settings", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "billing.toml")
		content := `
[database]
slow_query_threshold = "0s"

[numbering]
lock_pool_size = 2

[telemetry]
logs_enabled = true
logs_level = "warn"

[profiling]
enabled = true
server_address = "http://pyroscope:4040"
application_name = "billing-eu"
profile_types = ["cpu", "goroutines"]
span_profiles = true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), cfg.Database.SlowQueryThreshold)
		assert.Equal(t, 2, cfg.Numbering.LockPoolSize)
		assert.True(t, cfg.Telemetry.LogsEnabled)
		assert.Equal(t, "warn", cfg.Telemetry.LogsLevel)
		assert.True(t, cfg.Profiling.Enabled)
		assert.Equal(t, "http://pyroscope:4040", cfg.Profiling.ServerAddress)
		assert.Equal(t, "billing-eu", cfg.Profiling.ApplicationName)
		assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Profiling.ProfileTypes)
		assert.True(t, cfg.Profiling.SpanProfiles)
	})

	t.Run("profiling needs a server address", func(t *testing.T) {
		t.Setenv("BILLING_PROFILING_ENABLED", "true")
		t.Setenv("BILLING_PROFILING_SERVER_ADDRESS", "")
		_, err := Load()
		assert.ErrorContains(t, err, "profiling.server_address")
	})

	t.Run("rejects negative lock pool size", func(t *testing.T) {
		t.Setenv("BILLING_NUMBERING_LOCK_POOL_SIZE", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "lock_pool_size")
	})

	t.Run("rejects negative slow query threshold", func(t *testing.T) {
		t.Setenv("BILLING_DATABASE_SLOW_QUERY_THRESHOLD", "-1s")
		_, err := Load()
		assert.ErrorContains(t, err, "slow_query_threshold")
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("rejects unknown lock backend", func(t *testing.T) {
		t.Setenv("BILLING_NUMBERING_LOCK_BACKEND", "zookeeper")
		_, err := Load()
		assert.ErrorContains(t, err, "lock_backend")
	})

	t.Run("rejects unknown failure policy", func(t *testing.T) {
		t.Setenv("BILLING_NUMBERING_LOCK_FAILURE_POLICY", "maybe")
		_, err := Load()
		assert.ErrorContains(t, err, "lock_failure_policy")
	})

	t.Run("rejects non-increasing dunning thresholds", func(t *testing.T) {
		t.Setenv("BILLING_DUNNING_FINAL_NOTICE_DAYS", "10")
		_, err := Load()
		assert.ErrorContains(t, err, "dunning thresholds")
	})

	t.Run("rejects malformed fee", func(t *testing.T) {
		t.Setenv("BILLING_DUNNING_FEE_FINAL", "ten")
		_, err := Load()
		assert.ErrorContains(t, err, "dunning.fee_final")
	})

	t.Run("validates max_idle_conns does not exceed max_open_conns", func(t *testing.T) {
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "20")
		_, err := Load()
		assert.ErrorContains(t, err, "max_idle_conns")
	})

	t.Run("production forbids memory locks", func(t *testing.T) {
		t.Setenv("BILLING_APP_ENV", "production")
		t.Setenv("BILLING_DATABASE_PASSWORD", "secret")
		t.Setenv("BILLING_DATABASE_SSLMODE", "require")
		t.Setenv("BILLING_NUMBERING_LOCK_BACKEND", "memory")
		_, err := Load()
		assert.ErrorContains(t, err, "single-process")
	})

	t.Run("production requires database password", func(t *testing.T) {
		t.Setenv("BILLING_APP_ENV", "production")
		t.Setenv("BILLING_DATABASE_SSLMODE", "require")
		_, err := Load()
		assert.ErrorContains(t, err, "database.password")
	})
}

func TestDunningConfig_Policy(t *testing.T) {
	cfg := DunningConfig{ReminderDays: 3, FirstNoticeDays: 10, FinalNoticeDays: 20, CollectionWarningDays: 40}
	policy := cfg.Policy()
	assert.Equal(t, 3, policy.ReminderDays)
	assert.Equal(t, 40, policy.CollectionWarningDays)
	assert.NoError(t, policy.Validate())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss word", DBName: "billing", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%20word@db:5432/billing?sslmode=disable", d.DSN())
}
