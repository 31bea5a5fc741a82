package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/erp/billing/internal/domain/finance"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Numbering   NumberingConfig
	Tax         TaxConfig
	Invoice     InvoiceConfig
	Dunning     DunningConfig
	Scheduler   SchedulerConfig
	Idempotency IdempotencyConfig
	Telemetry   TelemetryConfig
	Profiling   ProfilingConfig
	Company     CompanyConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes

	// SlowQueryThreshold logs statements that take longer as warnings; zero disables
	SlowQueryThreshold time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// Lock backends for document numbering
const (
	LockBackendPostgres = "postgres"
	LockBackendRedis    = "redis"
	LockBackendMemory   = "memory"
)

// Lock failure policies
const (
	LockPolicyProceed = "proceed"
	LockPolicyFail    = "fail"
)

// NumberingConfig controls the document number allocator
type NumberingConfig struct {
	LockBackend       string        // postgres, redis, memory
	LockWait          time.Duration // how long to wait for the sequence lock
	LockTTL           time.Duration // redis lock expiry, guards against crashed holders
	LockFailurePolicy string        // proceed or fail
	LockPoolSize      int           // postgres: connections reserved for held advisory locks
}

// TaxConfig holds the home country and standard VAT rate
type TaxConfig struct {
	HomeCountry  string
	StandardRate decimal.Decimal
}

// InvoiceConfig holds invoice defaults
type InvoiceConfig struct {
	PaymentTermDays int
}

// DunningConfig holds the escalation thresholds in days overdue
type DunningConfig struct {
	ReminderDays          int
	FirstNoticeDays       int
	FinalNoticeDays       int
	CollectionWarningDays int
	FeeFirst              decimal.Decimal
	FeeFinal              decimal.Decimal
	InterestEnabled       bool
}

// Policy converts the configured thresholds into the domain escalation policy
func (d DunningConfig) Policy() finance.DunningPolicy {
	return finance.DunningPolicy{
		ReminderDays:          d.ReminderDays,
		FirstNoticeDays:       d.FirstNoticeDays,
		FinalNoticeDays:       d.FinalNoticeDays,
		CollectionWarningDays: d.CollectionWarningDays,
		FeeFirst:              d.FeeFirst,
		FeeFinal:              d.FeeFinal,
		InterestEnabled:       d.InterestEnabled,
	}
}

// SchedulerConfig holds the daily dunning sweep configuration
type SchedulerConfig struct {
	Enabled           bool
	SweepHour         int
	SweepMinute       int
	CheckInterval     time.Duration
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// IdempotencyConfig controls the Idempotency-Key guard on conversion endpoints
type IdempotencyConfig struct {
	Enabled bool
	Backend string // redis or memory
	TTL     time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	DBTraceEnabled    bool    // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool    // Log full SQL statements (dev only)
	LogsEnabled       bool    // Ship zap entries to the collector as OTLP logs
	LogsLevel         string  // Minimum level shipped (debug, info, warn, error)
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string
	SpanProfiles      bool // label CPU samples with the active trace span
}

// CompanyConfig is the letterhead printed on documents
type CompanyConfig struct {
	Name        string
	AddressLine string
	VATNumber   string
	IBAN        string
	Footer      string
}

// Load loads configuration from config.toml in the usual locations and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with BILLING_ prefix (e.g., BILLING_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/billing")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("BILLING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	standardRate, err := decimalSetting(v, "tax.standard_rate")
	if err != nil {
		return nil, err
	}
	feeFirst, err := decimalSetting(v, "dunning.fee_first")
	if err != nil {
		return nil, err
	}
	feeFinal, err := decimalSetting(v, "dunning.fee_final")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("database.host"),
			Port:               v.GetInt("database.port"),
			User:               v.GetString("database.user"),
			Password:           v.GetString("database.password"),
			DBName:             v.GetString("database.dbname"),
			SSLMode:            v.GetString("database.sslmode"),
			MaxOpenConns:       v.GetInt("database.max_open_conns"),
			MaxIdleConns:       v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime:    v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime:    v.GetInt("database.conn_max_idle_time"),
			SlowQueryThreshold: v.GetDuration("database.slow_query_threshold"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Numbering: NumberingConfig{
			LockBackend:       v.GetString("numbering.lock_backend"),
			LockWait:          v.GetDuration("numbering.lock_wait"),
			LockTTL:           v.GetDuration("numbering.lock_ttl"),
			LockFailurePolicy: v.GetString("numbering.lock_failure_policy"),
			LockPoolSize:      v.GetInt("numbering.lock_pool_size"),
		},
		Tax: TaxConfig{
			HomeCountry:  strings.ToUpper(v.GetString("tax.home_country")),
			StandardRate: standardRate,
		},
		Invoice: InvoiceConfig{
			PaymentTermDays: v.GetInt("invoice.payment_term_days"),
		},
		Dunning: DunningConfig{
			ReminderDays:          v.GetInt("dunning.reminder_days"),
			FirstNoticeDays:       v.GetInt("dunning.first_notice_days"),
			FinalNoticeDays:       v.GetInt("dunning.final_notice_days"),
			CollectionWarningDays: v.GetInt("dunning.collection_warning_days"),
			FeeFirst:              feeFirst,
			FeeFinal:              feeFinal,
			InterestEnabled:       v.GetBool("dunning.interest_enabled"),
		},
		Scheduler: SchedulerConfig{
			Enabled:           v.GetBool("scheduler.enabled"),
			SweepHour:         v.GetInt("scheduler.sweep_hour"),
			SweepMinute:       v.GetInt("scheduler.sweep_minute"),
			CheckInterval:     v.GetDuration("scheduler.check_interval"),
			MaxConcurrentJobs: v.GetInt("scheduler.max_concurrent_jobs"),
			JobTimeout:        v.GetDuration("scheduler.job_timeout"),
			RetryAttempts:     v.GetInt("scheduler.retry_attempts"),
			RetryDelay:        v.GetDuration("scheduler.retry_delay"),
		},
		Idempotency: IdempotencyConfig{
			Enabled: v.GetBool("idempotency.enabled"),
			Backend: v.GetString("idempotency.backend"),
			TTL:     v.GetDuration("idempotency.ttl"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogsLevel:         v.GetString("telemetry.logs_level"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
		Company: CompanyConfig{
			Name:        v.GetString("company.name"),
			AddressLine: v.GetString("company.address_line"),
			VATNumber:   v.GetString("company.vat_number"),
			IBAN:        v.GetString("company.iban"),
			Footer:      v.GetString("company.footer"),
		},
	}

	// The dunning thresholds default as a group; a zero day count is legitimate for the reminder.
	if !v.IsSet("dunning.reminder_days") {
		cfg.Dunning.ReminderDays = 5
	}
	// Zero turns slow query logging off, so only an absent key gets the default.
	if !v.IsSet("database.slow_query_threshold") {
		cfg.Database.SlowQueryThreshold = 200 * time.Millisecond
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decimalSetting(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", key, raw)
	}
	return d, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "billing"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "billing"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	// CORS origins have no "*" fallback. An empty list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "Idempotency-Key"}
	}
	if cfg.Numbering.LockBackend == "" {
		cfg.Numbering.LockBackend = LockBackendPostgres
	}
	if cfg.Numbering.LockWait == 0 {
		cfg.Numbering.LockWait = 5 * time.Second
	}
	if cfg.Numbering.LockTTL == 0 {
		cfg.Numbering.LockTTL = 30 * time.Second
	}
	if cfg.Numbering.LockPoolSize == 0 {
		cfg.Numbering.LockPoolSize = 4
	}
	if cfg.Numbering.LockFailurePolicy == "" {
		cfg.Numbering.LockFailurePolicy = LockPolicyProceed
	}
	if cfg.Tax.HomeCountry == "" {
		cfg.Tax.HomeCountry = "AT"
	}
	if cfg.Tax.StandardRate.IsZero() {
		cfg.Tax.StandardRate = decimal.NewFromInt(20)
	}
	if cfg.Invoice.PaymentTermDays == 0 {
		cfg.Invoice.PaymentTermDays = 14
	}
	if cfg.Dunning.FirstNoticeDays == 0 {
		cfg.Dunning.FirstNoticeDays = 14
	}
	if cfg.Dunning.FinalNoticeDays == 0 {
		cfg.Dunning.FinalNoticeDays = 30
	}
	if cfg.Dunning.CollectionWarningDays == 0 {
		cfg.Dunning.CollectionWarningDays = 45
	}
	if cfg.Scheduler.SweepHour == 0 && cfg.Scheduler.SweepMinute == 0 {
		cfg.Scheduler.SweepHour = 6
	}
	if cfg.Scheduler.CheckInterval == 0 {
		cfg.Scheduler.CheckInterval = time.Minute
	}
	if cfg.Scheduler.MaxConcurrentJobs == 0 {
		cfg.Scheduler.MaxConcurrentJobs = 1
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 30 * time.Minute
	}
	if cfg.Scheduler.RetryAttempts == 0 {
		cfg.Scheduler.RetryAttempts = 3
	}
	if cfg.Scheduler.RetryDelay == 0 {
		cfg.Scheduler.RetryDelay = 5 * time.Minute
	}
	if cfg.Idempotency.Backend == "" {
		cfg.Idempotency.Backend = "memory"
	}
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = 24 * time.Hour
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "billing"
	}
	if cfg.Telemetry.LogsLevel == "" {
		cfg.Telemetry.LogsLevel = "info"
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if cfg.Company.Name == "" {
		cfg.Company.Name = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.SlowQueryThreshold < 0 {
		return fmt.Errorf("database.slow_query_threshold cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Numbering.LockBackend {
	case LockBackendPostgres, LockBackendRedis, LockBackendMemory:
	default:
		return fmt.Errorf("numbering.lock_backend must be postgres, redis or memory, got %q", c.Numbering.LockBackend)
	}
	switch c.Numbering.LockFailurePolicy {
	case LockPolicyProceed, LockPolicyFail:
	default:
		return fmt.Errorf("numbering.lock_failure_policy must be proceed or fail, got %q", c.Numbering.LockFailurePolicy)
	}
	if c.Numbering.LockPoolSize < 0 {
		return fmt.Errorf("numbering.lock_pool_size cannot be negative")
	}
	if c.Numbering.LockWait < 0 {
		return fmt.Errorf("numbering.lock_wait cannot be negative")
	}

	if len(c.Tax.HomeCountry) != 2 {
		return fmt.Errorf("tax.home_country must be a two-letter country code, got %q", c.Tax.HomeCountry)
	}
	if c.Tax.StandardRate.IsNegative() || c.Tax.StandardRate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("tax.standard_rate must be between 0 and 100")
	}
	if c.Invoice.PaymentTermDays < 0 {
		return fmt.Errorf("invoice.payment_term_days cannot be negative")
	}

	d := c.Dunning
	if d.ReminderDays < 0 || d.FirstNoticeDays <= d.ReminderDays || d.FinalNoticeDays <= d.FirstNoticeDays ||
		d.CollectionWarningDays <= d.FinalNoticeDays {
		return fmt.Errorf("dunning thresholds must be increasing, got %d/%d/%d/%d",
			d.ReminderDays, d.FirstNoticeDays, d.FinalNoticeDays, d.CollectionWarningDays)
	}

	if c.Scheduler.SweepHour < 0 || c.Scheduler.SweepHour > 23 {
		return fmt.Errorf("scheduler.sweep_hour must be between 0 and 23")
	}
	if c.Scheduler.SweepMinute < 0 || c.Scheduler.SweepMinute > 59 {
		return fmt.Errorf("scheduler.sweep_minute must be between 0 and 59")
	}

	switch c.Idempotency.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("idempotency.backend must be redis or memory, got %q", c.Idempotency.Backend)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Numbering.LockBackend == LockBackendMemory {
			return fmt.Errorf("numbering.lock_backend=memory is single-process only and not allowed in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
