package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "RENTFLOW"

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Log            LogConfig
	HTTP           HTTPConfig
	Scheduler      SchedulerConfig
	Telemetry      TelemetryConfig
	Reconciliation ReconciliationConfig
	SplitPlan      SplitPlanConfig
	Gateways       GatewaysConfig
	Storage        StorageConfig
	Notification   NotificationConfig
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
	// AutoMigrate applies the embedded schema migrations at startup
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds settings for verifying bearer tokens issued by the identity service
type JWTConfig struct {
	Secret string
	Issuer string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	MaxBodySize     int64
	MaxWebhookBytes int64
	TrustedProxies  []string
	CORSOrigins     []string
	// RequestTimeout bounds the context of every API request
	RequestTimeout time.Duration
	// RateLimitRPS and RateLimitBurst limit payment initiation per client IP.
	// A zero rate disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
}

// SchedulerConfig holds the periodic sweep configuration
type SchedulerConfig struct {
	Enabled        bool
	SweepInterval  time.Duration
	ExpiryInterval time.Duration
	InitialDelay   time.Duration
	BatchSize      int
	JobTimeout     time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable tracing
	MetricsEnabled    bool    // Whether to export business metrics
	LogsEnabled       bool    // Whether to export logs over OTLP
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	MetricsInterval   time.Duration

	// Continuous profiling through Pyroscope
	ProfilingEnabled           bool
	ProfilingServerAddress     string
	ProfilingBasicAuthUser     string
	ProfilingBasicAuthPassword string
	ProfilingTypes             []string
	ProfilingSpanProfiles      bool // link CPU samples to trace spans
}

// ReconciliationConfig holds fee policy and settlement parameters
type ReconciliationConfig struct {
	FeePolicy          string // flat, percentage, none
	FlatFee            decimal.Decimal
	FeePercentage      decimal.Decimal
	Tolerance          decimal.Decimal
	TransactionExpiry  time.Duration
	MaxDepositAttempts int
	ConflictRetries    int
	DefaultCurrency    string
	GatewayTimeout     time.Duration // bounds one initiate call to a gateway
	RetryInterval      time.Duration // first backoff step after a lost optimistic write
}

// SplitPlanConfig holds due date offsets for split plan legs
type SplitPlanConfig struct {
	DepositDueWindow time.Duration
	BalanceDueOffset time.Duration
}

// GatewayConfig holds the settings of one rail's gateway
type GatewayConfig struct {
	Enabled       bool
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
	// CallbackURL is where the gateway posts outcomes
	CallbackURL string
	// Account is the collection account shown for push transfers
	Account string
}

// GatewaysConfig holds one GatewayConfig per rail
type GatewaysConfig struct {
	Card         GatewayConfig
	MobileMoney  GatewayConfig
	BankTransfer GatewayConfig
}

// ByRail returns the configuration keyed by rail name
func (g GatewaysConfig) ByRail() map[string]GatewayConfig {
	return map[string]GatewayConfig{
		"CARD":          g.Card,
		"MOBILE_MONEY":  g.MobileMoney,
		"BANK_TRANSFER": g.BankTransfer,
	}
}

// StorageConfig holds S3-compatible receipt storage settings
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	UsePathStyle bool
	// PresignExpiration bounds receipt download links
	PresignExpiration time.Duration
}

// NotificationConfig selects where transition notifications go
type NotificationConfig struct {
	Sink      string // log, redis
	Stream    string
	MaxLen    int64
	DedupTTL  time.Duration
	Locale    string // BCP 47 tag used to format amounts
	AsyncBus  bool
	QueueSize int
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with RENTFLOW_ prefix (e.g., RENTFLOW_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	cfg, _, err := LoadWithViper()
	return cfg, err
}

// LoadWithViper loads the configuration and also returns the viper instance
// so callers can watch the file for changes.
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/rentflow")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := build(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func build(v *viper.Viper) (*Config, error) {
	recon, err := reconciliationFrom(v)
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
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:  v.GetInt("http.max_header_bytes"),
			MaxBodySize:     v.GetInt64("http.max_body_size"),
			MaxWebhookBytes: v.GetInt64("http.max_webhook_bytes"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
			CORSOrigins:     v.GetStringSlice("http.cors_origins"),
			RequestTimeout:  v.GetDuration("http.request_timeout"),
			RateLimitRPS:    v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:  v.GetInt("http.rate_limit_burst"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        v.GetBool("scheduler.enabled"),
			SweepInterval:  v.GetDuration("scheduler.sweep_interval"),
			ExpiryInterval: v.GetDuration("scheduler.expiry_interval"),
			InitialDelay:   v.GetDuration("scheduler.initial_delay"),
			BatchSize:      v.GetInt("scheduler.batch_size"),
			JobTimeout:     v.GetDuration("scheduler.job_timeout"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),

			ProfilingEnabled:           v.GetBool("telemetry.profiling_enabled"),
			ProfilingServerAddress:     v.GetString("telemetry.profiling_server_address"),
			ProfilingBasicAuthUser:     v.GetString("telemetry.profiling_basic_auth_user"),
			ProfilingBasicAuthPassword: v.GetString("telemetry.profiling_basic_auth_password"),
			ProfilingTypes:             v.GetStringSlice("telemetry.profiling_types"),
			ProfilingSpanProfiles:      v.GetBool("telemetry.profiling_span_profiles"),
		},
		Reconciliation: recon,
		SplitPlan: SplitPlanConfig{
			DepositDueWindow: v.GetDuration("splitplan.deposit_due_window"),
			BalanceDueOffset: v.GetDuration("splitplan.balance_due_offset"),
		},
		Gateways: GatewaysConfig{
			Card:         gatewayFrom(v, "gateways.card"),
			MobileMoney:  gatewayFrom(v, "gateways.mobile_money"),
			BankTransfer: gatewayFrom(v, "gateways.bank_transfer"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("storage.enabled"),
			Endpoint:     v.GetString("storage.endpoint"),
			Region:       v.GetString("storage.region"),
			Bucket:       v.GetString("storage.bucket"),
			AccessKey:    v.GetString("storage.access_key"),
			SecretKey:    v.GetString("storage.secret_key"),
			UseSSL:       v.GetBool("storage.use_ssl"),
			UsePathStyle: v.GetBool("storage.use_path_style"),

			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Notification: NotificationConfig{
			Sink:      v.GetString("notification.sink"),
			Stream:    v.GetString("notification.stream"),
			MaxLen:    v.GetInt64("notification.max_len"),
			DedupTTL:  v.GetDuration("notification.dedup_ttl"),
			Locale:    v.GetString("notification.locale"),
			AsyncBus:  v.GetBool("notification.async_bus"),
			QueueSize: v.GetInt("notification.queue_size"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func gatewayFrom(v *viper.Viper, prefix string) GatewayConfig {
	return GatewayConfig{
		Enabled:       v.GetBool(prefix + ".enabled"),
		BaseURL:       v.GetString(prefix + ".base_url"),
		APIKey:        v.GetString(prefix + ".api_key"),
		WebhookSecret: v.GetString(prefix + ".webhook_secret"),
		Timeout:       v.GetDuration(prefix + ".timeout"),
		MaxRetries:    v.GetInt(prefix + ".max_retries"),
		RetryBackoff:  v.GetDuration(prefix + ".retry_backoff"),
		CallbackURL:   v.GetString(prefix + ".callback_url"),
		Account:       v.GetString(prefix + ".account"),
	}
}

// reconciliationFrom reads the fee policy section. It is also used when the
// config file changes at runtime.
func reconciliationFrom(v *viper.Viper) (ReconciliationConfig, error) {
	flat, err := decimalOf(v, "reconciliation.flat_fee")
	if err != nil {
		return ReconciliationConfig{}, err
	}
	pct, err := decimalOf(v, "reconciliation.fee_percentage")
	if err != nil {
		return ReconciliationConfig{}, err
	}
	tol, err := decimalOf(v, "reconciliation.tolerance")
	if err != nil {
		return ReconciliationConfig{}, err
	}
	return ReconciliationConfig{
		FeePolicy:          v.GetString("reconciliation.fee_policy"),
		FlatFee:            flat,
		FeePercentage:      pct,
		Tolerance:          tol,
		TransactionExpiry:  v.GetDuration("reconciliation.transaction_expiry"),
		MaxDepositAttempts: v.GetInt("reconciliation.max_deposit_attempts"),
		ConflictRetries:    v.GetInt("reconciliation.conflict_retries"),
		DefaultCurrency:    v.GetString("reconciliation.default_currency"),
		GatewayTimeout:     v.GetDuration("reconciliation.gateway_timeout"),
		RetryInterval:      v.GetDuration("reconciliation.retry_interval"),
	}, nil
}

func decimalOf(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, raw, err)
	}
	return d, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "rentflow-backend"
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
		cfg.Database.DBName = "rentflow"
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
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "rentflow-identity"
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
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxWebhookBytes == 0 {
		cfg.HTTP.MaxWebhookBytes = 64 << 10 // 64KB
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 45 * time.Second
	}
	if cfg.HTTP.RateLimitRPS > 0 && cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = int(cfg.HTTP.RateLimitRPS) + 1
	}
	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = 24 * time.Hour
	}
	if cfg.Scheduler.ExpiryInterval == 0 {
		cfg.Scheduler.ExpiryInterval = 15 * time.Minute
	}
	if cfg.Scheduler.BatchSize == 0 {
		cfg.Scheduler.BatchSize = 500
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 10 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	applyReconciliationDefaults(&cfg.Reconciliation)
	if cfg.SplitPlan.DepositDueWindow == 0 {
		cfg.SplitPlan.DepositDueWindow = 48 * time.Hour
	}
	if cfg.SplitPlan.BalanceDueOffset == 0 {
		cfg.SplitPlan.BalanceDueOffset = 14 * 24 * time.Hour
	}
	for _, gw := range []*GatewayConfig{&cfg.Gateways.Card, &cfg.Gateways.MobileMoney, &cfg.Gateways.BankTransfer} {
		if gw.Timeout == 0 {
			gw.Timeout = 30 * time.Second
		}
		if gw.MaxRetries == 0 {
			gw.MaxRetries = 2
		}
		if gw.RetryBackoff == 0 {
			gw.RetryBackoff = 500 * time.Millisecond
		}
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "rentflow-receipts"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Notification.Sink == "" {
		cfg.Notification.Sink = "log"
	}
	if cfg.Notification.Locale == "" {
		cfg.Notification.Locale = "en"
	}
	if cfg.Notification.Stream == "" {
		cfg.Notification.Stream = "rentflow:notifications"
	}
	if cfg.Notification.MaxLen == 0 {
		cfg.Notification.MaxLen = 100000
	}
	if cfg.Notification.DedupTTL == 0 {
		cfg.Notification.DedupTTL = 7 * 24 * time.Hour
	}
	if cfg.Notification.QueueSize == 0 {
		cfg.Notification.QueueSize = 1024
	}
}

func applyReconciliationDefaults(r *ReconciliationConfig) {
	if r.FeePolicy == "" {
		r.FeePolicy = "flat"
	}
	if r.TransactionExpiry == 0 {
		r.TransactionExpiry = 2 * time.Hour
	}
	if r.MaxDepositAttempts == 0 {
		r.MaxDepositAttempts = 3
	}
	if r.ConflictRetries == 0 {
		r.ConflictRetries = 5
	}
	if r.DefaultCurrency == "" {
		r.DefaultCurrency = "USD"
	}
	if r.GatewayTimeout == 0 {
		r.GatewayTimeout = 30 * time.Second
	}
	if r.RetryInterval == 0 {
		r.RetryInterval = 20 * time.Millisecond
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
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if err := c.Reconciliation.Validate(); err != nil {
		return err
	}
	for rail, gw := range c.Gateways.ByRail() {
		if gw.Enabled && rail != "BANK_TRANSFER" && gw.BaseURL == "" {
			return fmt.Errorf("gateways.%s.base_url is required when the gateway is enabled", strings.ToLower(rail))
		}
	}
	if c.Storage.Enabled && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage.access_key and storage.secret_key are required when storage is enabled")
	}
	switch c.Notification.Sink {
	case "log", "redis":
	default:
		return fmt.Errorf("notification.sink must be log or redis, got %q", c.Notification.Sink)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for rail, gw := range c.Gateways.ByRail() {
			if gw.Enabled && gw.WebhookSecret == "" {
				return fmt.Errorf("gateways.%s.webhook_secret is required in production", strings.ToLower(rail))
			}
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		return fmt.Errorf("telemetry.profiling_server_address is required when profiling is enabled")
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Validate checks the fee policy section on its own
func (r ReconciliationConfig) Validate() error {
	switch strings.ToLower(r.FeePolicy) {
	case "flat", "percentage", "none":
	default:
		return fmt.Errorf("reconciliation.fee_policy must be flat, percentage or none, got %q", r.FeePolicy)
	}
	if r.FlatFee.IsNegative() {
		return fmt.Errorf("reconciliation.flat_fee cannot be negative")
	}
	if r.FeePercentage.IsNegative() || r.FeePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("reconciliation.fee_percentage must be between 0 and 100")
	}
	if r.Tolerance.IsNegative() {
		return fmt.Errorf("reconciliation.tolerance cannot be negative")
	}
	if r.MaxDepositAttempts < 1 {
		return fmt.Errorf("reconciliation.max_deposit_attempts must be at least 1")
	}
	if r.GatewayTimeout < 0 || r.RetryInterval < 0 {
		return fmt.Errorf("reconciliation.gateway_timeout and reconciliation.retry_interval cannot be negative")
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
