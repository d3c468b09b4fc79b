package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration, loaded from config.toml
// with CSYNC_-prefixed environment overrides.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Security  SecurityConfig  `mapstructure:"security"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds application identity settings
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // development, staging, production
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds Redis settings for the shared token cache
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`
	TrustedProxies []string      `mapstructure:"trusted_proxies"`
	// RateLimit caps requests per client IP per window; 0 disables it
	RateLimit       int           `mapstructure:"rate_limit"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
}

// JWTConfig holds management API token settings
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// WorkerConfig holds job processing settings
type WorkerConfig struct {
	// BatchLimit caps jobs claimed per invocation
	BatchLimit int `mapstructure:"batch_limit"`
	// HTTPRetries is the retry budget per outbound call
	HTTPRetries int `mapstructure:"http_retries"`
	// HTTPBackoff is the base backoff before exponential growth
	HTTPBackoff time.Duration `mapstructure:"http_backoff"`
	// HTTPAttemptTimeout bounds each outbound attempt
	HTTPAttemptTimeout time.Duration `mapstructure:"http_attempt_timeout"`
}

// SecurityConfig holds credential encryption and boundary auth settings
type SecurityConfig struct {
	// EncryptionSecret derives the AES key for credentials at rest
	EncryptionSecret string `mapstructure:"encryption_secret"`
	// SchedulerToken guards the worker trigger endpoint when set
	SchedulerToken string `mapstructure:"scheduler_token"`
	// SchedulerAllowedIPs holds exact or trailing-wildcard entries
	SchedulerAllowedIPs []string `mapstructure:"scheduler_allowed_ips"`
	// SchedulerHMACSecret enables body signature verification when set
	SchedulerHMACSecret string `mapstructure:"scheduler_hmac_secret"`
	// ShopifyWebhookSecret verifies inbound Shopify webhooks
	ShopifyWebhookSecret string `mapstructure:"shopify_webhook_secret"`
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Load reads configuration from file and environment.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if configPath := os.Getenv("CSYNC_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix("CSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "channelsync")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "channelsync")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30)
	v.SetDefault("database.conn_max_idle_time", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.max_header_bytes", 1<<20)
	v.SetDefault("http.max_body_size", 4<<20)
	v.SetDefault("http.rate_limit", 0)
	v.SetDefault("http.rate_limit_window", "1m")

	v.SetDefault("jwt.secret", "dev-jwt-secret-change-me")
	v.SetDefault("jwt.issuer", "channelsync")
	v.SetDefault("jwt.access_token_ttl", "1h")

	v.SetDefault("worker.batch_limit", 10)
	v.SetDefault("worker.http_retries", 3)
	v.SetDefault("worker.http_backoff", "300ms")
	v.SetDefault("worker.http_attempt_timeout", "30s")

	v.SetDefault("security.encryption_secret", "dev-encryption-secret-change-me")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", "channelsync")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

func validate(cfg *Config) error {
	if cfg.App.Env != "development" && cfg.App.Env != "staging" && cfg.App.Env != "production" {
		return fmt.Errorf("invalid app.env: %s", cfg.App.Env)
	}
	if cfg.Worker.BatchLimit <= 0 {
		return fmt.Errorf("worker.batch_limit must be positive")
	}
	if cfg.Worker.HTTPRetries < 0 {
		return fmt.Errorf("worker.http_retries must not be negative")
	}

	if cfg.App.Env == "production" {
		if cfg.Security.EncryptionSecret == "" ||
			cfg.Security.EncryptionSecret == "dev-encryption-secret-change-me" {
			return fmt.Errorf("security.encryption_secret must be set in production")
		}
		if cfg.JWT.Secret == "" || cfg.JWT.Secret == "dev-jwt-secret-change-me" {
			return fmt.Errorf("jwt.secret must be set in production")
		}
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("database.ssl_mode must not be disable in production")
		}
	}
	return nil
}
