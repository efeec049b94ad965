// Package config loads and validates the capturelog configuration using Viper.
//
// Configuration is layered: built-in defaults < YAML config file < environment
// variables. Environment variables use the CPL_ prefix (e.g., CPL_DATABASE_HOST
// overrides database.host in the YAML). This layering allows the same binary to
// run with a config.yaml in local development and with pure environment variables
// in containerized deployments — no recompilation or different binaries needed.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Security  SecurityConfig  `mapstructure:"security"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
	Audit     AuditConfig     `mapstructure:"audit"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// CookieSecure controls the Secure attribute on session cookies. Leave
	// true everywhere except plain-HTTP local development.
	CookieSecure bool `mapstructure:"cookie_secure"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode"`
	MaxConnections     int    `mapstructure:"max_connections"`
	MinIdleConnections int    `mapstructure:"min_idle_connections"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// SessionSigningSecret signs WebAuthn challenge tokens. Required.
	SessionSigningSecret string `mapstructure:"session_signing_secret"`
	// AdminPassword is the single operator credential. Empty disables the
	// admin surface.
	AdminPassword string `mapstructure:"admin_password"`
	// AdminSessionSecret signs operator session tokens. The operator trust
	// domain keeps its own secret so rotating one does not invalidate the
	// other. Required whenever admin_password is set.
	AdminSessionSecret string `mapstructure:"admin_session_secret"`

	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	RefreshThreshold time.Duration `mapstructure:"refresh_threshold"`
	AdminSessionTTL  time.Duration `mapstructure:"admin_session_ttl"`

	// MaxTokensPerUser bounds API tokens per user; 0 disables the limit
	MaxTokensPerUser int `mapstructure:"max_tokens_per_user"`

	// InvitationExpiryDays is the default lifetime of a new invitation
	InvitationExpiryDays int `mapstructure:"invitation_expiry_days"`

	WebAuthn WebAuthnConfig `mapstructure:"webauthn"`
}

// WebAuthnConfig holds the relying-party parameters for passkey ceremonies
type WebAuthnConfig struct {
	RPDisplayName string        `mapstructure:"rp_display_name"`
	RPID          string        `mapstructure:"rp_id"`
	RPOrigins     []string      `mapstructure:"rp_origins"`
	ChallengeTTL  time.Duration `mapstructure:"challenge_ttl"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
	TLS          TLSConfig          `mapstructure:"tls"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

// RateLimitingConfig holds rate limiting configuration
type RateLimitingConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

// TLSConfig holds TLS/HTTPS configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// RedisConfig holds the optional Redis connection used for distributed rate
// limiting. When Addr is empty the in-process limiter is used instead.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled     bool            `mapstructure:"enabled"`
	ServiceName string          `mapstructure:"service_name"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Profiling   ProfilingConfig `mapstructure:"profiling"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	PrometheusPort int  `mapstructure:"prometheus_port"`
}

// ProfilingConfig holds profiling configuration
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	// SessionSweepInterval is how often expired sessions are bulk-deleted
	SessionSweepInterval time.Duration `mapstructure:"session_sweep_interval"`
}

// AuditConfig holds the audit trail configuration. The audit trail records
// authentication events (sign-ins, logouts, membership changes, token
// issuance) to destinations with their own retention, separate from
// application logs.
type AuditConfig struct {
	Enabled bool               `mapstructure:"enabled"`
	File    AuditFileConfig    `mapstructure:"file"`
	Webhook AuditWebhookConfig `mapstructure:"webhook"`
}

// AuditFileConfig holds file destination settings for audit events
type AuditFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// AuditWebhookConfig holds webhook destination settings for audit events
type AuditWebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// bindEnvVars explicitly binds environment variables to config keys.
// This is necessary because AutomaticEnv() doesn't work well with nested
// structs during Unmarshal. viper.BindEnv only errors when called with zero
// keys; since every key here is a non-empty hardcoded string, any error
// indicates a programming bug and is surfaced to the caller.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		// Server
		"server.host",
		"server.port",
		"server.base_url",
		"server.read_timeout",
		"server.write_timeout",
		"server.cookie_secure",

		// Database
		"database.host",
		"database.port",
		"database.name",
		"database.user",
		"database.password",
		"database.ssl_mode",
		"database.max_connections",
		"database.min_idle_connections",

		// Auth
		"auth.session_signing_secret",
		"auth.admin_password",
		"auth.admin_session_secret",
		"auth.session_ttl",
		"auth.refresh_threshold",
		"auth.admin_session_ttl",
		"auth.max_tokens_per_user",
		"auth.invitation_expiry_days",
		"auth.webauthn.rp_display_name",
		"auth.webauthn.rp_id",
		"auth.webauthn.rp_origins",
		"auth.webauthn.challenge_ttl",

		// Security
		"security.cors.allowed_origins",
		"security.cors.allowed_methods",
		"security.rate_limiting.enabled",
		"security.rate_limiting.requests_per_minute",
		"security.rate_limiting.burst",
		"security.tls.enabled",
		"security.tls.cert_file",
		"security.tls.key_file",

		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",

		// Logging
		"logging.level",
		"logging.format",
		"logging.output",

		// Telemetry
		"telemetry.enabled",
		"telemetry.service_name",
		"telemetry.metrics.enabled",
		"telemetry.metrics.prometheus_port",
		"telemetry.profiling.enabled",
		"telemetry.profiling.port",

		// Jobs
		"jobs.session_sweep_interval",

		// Audit
		"audit.enabled",
		"audit.file.path",
		"audit.file.max_size_mb",
		"audit.file.max_backups",
		"audit.webhook.url",
		"audit.webhook.timeout",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config.yaml in common locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/capturelog")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
	}

	v.SetEnvPrefix("CPL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand ${VAR} references in sensitive fields so they can be injected
	// indirectly through generic secret names
	cfg.Database.Password = os.ExpandEnv(cfg.Database.Password)
	cfg.Auth.SessionSigningSecret = os.ExpandEnv(cfg.Auth.SessionSigningSecret)
	cfg.Auth.AdminPassword = os.ExpandEnv(cfg.Auth.AdminPassword)
	cfg.Auth.AdminSessionSecret = os.ExpandEnv(cfg.Auth.AdminSessionSecret)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.cookie_secure", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "capturelog")
	v.SetDefault("database.user", "capturelog")
	v.SetDefault("database.ssl_mode", "require")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_idle_connections", 5)

	// Auth defaults
	v.SetDefault("auth.session_ttl", "720h") // 30 days
	v.SetDefault("auth.refresh_threshold", "5m")
	v.SetDefault("auth.admin_session_ttl", "24h")
	v.SetDefault("auth.max_tokens_per_user", 25)
	v.SetDefault("auth.invitation_expiry_days", 7)
	v.SetDefault("auth.webauthn.rp_display_name", "capturelog")
	v.SetDefault("auth.webauthn.rp_id", "localhost")
	v.SetDefault("auth.webauthn.rp_origins", []string{"http://localhost:8080"})
	v.SetDefault("auth.webauthn.challenge_ttl", "5m")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.rate_limiting.enabled", true)
	v.SetDefault("security.rate_limiting.requests_per_minute", 200)
	v.SetDefault("security.rate_limiting.burst", 50)
	v.SetDefault("security.tls.enabled", false)

	// Redis defaults (disabled unless addr is set)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.service_name", "capturelog")
	v.SetDefault("telemetry.metrics.enabled", true)
	v.SetDefault("telemetry.metrics.prometheus_port", 9090)
	v.SetDefault("telemetry.profiling.enabled", false)
	v.SetDefault("telemetry.profiling.port", 6060)

	// Jobs defaults
	v.SetDefault("jobs.session_sweep_interval", "1h")

	// Audit defaults (disabled unless explicitly enabled)
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.file.max_size_mb", 100)
	v.SetDefault("audit.file.max_backups", 5)
	v.SetDefault("audit.webhook.timeout", "10s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}

	if c.Auth.SessionSigningSecret == "" {
		return fmt.Errorf("auth.session_signing_secret is required")
	}
	if len(c.Auth.SessionSigningSecret) < 32 {
		return fmt.Errorf("auth.session_signing_secret must be at least 32 characters")
	}
	if c.Auth.AdminPassword != "" {
		if c.Auth.AdminSessionSecret == "" {
			return fmt.Errorf("auth.admin_session_secret is required when auth.admin_password is set")
		}
		if len(c.Auth.AdminSessionSecret) < 32 {
			return fmt.Errorf("auth.admin_session_secret must be at least 32 characters")
		}
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if c.Auth.RefreshThreshold < 0 {
		return fmt.Errorf("auth.refresh_threshold must not be negative")
	}
	if c.Auth.RefreshThreshold >= c.Auth.SessionTTL {
		return fmt.Errorf("auth.refresh_threshold must be shorter than auth.session_ttl")
	}
	if c.Auth.MaxTokensPerUser < 0 {
		return fmt.Errorf("auth.max_tokens_per_user must not be negative")
	}
	if c.Auth.InvitationExpiryDays < 1 {
		return fmt.Errorf("auth.invitation_expiry_days must be at least 1")
	}
	if c.Auth.WebAuthn.RPID == "" {
		return fmt.Errorf("auth.webauthn.rp_id is required")
	}
	if len(c.Auth.WebAuthn.RPOrigins) == 0 {
		return fmt.Errorf("auth.webauthn.rp_origins is required")
	}

	if c.Security.TLS.Enabled {
		if c.Security.TLS.CertFile == "" {
			return fmt.Errorf("security.tls.cert_file is required when TLS is enabled")
		}
		if c.Security.TLS.KeyFile == "" {
			return fmt.Errorf("security.tls.key_file is required when TLS is enabled")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Audit.Enabled && c.Audit.File.Path == "" && c.Audit.Webhook.URL == "" {
		return fmt.Errorf("audit.file.path or audit.webhook.url is required when audit is enabled")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetAddress returns the server address in host:port format
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
