package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/config"
)

// Backend base URLs selected by ENVIRONMENT when BACKEND_URL is unset.
const (
	ProductionBackendURL  = "https://tessuto-server.vercel.app/api"
	DevelopmentBackendURL = "https://bindu-jewellery-backend.vercel.app/api"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config holds all configuration for the admin console.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"CONSOLE_HTTP_PORT" envDefault:"8090"`

	// Backend REST API
	BackendURL        string        `env:"BACKEND_URL"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" envDefault:"0"`
	BackendCookies    bool          `env:"BACKEND_WITH_CREDENTIALS" envDefault:"true"`
	BreakerEnabled    bool          `env:"BACKEND_BREAKER_ENABLED" envDefault:"true"`

	// Operator sessions
	SessionStore  string        `env:"SESSION_STORE" envDefault:"memory"`
	SessionDir    string        `env:"SESSION_DIR" envDefault:"./data/sessions"`
	SessionSecret string        `env:"SESSION_FILE_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionSweep  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"15m"`
	RedisURL      string        `env:"REDIS_URL"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPrefix   string        `env:"REDIS_SESSION_PREFIX" envDefault:"bindu:admin:session:"`

	// Login rate limiting, per client IP
	LoginPerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst     int `env:"LOGIN_RATE_BURST" envDefault:"5"`

	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Remote image import
	ImportTimeout time.Duration `env:"IMPORT_TIMEOUT" envDefault:"15s"`

	// Audit events
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	AuditTopic   string   `env:"AUDIT_TOPIC" envDefault:"bindu.admin.actions"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load console config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the console runs against the production
// backend.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SecureCookies reports whether the session cookie needs the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.IsProduction()
}

// Backend returns the backend base URL: BACKEND_URL when set, otherwise the
// URL for the environment.
func (c *Config) Backend() string {
	if c.BackendURL != "" {
		return strings.TrimRight(c.BackendURL, "/")
	}
	if c.IsProduction() {
		return ProductionBackendURL
	}
	return DevelopmentBackendURL
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Environment {
	case "production", "development":
	default:
		return fmt.Errorf("ENVIRONMENT must be production or development, got %q", c.Environment)
	}

	u, err := url.Parse(c.Backend())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("BACKEND_URL must use https in production")
	}

	switch c.SessionStore {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, file, redis, got %q", c.SessionStore)
	}
	if c.SessionStore == StoreFile && c.SessionDir == "" {
		return fmt.Errorf("SESSION_DIR is required for the file session store")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SessionSweep <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be positive")
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_FILE_SECRET must be at least 16 characters")
	}

	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative")
	}
	if c.LoginPerMinute <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0 and 1")
	}
	return nil
}
