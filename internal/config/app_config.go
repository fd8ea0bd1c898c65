package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Coordinator backends.
const (
	CoordinatorMemory = "memory"
	CoordinatorRedis  = "redis"
	CoordinatorNATS   = "nats"
)

// Schedule modes.
const (
	ScheduleAdaptive = "adaptive"
	ScheduleFixed    = "fixed"
)

// SMTP encryption modes.
const (
	SMTPEncryptionNone     = "none"
	SMTPEncryptionStartTLS = "starttls"
	SMTPEncryptionSSLTLS   = "ssl_tls"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.stockbell.
	DataDir string `envconfig:"STOCKBELL_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ShopBaseURL is the root of the shop API (stock, weather and last-seen endpoints).
	ShopBaseURL string        `envconfig:"SHOP_BASE_URL" default:"https://plantsvsbrainrot.com/api"`
	ShopTimeout time.Duration `envconfig:"SHOP_TIMEOUT" default:"10s"`

	// PollInterval is the baseline safety-net interval between checks.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	// RetryBackoff is the delay before the next check after a failed one.
	RetryBackoff time.Duration `envconfig:"RETRY_BACKOFF" default:"60s"`
	// UpdateBuffer is added to the shop's nextUpdateAt when scheduling adaptively.
	UpdateBuffer time.Duration `envconfig:"UPDATE_BUFFER" default:"10s"`
	// MaxAdaptiveDelay bounds adaptive delays; anything longer falls back to PollInterval.
	MaxAdaptiveDelay time.Duration `envconfig:"MAX_ADAPTIVE_DELAY" default:"15m"`
	ScheduleMode     string        `envconfig:"SCHEDULE_MODE" default:"adaptive"`

	// HistoryLimit bounds the number of remembered snapshot ids.
	HistoryLimit int `envconfig:"HISTORY_LIMIT" default:"50"`

	StoreBackend   string `envconfig:"STORE_BACKEND" default:"sqlite"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"stockbell:"`

	Coordinator        string `envconfig:"COORDINATOR" default:"memory"`
	CoordinatorChannel string `envconfig:"COORDINATOR_CHANNEL" default:"stock-update-channel"`
	NATSURL            string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`

	// SMTP settings for the optional email alert sink. The sink is enabled
	// when both SMTPHost and SMTPTo are set.
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string `envconfig:"SMTP_FROM"`
	SMTPTo         string `envconfig:"SMTP_TO"`
	SMTPEncryption string `envconfig:"SMTP_ENCRYPTION" default:"starttls"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// OTLPEndpoint enables trace export over OTLP/gRPC when set.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads AppConfig from environment variables using envconfig. A .env
// file in the working directory, if present, is loaded first and never
// overrides variables that are already set.
// DataDir defaults to ~/.stockbell if not set.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".stockbell")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks ranges and enum values.
func (c *AppConfig) Validate() error {
	durations := map[string]time.Duration{
		"SHOP_TIMEOUT":       c.ShopTimeout,
		"POLL_INTERVAL":      c.PollInterval,
		"RETRY_BACKOFF":      c.RetryBackoff,
		"MAX_ADAPTIVE_DELAY": c.MaxAdaptiveDelay,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.UpdateBuffer < 0 {
		return fmt.Errorf("UPDATE_BUFFER must not be negative, got %s", c.UpdateBuffer)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be at least 1, got %d", c.HistoryLimit)
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Coordinator {
	case CoordinatorMemory, CoordinatorRedis, CoordinatorNATS:
	default:
		return fmt.Errorf("unknown COORDINATOR %q", c.Coordinator)
	}
	switch c.ScheduleMode {
	case ScheduleAdaptive, ScheduleFixed:
	default:
		return fmt.Errorf("unknown SCHEDULE_MODE %q", c.ScheduleMode)
	}
	switch c.SMTPEncryption {
	case SMTPEncryptionNone, SMTPEncryptionStartTLS, SMTPEncryptionSSLTLS:
	default:
		return fmt.Errorf("unknown SMTP_ENCRYPTION %q, want none, starttls or ssl_tls", c.SMTPEncryption)
	}
	return nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.stockbell/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "stockbell.db")
}

// SMTPEnabled reports whether enough SMTP settings are present to send email.
func (c *AppConfig) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPTo != ""
}
