package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/nfrund/gobychat/internal/pubsub"
)

// Store drivers.
const (
	DriverBadger  = "badger"
	DriverSurreal = "surreal"
)

// Config holds all configuration for the application.
type Config struct {
	ServerAddr    string `envconfig:"SERVER_ADDR" default:":8080"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"insecure-dev-session-secret"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"badger"`
	BadgerDir   string `envconfig:"BADGER_DIR" default:"data/chat"`

	DBUrl  string `envconfig:"SURREAL_URL"`
	DBNs   string `envconfig:"SURREAL_NS"`
	DBDb   string `envconfig:"SURREAL_DB"`
	DBUser string `envconfig:"SURREAL_USER"`
	DBPass string `envconfig:"SURREAL_PASS"`

	// PublicDelay holds every public message between persistence and delivery.
	PublicDelay time.Duration `envconfig:"CHAT_PUBLIC_DELAY" default:"0s"`

	SendBuffer     int      `envconfig:"WS_SEND_BUFFER" default:"256"`
	AllowedOrigins []string `envconfig:"WS_ALLOWED_ORIGINS"`
	// RateLimit is requests per second per client on the send endpoints.
	RateLimit float64 `envconfig:"HTTP_RATE_LIMIT" default:"10"`

	// BusBuffer is the per-subscription buffer of the in-process bus.
	BusBuffer int64 `envconfig:"PUBSUB_OUTPUT_BUFFER" default:"256"`

	TracingEnabled     bool   `envconfig:"PUBSUB_TRACING_ENABLED" default:"false"`
	TracingServiceName string `envconfig:"PUBSUB_TRACING_SERVICE_NAME" default:"gobychat"`
	TracingZipkinURL   string `envconfig:"PUBSUB_TRACING_ZIPKIN_URL" default:"http://localhost:9411/api/v2/spans"`
}

// New loads .env (when present) and the environment into a validated Config.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads the environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverBadger:
		if c.BadgerDir == "" {
			errs = append(errs, errors.New("BADGER_DIR is required for the badger store"))
		}
	case DriverSurreal:
		if c.DBUrl == "" || c.DBNs == "" || c.DBDb == "" {
			errs = append(errs, errors.New("SURREAL_URL, SURREAL_NS and SURREAL_DB are required for the surreal store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.PublicDelay < 0 {
		errs = append(errs, errors.New("CHAT_PUBLIC_DELAY cannot be negative"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("WS_SEND_BUFFER must be positive"))
	}
	if c.BusBuffer <= 0 {
		errs = append(errs, errors.New("PUBSUB_OUTPUT_BUFFER must be positive"))
	}
	return errors.Join(errs...)
}

// Tracing returns the pub/sub tracing settings.
func (c *Config) Tracing() pubsub.TracingConfig {
	return pubsub.TracingConfig{
		Enabled:     c.TracingEnabled,
		ServiceName: c.TracingServiceName,
		ZipkinURL:   c.TracingZipkinURL,
	}
}
