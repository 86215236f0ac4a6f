// Package config resolves worker settings from defaults, an optional TOML
// file, and WORLDSYNC_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/danmuck/worldsync/internal/logging"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/worker/stream"
	"github.com/google/uuid"
)

const EnvPrefix = "WORLDSYNC_"

var (
	ErrAddressRequired  = errors.New("config: address required")
	ErrInvalidFrameRate = errors.New("config: frame_rate must be positive")
	ErrInvalidLogLevel  = errors.New("config: invalid log_level")
)

// Config is the full worker configuration.
type Config struct {
	Address            string         `env:"ADDRESS"`
	WorkerID           string         `env:"WORKER_ID"`
	WorkerType         string         `env:"WORKER_TYPE"`
	Token              string         `env:"TOKEN"`
	Attributes         []string       `env:"ATTRIBUTES" envSeparator:","`
	FrameRate          int            `env:"FRAME_RATE"`
	MaxConnectAttempts int            `env:"MAX_CONNECT_ATTEMPTS"`
	MetricsAddr        string         `env:"METRICS_ADDR"`
	OTelEndpoint       string         `env:"OTEL_ENDPOINT"`
	LogLevel           string         `env:"LOG_LEVEL"`
	Session            session.Config `envPrefix:"SESSION_"`
}

func Default() Config {
	return Config{
		Address:            "127.0.0.1:7777",
		WorkerType:         "managed",
		FrameRate:          30,
		MaxConnectAttempts: 5,
		MetricsAddr:        ":9464",
		LogLevel:           "info",
		Session:            session.DefaultConfig(),
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply. A worker id is generated when none is
// configured.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from WORLDSYNC_* variables. Unset variables leave
// the current values alone.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Address = strings.TrimSpace(c.Address)
	c.WorkerType = strings.TrimSpace(c.WorkerType)
	if c.WorkerType == "" {
		c.WorkerType = "managed"
	}
	c.WorkerID = strings.TrimSpace(c.WorkerID)
	if c.WorkerID == "" {
		c.WorkerID = c.WorkerType + "-" + uuid.NewString()
	}
	c.Attributes = normalizeAttributes(c.Attributes)
	c.Session = c.Session.WithDefaults()
}

func (c Config) Validate() error {
	if c.Address == "" {
		return ErrAddressRequired
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrameRate, c.FrameRate)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if err := c.Session.ValidateClientTransport(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// FrameInterval is the wall time budget of one frame.
func (c Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.FrameRate)
}

// Client returns the stream client settings for this worker.
func (c Config) Client() stream.ClientConfig {
	out := stream.DefaultClientConfig()
	out.Address = c.Address
	out.WorkerID = c.WorkerID
	out.WorkerType = c.WorkerType
	out.Attributes = append([]string(nil), c.Attributes...)
	out.Token = c.Token
	out.Session = c.Session
	out.MaxConnectAttempts = c.MaxConnectAttempts
	return out
}

func normalizeAttributes(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, attr := range in {
		v := strings.TrimSpace(attr)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
