package session

import "time"

// SecurityMode selects how strictly transport security is enforced.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration `toml:"initial_delay"`
	Multiplier   float64       `toml:"multiplier"`
	MaxDelay     time.Duration `toml:"max_delay"`
	Jitter       bool          `toml:"jitter"`
}

// TLSConfig holds file-based TLS material for the runtime stream.
type TLSConfig struct {
	Enabled            bool   `toml:"enabled" env:"TLS_ENABLED"`
	Mutual             bool   `toml:"mutual" env:"TLS_MUTUAL"`
	CAFile             string `toml:"ca_file" env:"TLS_CA_FILE"`
	CertFile           string `toml:"cert_file" env:"TLS_CERT_FILE"`
	KeyFile            string `toml:"key_file" env:"TLS_KEY_FILE"`
	ServerName         string `toml:"server_name" env:"TLS_SERVER_NAME"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify" env:"TLS_INSECURE_SKIP_VERIFY"`
}

// Config defines transport/session reliability settings.
type Config struct {
	ConnectTimeout   time.Duration `toml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	HandshakeTimeout time.Duration `toml:"handshake_timeout" env:"HANDSHAKE_TIMEOUT"`
	WriteTimeout     time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	// OpBuffer bounds the number of decoded ops held between frames.
	OpBuffer     int           `toml:"op_buffer" env:"OP_BUFFER"`
	SecurityMode SecurityMode  `toml:"security_mode" env:"SECURITY_MODE"`
	TLS          TLSConfig     `toml:"tls"`
	Backoff      BackoffConfig `toml:"backoff"`
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     15 * time.Second,
		OpBuffer:         4096,
		SecurityMode:     SecurityModeDevelopment,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero durations and sizes from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.OpBuffer <= 0 {
		c.OpBuffer = def.OpBuffer
	}
	c.SecurityMode = NormalizeSecurityMode(c.SecurityMode)
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
