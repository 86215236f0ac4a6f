package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/worldsync/internal/protocol/session"
)

type fileConfig struct {
	Address            string      `toml:"address"`
	WorkerID           string      `toml:"worker_id"`
	WorkerType         string      `toml:"worker_type"`
	Token              string      `toml:"token"`
	Attributes         []string    `toml:"attributes"`
	FrameRate          int         `toml:"frame_rate"`
	MaxConnectAttempts int         `toml:"max_connect_attempts"`
	MetricsAddr        string      `toml:"metrics_addr"`
	OTelEndpoint       string      `toml:"otel_endpoint"`
	LogLevel           string      `toml:"log_level"`
	Session            fileSession `toml:"session"`
}

type fileSession struct {
	ConnectTimeout   string            `toml:"connect_timeout"`
	HandshakeTimeout string            `toml:"handshake_timeout"`
	WriteTimeout     string            `toml:"write_timeout"`
	OpBuffer         int               `toml:"op_buffer"`
	SecurityMode     string            `toml:"security_mode"`
	TLS              session.TLSConfig `toml:"tls"`
	Backoff          fileBackoff       `toml:"backoff"`
}

type fileBackoff struct {
	InitialDelay string  `toml:"initial_delay"`
	Multiplier   float64 `toml:"multiplier"`
	MaxDelay     string  `toml:"max_delay"`
	Jitter       bool    `toml:"jitter"`
}

// LoadFile overlays the keys present in the TOML file at path onto cfg.
func LoadFile(path string, cfg *Config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load worker config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load worker config: unknown key %q", undecoded[0].String())
	}

	set(meta, &cfg.Address, strings.TrimSpace(raw.Address), "address")
	set(meta, &cfg.WorkerID, strings.TrimSpace(raw.WorkerID), "worker_id")
	set(meta, &cfg.WorkerType, strings.TrimSpace(raw.WorkerType), "worker_type")
	set(meta, &cfg.Token, raw.Token, "token")
	set(meta, &cfg.Attributes, normalizeAttributes(raw.Attributes), "attributes")
	set(meta, &cfg.FrameRate, raw.FrameRate, "frame_rate")
	set(meta, &cfg.MaxConnectAttempts, raw.MaxConnectAttempts, "max_connect_attempts")
	set(meta, &cfg.MetricsAddr, strings.TrimSpace(raw.MetricsAddr), "metrics_addr")
	set(meta, &cfg.OTelEndpoint, strings.TrimSpace(raw.OTelEndpoint), "otel_endpoint")
	set(meta, &cfg.LogLevel, strings.TrimSpace(raw.LogLevel), "log_level")

	s := &cfg.Session
	durations := []struct {
		raw string
		dst *time.Duration
		key []string
	}{
		{raw.Session.ConnectTimeout, &s.ConnectTimeout, []string{"session", "connect_timeout"}},
		{raw.Session.HandshakeTimeout, &s.HandshakeTimeout, []string{"session", "handshake_timeout"}},
		{raw.Session.WriteTimeout, &s.WriteTimeout, []string{"session", "write_timeout"}},
		{raw.Session.Backoff.InitialDelay, &s.Backoff.InitialDelay, []string{"session", "backoff", "initial_delay"}},
		{raw.Session.Backoff.MaxDelay, &s.Backoff.MaxDelay, []string{"session", "backoff", "max_delay"}},
	}
	for _, d := range durations {
		if err := setDuration(meta, d.dst, d.raw, d.key...); err != nil {
			return err
		}
	}
	set(meta, &s.OpBuffer, raw.Session.OpBuffer, "session", "op_buffer")
	set(meta, &s.SecurityMode, session.NormalizeSecurityMode(session.SecurityMode(raw.Session.SecurityMode)), "session", "security_mode")
	set(meta, &s.Backoff.Multiplier, raw.Session.Backoff.Multiplier, "session", "backoff", "multiplier")
	set(meta, &s.Backoff.Jitter, raw.Session.Backoff.Jitter, "session", "backoff", "jitter")

	tls := raw.Session.TLS
	set(meta, &s.TLS.Enabled, tls.Enabled, "session", "tls", "enabled")
	set(meta, &s.TLS.Mutual, tls.Mutual, "session", "tls", "mutual")
	set(meta, &s.TLS.CAFile, strings.TrimSpace(tls.CAFile), "session", "tls", "ca_file")
	set(meta, &s.TLS.CertFile, strings.TrimSpace(tls.CertFile), "session", "tls", "cert_file")
	set(meta, &s.TLS.KeyFile, strings.TrimSpace(tls.KeyFile), "session", "tls", "key_file")
	set(meta, &s.TLS.ServerName, strings.TrimSpace(tls.ServerName), "session", "tls", "server_name")
	set(meta, &s.TLS.InsecureSkipVerify, tls.InsecureSkipVerify, "session", "tls", "insecure_skip_verify")
	return nil
}

func set[T any](meta toml.MetaData, dst *T, v T, key ...string) {
	if meta.IsDefined(key...) {
		*dst = v
	}
}

func setDuration(meta toml.MetaData, dst *time.Duration, raw string, key ...string) error {
	if !meta.IsDefined(key...) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("parse %s: %w", strings.Join(key, "."), err)
	}
	*dst = d
	return nil
}
