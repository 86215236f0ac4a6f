package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Encode writes cfg in the file format LoadFile reads.
func Encode(w io.Writer, cfg Config) error {
	s := cfg.Session
	raw := fileConfig{
		Address:            cfg.Address,
		WorkerID:           cfg.WorkerID,
		WorkerType:         cfg.WorkerType,
		Token:              cfg.Token,
		Attributes:         cfg.Attributes,
		FrameRate:          cfg.FrameRate,
		MaxConnectAttempts: cfg.MaxConnectAttempts,
		MetricsAddr:        cfg.MetricsAddr,
		OTelEndpoint:       cfg.OTelEndpoint,
		LogLevel:           cfg.LogLevel,
		Session: fileSession{
			ConnectTimeout:   s.ConnectTimeout.String(),
			HandshakeTimeout: s.HandshakeTimeout.String(),
			WriteTimeout:     s.WriteTimeout.String(),
			OpBuffer:         s.OpBuffer,
			SecurityMode:     string(s.SecurityMode),
			TLS:              s.TLS,
			Backoff: fileBackoff{
				InitialDelay: s.Backoff.InitialDelay.String(),
				Multiplier:   s.Backoff.Multiplier,
				MaxDelay:     s.Backoff.MaxDelay.String(),
				Jitter:       s.Backoff.Jitter,
			},
		},
	}
	return toml.NewEncoder(w).Encode(raw)
}

// WriteTemplate writes the default configuration to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := Encode(f, Default()); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
