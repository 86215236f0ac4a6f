package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/worldsync/internal/devruntime"
	"github.com/danmuck/worldsync/internal/protocol/session"
)

// runtimectl config.toml key mapping to devruntime settings.
type fileConfig struct {
	Addr                string   `toml:"addr"`
	Token               string   `toml:"token"`
	WorkerTypes         []string `toml:"worker_types"`
	Players             int      `toml:"players"`
	GuestName           string   `toml:"guest_name"`
	SessionSecurityMode string   `toml:"session_security_mode"`
	SessionTLSEnabled   bool     `toml:"session_tls_enabled"`
	SessionTLSMutual    bool     `toml:"session_tls_mutual"`
	SessionTLSCertFile  string   `toml:"session_tls_cert_file"`
	SessionTLSKeyFile   string   `toml:"session_tls_key_file"`
	SessionTLSCAFile    string   `toml:"session_tls_ca_file"`
}

// runtimectl loader for TOML config with default overlay.
func loadRuntimeConfig(path string) (devruntime.Config, error) {
	cfg := devruntime.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return devruntime.Config{}, fmt.Errorf("load runtime config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("token") {
		cfg.Token = raw.Token
	}
	if meta.IsDefined("worker_types") {
		cfg.WorkerTypes = raw.WorkerTypes
	}
	if meta.IsDefined("players") {
		if raw.Players < 0 {
			return devruntime.Config{}, fmt.Errorf("load runtime config: players must not be negative, got %d", raw.Players)
		}
		cfg.Players = raw.Players
	}
	if meta.IsDefined("guest_name") {
		cfg.GuestName = strings.TrimSpace(raw.GuestName)
	}
	if meta.IsDefined("session_security_mode") {
		cfg.Session.SecurityMode = session.SecurityMode(strings.TrimSpace(raw.SessionSecurityMode))
	}
	if meta.IsDefined("session_tls_enabled") {
		cfg.Session.TLS.Enabled = raw.SessionTLSEnabled
	}
	if meta.IsDefined("session_tls_mutual") {
		cfg.Session.TLS.Mutual = raw.SessionTLSMutual
	}
	if meta.IsDefined("session_tls_cert_file") {
		cfg.Session.TLS.CertFile = strings.TrimSpace(raw.SessionTLSCertFile)
	}
	if meta.IsDefined("session_tls_key_file") {
		cfg.Session.TLS.KeyFile = strings.TrimSpace(raw.SessionTLSKeyFile)
	}
	if meta.IsDefined("session_tls_ca_file") {
		cfg.Session.TLS.CAFile = strings.TrimSpace(raw.SessionTLSCAFile)
	}

	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return devruntime.Config{}, fmt.Errorf("load runtime config: addr is required")
	}
	if cfg.Session.TLS.Enabled {
		if err := cfg.Session.ValidateServerTransport(); err != nil {
			return devruntime.Config{}, fmt.Errorf("load runtime config: %w", err)
		}
	}
	cfg.Session = cfg.Session.WithDefaults()
	return cfg, nil
}
