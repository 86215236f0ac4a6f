package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/worldsync/internal/devruntime"
	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRuntimeConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
addr = "127.0.0.1:9443"
token = "dev"
worker_types = ["managed"]
players = 8
session_security_mode = "development"
session_tls_enabled = true
session_tls_cert_file = "/etc/runtime/server.crt"
session_tls_key_file = "/etc/runtime/server.key"
`)
	cfg, err := loadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9443" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.Token != "dev" || cfg.Players != 8 || len(cfg.WorkerTypes) != 1 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.GuestName != devruntime.DefaultConfig().GuestName {
		t.Fatalf("guest name should keep its default: %q", cfg.GuestName)
	}
	if !cfg.Session.TLS.Enabled || cfg.Session.TLS.CertFile != "/etc/runtime/server.crt" {
		t.Fatalf("unexpected tls config: %+v", cfg.Session.TLS)
	}
	if cfg.Session.WriteTimeout == 0 {
		t.Fatalf("session defaults not applied")
	}
}

func TestLoadRuntimeConfigRejectsInvalid(t *testing.T) {
	testlog.Start(t)
	if _, err := loadRuntimeConfig(writeConfig(t, "addr = \"  \"\n")); err == nil {
		t.Fatalf("expected empty addr to fail")
	}
	if _, err := loadRuntimeConfig(writeConfig(t, "players = -1\n")); err == nil {
		t.Fatalf("expected negative players to fail")
	}
	_, err := loadRuntimeConfig(writeConfig(t, "session_security_mode = \"production\"\nsession_tls_enabled = true\nsession_tls_cert_file = \"a\"\nsession_tls_key_file = \"b\"\n"))
	if !errors.Is(err, session.ErrMTLSRequired) {
		t.Fatalf("expected ErrMTLSRequired, got %v", err)
	}
}
