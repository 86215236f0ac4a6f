package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/worldsync/internal/protocol/session"
	"github.com/danmuck/worldsync/internal/testutil/testlog"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsGenerateWorkerID(t *testing.T) {
	testlog.Start(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != Default().Address || cfg.FrameRate != 30 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasPrefix(cfg.WorkerID, "managed-") || len(cfg.WorkerID) <= len("managed-") {
		t.Fatalf("expected generated worker id, got %q", cfg.WorkerID)
	}
	other, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if other.WorkerID == cfg.WorkerID {
		t.Fatalf("generated worker ids must differ")
	}
}

func TestLoadFileOverlaysOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, `
address = "runtime:7000"
worker_id = "physics-1"
attributes = ["physics", " ", "gpu"]
frame_rate = 60

[session]
connect_timeout = "2s"

[session.backoff]
jitter = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != "runtime:7000" || cfg.WorkerID != "physics-1" || cfg.FrameRate != 60 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.Attributes) != 2 || cfg.Attributes[1] != "gpu" {
		t.Fatalf("attributes: %v", cfg.Attributes)
	}
	if cfg.Session.ConnectTimeout != 2*time.Second {
		t.Fatalf("connect timeout: %v", cfg.Session.ConnectTimeout)
	}
	if cfg.Session.Backoff.Jitter {
		t.Fatalf("jitter should be disabled by the file")
	}
	def := session.DefaultConfig()
	if cfg.Session.WriteTimeout != def.WriteTimeout || cfg.Session.Backoff.MaxDelay != def.Backoff.MaxDelay {
		t.Fatalf("undefined keys must keep defaults: %+v", cfg.Session)
	}
	if cfg.MetricsAddr != Default().MetricsAddr {
		t.Fatalf("metrics addr changed: %q", cfg.MetricsAddr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, `
address = "runtime:7000"
frame_rate = 60
`)
	t.Setenv("WORLDSYNC_ADDRESS", "override:9000")
	t.Setenv("WORLDSYNC_ATTRIBUTES", "a,b")
	t.Setenv("WORLDSYNC_SESSION_WRITE_TIMEOUT", "3s")
	t.Setenv("WORLDSYNC_SESSION_TLS_SERVER_NAME", "runtime.local")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Address != "override:9000" {
		t.Fatalf("address: %q", cfg.Address)
	}
	if cfg.FrameRate != 60 {
		t.Fatalf("frame rate from file lost: %d", cfg.FrameRate)
	}
	if len(cfg.Attributes) != 2 || cfg.Attributes[0] != "a" {
		t.Fatalf("attributes: %v", cfg.Attributes)
	}
	if cfg.Session.WriteTimeout != 3*time.Second {
		t.Fatalf("write timeout: %v", cfg.Session.WriteTimeout)
	}
	if cfg.Session.TLS.ServerName != "runtime.local" {
		t.Fatalf("tls server name: %q", cfg.Session.TLS.ServerName)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad duration": "[session]\nconnect_timeout = \"soon\"\n",
		"unknown key":  "adress = \"typo:1\"\n",
		"frame rate":   "frame_rate = 0\n",
		"log level":    "log_level = \"loud\"\n",
		"production":   "[session]\nsecurity_mode = \"production\"\n",
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(writeFile(t, "frame_rate = -1\n")); !errors.Is(err, ErrInvalidFrameRate) {
		t.Fatalf("expected ErrInvalidFrameRate, got %v", err)
	}
}

func TestTemplateLoadsBackToDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "worker.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}

	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load template: %v", err)
	}
	want := Default()
	if cfg.Address != want.Address || cfg.FrameRate != want.FrameRate || cfg.Session.Backoff != want.Session.Backoff {
		t.Fatalf("template drifted from defaults:\ngot  %+v\nwant %+v", cfg, want)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `connect_timeout = "5s"`) {
		t.Fatalf("durations should encode as strings:\n%s", buf.String())
	}
}

func TestClientAndFrameInterval(t *testing.T) {
	testlog.Start(t)
	cfg := Default()
	cfg.WorkerID = "w-1"
	cfg.Token = "secret"
	cfg.FrameRate = 20
	if got := cfg.FrameInterval(); got != 50*time.Millisecond {
		t.Fatalf("frame interval: %v", got)
	}
	client := cfg.Client()
	if client.Address != cfg.Address || client.WorkerID != "w-1" || client.Token != "secret" || client.MaxConnectAttempts != cfg.MaxConnectAttempts {
		t.Fatalf("unexpected client config: %+v", client)
	}
}
