package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/worldsync/internal/testutil/testlog"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	testlog.Start(t)
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestConfigInitThenValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "worker.toml")
	if _, err := execute(t, "config", "init", path); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if _, err := execute(t, "config", "init", path); err == nil {
		t.Fatalf("expected init to refuse overwrite")
	}
	if _, err := execute(t, "config", "init", "--force", path); err != nil {
		t.Fatalf("forced init: %v", err)
	}

	t.Setenv("WORLDSYNC_TOKEN", "secret")
	out, err := execute(t, "--config", path, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if strings.Contains(out, "secret") || !strings.Contains(out, "<redacted>") {
		t.Fatalf("token must be redacted:\n%s", out)
	}
	if !strings.Contains(out, `address = "127.0.0.1:7777"`) {
		t.Fatalf("unexpected config output:\n%s", out)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "worker.toml")
	if err := os.WriteFile(path, []byte("frame_rate = 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := execute(t, "--config", path, "run"); err == nil {
		t.Fatalf("expected run to fail on invalid config")
	}
}
