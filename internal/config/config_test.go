package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.GetLevel() != "debug" {
		t.Errorf("level = %q, want debug", cfg.Log.GetLevel())
	}
	if cfg.Database.Path != "./scriptd.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Manifest != "manifest.yaml" {
		t.Errorf("manifest = %q", cfg.Manifest)
	}
	if cfg.Fetch.Timeout.Duration() != 30*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fetch.Timeout.Duration())
	}
	if cfg.Runtime.QueueSize != 100 {
		t.Errorf("runtime queue size = %d", cfg.Runtime.QueueSize)
	}
	if cfg.Journal.RetentionDays != 30 {
		t.Errorf("retention = %d", cfg.Journal.RetentionDays)
	}
	if cfg.Status.Port != 9090 {
		t.Errorf("status port = %d", cfg.Status.Port)
	}
	if cfg.EventBus.GetWorkers() != 4 || cfg.EventBus.GetQueueSize() != 100 {
		t.Errorf("eventbus defaults = %d/%d", cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())
	}
}

func TestLoad_DurationsAndEnvExpansion(t *testing.T) {
	t.Setenv("SCRIPTD_DB", "/tmp/custom.sqlite")

	cfg, err := Load(writeConfig(t, `
database:
  path: ${SCRIPTD_DB}
fetch:
  timeout: 5s
manifest: ${SCRIPTD_MANIFEST:fallback.yaml}
shutdown_timeout: 1s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/tmp/custom.sqlite" {
		t.Errorf("database path = %q, want env value", cfg.Database.Path)
	}
	if cfg.Manifest != "fallback.yaml" {
		t.Errorf("manifest = %q, want default from ${VAR:default}", cfg.Manifest)
	}
	if cfg.Fetch.Timeout.Duration() != 5*time.Second {
		t.Errorf("fetch timeout = %v, want 5s", cfg.Fetch.Timeout.Duration())
	}
	if cfg.GetShutdownTimeout() != time.Second {
		t.Errorf("shutdown timeout = %v, want 1s", cfg.GetShutdownTimeout())
	}
}

func TestLoad_BadDuration(t *testing.T) {
	if _, err := Load(writeConfig(t, "fetch:\n  timeout: soon\n")); err == nil {
		t.Error("expected error for unparseable duration")
	}
}
