package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("RUN_LEASE_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", cfg.GeminiModel)
	}
	if cfg.RunLease() != 5*time.Minute {
		t.Fatalf("expected default 5m lease, got %v", cfg.RunLease())
	}
	if cfg.NATSSubject != "documents.extract" {
		t.Fatalf("expected default subject, got %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	file := []byte("gemini_model: from-file\nrun_lease_seconds: 600\nrate_limit_rps: 5\n")
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GEMINI_MODEL", "from-env")
	t.Setenv("RUN_LEASE_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GeminiModel != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.GeminiModel)
	}
	if cfg.RunLeaseSeconds != 600 {
		t.Fatalf("file must win over default, got %d", cfg.RunLeaseSeconds)
	}
	if cfg.RateLimitRPS != 5 {
		t.Fatalf("file rate limit lost, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RUN_MAX_ATTEMPTS", "0")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if got := err.Error(); got != "config: invalid value for RUN_MAX_ATTEMPTS" {
		t.Fatalf("error must name the key, got %q", got)
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
