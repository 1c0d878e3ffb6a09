package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"murmur/internal/config"
)

func TestDefaultNormalizesAndValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(cfg.Paths.DataDir, "logs")

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Whisper.TimeoutSeconds != 3600 {
		t.Fatalf("unexpected default timeout: %d", cfg.Whisper.TimeoutSeconds)
	}
	if cfg.Ingest.MaxRetryAttempts != 3 {
		t.Fatalf("unexpected default retry attempts: %d", cfg.Ingest.MaxRetryAttempts)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[whisper]
binary = "/opt/whisper/main"
language = "de"
timeout_seconds = 120

[ingest]
debounce_millis = 250
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %s, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Whisper.Binary != "/opt/whisper/main" || cfg.Whisper.Language != "de" {
		t.Fatalf("whisper overrides not applied: %+v", cfg.Whisper)
	}
	if cfg.Whisper.TimeoutSeconds != 120 {
		t.Fatalf("timeout override not applied: %d", cfg.Whisper.TimeoutSeconds)
	}
	if cfg.Ingest.DebounceMillis != 250 {
		t.Fatalf("debounce override not applied: %d", cfg.Ingest.DebounceMillis)
	}
	if cfg.Ingest.RetryDelaySecs != 5 {
		t.Fatalf("expected default retry delay, got %d", cfg.Ingest.RetryDelaySecs)
	}
	if cfg.Paths.SocketPath != filepath.Join(dir, "murmur.sock") {
		t.Fatalf("unexpected socket path: %s", cfg.Paths.SocketPath)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[logging]
format = "xml"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad logging format")
	} else if !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	written, err := config.WriteSample(path)
	if err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if written != path {
		t.Fatalf("unexpected path: %s", written)
	}
	if _, err := config.WriteSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "data", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "murmur.db") {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath())
	}
}
