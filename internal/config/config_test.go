package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadOverlaysOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, `log_level = "debug"`+"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.MaxSleepChunkMS != Default().MaxSleepChunkMS {
		t.Fatalf("MaxSleepChunkMS = %d, want default unchanged", cfg.MaxSleepChunkMS)
	}
}

func TestLoadRejectsNonPositiveSleepChunk(t *testing.T) {
	path := writeConfig(t, "max_sleep_chunk_ms = 0\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-positive max_sleep_chunk_ms")
	}
}
