package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lox.toml")
	contents := `
history_dsn = "sqlite://history.db"

[logging]
level = "debug"
file = "lox.log"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HistoryDSN != "sqlite://history.db" {
		t.Errorf("got HistoryDSN %q, want %q", cfg.HistoryDSN, "sqlite://history.db")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("got Logging.Level %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.File != "lox.log" {
		t.Errorf("got Logging.File %q, want %q", cfg.Logging.File, "lox.log")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

func TestDefaultHasNoneLevel(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "none" {
		t.Errorf("got %q, want %q", cfg.Logging.Level, "none")
	}
}
