package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Backend.BaseURL != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[backend]
base-url = "http://example.test"
timeout = "5s"

[dashboard]
kind = "ward"
scope = 12
search-mode = "fuzzy"

[server]
driver = "postgres"
origins = ["http://localhost:5173"]

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Backend.BaseURL == nil || *cfg.Backend.BaseURL != "http://example.test" {
		t.Fatalf("unexpected base url: %v", cfg.Backend.BaseURL)
	}
	if cfg.Dashboard.Scope == nil || *cfg.Dashboard.Scope != 12 {
		t.Fatalf("unexpected scope: %v", cfg.Dashboard.Scope)
	}
	if cfg.Server.Origins == nil || len(*cfg.Server.Origins) != 1 {
		t.Fatalf("unexpected origins: %v", cfg.Server.Origins)
	}
	if cfg.Dashboard.District != nil {
		t.Fatalf("expected unset district, got %v", *cfg.Dashboard.District)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[backend\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[backend]\nbase-url = \"http://file.test\"\n\n[log]\nlevel = \"warn\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BOOTHDESK_BASE_URL", "http://env.test")
	t.Setenv("BOOTHDESK_SCOPE", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Backend.BaseURL != "http://env.test" {
		t.Fatalf("expected env base url, got %s", *cfg.Backend.BaseURL)
	}
	if cfg.Dashboard.Scope == nil || *cfg.Dashboard.Scope != 7 {
		t.Fatalf("expected env scope 7, got %v", cfg.Dashboard.Scope)
	}
	if *cfg.Log.Level != "warn" {
		t.Fatalf("expected file log level to survive, got %s", *cfg.Log.Level)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("BOOTHDESK_DB_DRIVER=postgres\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BOOTHDESK_DB_DRIVER", "")
	if err := os.Unsetenv("BOOTHDESK_DB_DRIVER"); err != nil {
		t.Fatalf("unset env: %v", err)
	}

	cfg, err := LoadEnv(envPath, filepath.Join(dir, ".env.local"))
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.DBDriver == nil || *cfg.DBDriver != "postgres" {
		t.Fatalf("expected driver from env file, got %v", cfg.DBDriver)
	}
	if cfg.LogPath != nil {
		t.Fatalf("expected unset log path, got %v", *cfg.LogPath)
	}
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	s.Kind = "precinct"
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "--kind must be one of: booth, ward") {
		t.Fatalf("unexpected kind error: %v", err)
	}

	s = DefaultSettings()
	s.Timeout = 0
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "--timeout") {
		t.Fatalf("unexpected timeout error: %v", err)
	}

	s = DefaultSettings()
	s.BaseURL = "not a url"
	if err := s.Validate(); err == nil || !strings.Contains(err.Error(), "--base-url") {
		t.Fatalf("unexpected base url error: %v", err)
	}
}

func TestParseTimeout(t *testing.T) {
	d, err := ParseTimeout(" 15s ")
	if err != nil || d != 15*time.Second {
		t.Fatalf("expected 15s, got %v (%v)", d, err)
	}
	if _, err := ParseTimeout("soon"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "boothdesk", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "boothdesk", "boothdesk.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
	if got := DefaultLogPath(); got != filepath.Join("/state", "boothdesk", "boothdesk.log") {
		t.Fatalf("unexpected log path: %s", got)
	}
}
