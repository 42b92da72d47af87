package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bidtrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := newDefaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("data dir = %q, want data", cfg.Storage.DataDir)
	}
	if time.Duration(cfg.Session.TTL) != 30*time.Minute {
		t.Errorf("session ttl = %v, want 30m", time.Duration(cfg.Session.TTL))
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("cors origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 45s
storage:
  data_dir: /var/lib/bidtrack
session:
  ttl: 1h
cors:
  allowed_origins:
    - https://bids.example.com
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ReadTimeout) != 45*time.Second {
		t.Errorf("read timeout = %v, want 45s", time.Duration(cfg.Server.ReadTimeout))
	}
	// Unset fields keep their defaults.
	if time.Duration(cfg.Server.WriteTimeout) != 30*time.Second {
		t.Errorf("write timeout = %v, want default 30s", time.Duration(cfg.Server.WriteTimeout))
	}
	if cfg.Storage.DataDir != "/var/lib/bidtrack" {
		t.Errorf("data dir = %q", cfg.Storage.DataDir)
	}
	if time.Duration(cfg.Session.TTL) != time.Hour {
		t.Errorf("ttl = %v, want 1h", time.Duration(cfg.Session.TTL))
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://bids.example.com" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadFromFile on missing path succeeded")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BIDTRACK_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("BIDTRACK_PORT", "7070")
	t.Setenv("BIDTRACK_DATA_DIR", "/srv/bids")
	t.Setenv("BIDTRACK_SESSION_TTL", "90m")
	t.Setenv("BIDTRACK_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("BIDTRACK_LOG_LEVEL", "debug")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env override lost to file", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/srv/bids" {
		t.Errorf("data dir = %q", cfg.Storage.DataDir)
	}
	if time.Duration(cfg.Session.TTL) != 90*time.Minute {
		t.Errorf("ttl = %v, want 90m", time.Duration(cfg.Session.TTL))
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newDefaults()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate passed, want error")
			}
		})
	}
}

func TestInvalidDurationRejected(t *testing.T) {
	path := writeConfig(t, "server:\n  read_timeout: soon\n")
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("LoadFromFile accepted invalid duration")
	}
}
