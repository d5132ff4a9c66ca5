package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Data.DefaultYear != 0 {
		t.Errorf("Expected default year 0 (latest), got %d", cfg.Data.DefaultYear)
	}
	if cfg.Data.BaseURL == "" {
		t.Error("Expected a default base URL")
	}
	if cfg.AI.MaxSQLRetries != 3 {
		t.Errorf("Expected 3 SQL retries, got %d", cfg.AI.MaxSQLRetries)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	doc := `
[server]
port = 9191

[data]
default_year = 2021
base_url = "https://example.com/data"

[ai]
max_sql_retries = 2
cache_ttl_hours = 12
`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Data.DefaultYear != 2021 {
		t.Errorf("Expected default year 2021, got %d", cfg.Data.DefaultYear)
	}
	if cfg.Data.BaseURL != "https://example.com/data" {
		t.Errorf("Unexpected base URL %q", cfg.Data.BaseURL)
	}
	if cfg.AI.CacheTTLHours != 12 {
		t.Errorf("Expected cache TTL 12, got %d", cfg.AI.CacheTTLHours)
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[server\nport ="), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("Expected error for malformed config, got nil")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MLIATLAS_PORT", "3000")
	t.Setenv("MLIATLAS_BASE_URL", "https://mirror.example.com")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Expected env port 3000, got %d", cfg.Server.Port)
	}
	if cfg.Data.BaseURL != "https://mirror.example.com" {
		t.Errorf("Expected env base URL, got %q", cfg.Data.BaseURL)
	}
}

func TestLoadConfigClampsRetries(t *testing.T) {
	tmpDir := t.TempDir()
	doc := "[ai]\nmax_sql_retries = 99\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AI.MaxSQLRetries != 5 {
		t.Errorf("Expected retries clamped to 5, got %d", cfg.AI.MaxSQLRetries)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Server.Port = 4242
	if err := SaveConfig(tmpDir, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Server.Port != 4242 {
		t.Errorf("Expected port 4242 after round trip, got %d", loaded.Server.Port)
	}
}
