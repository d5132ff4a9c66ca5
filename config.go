package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the application configuration loaded from config.toml in
// the data directory, with environment overrides applied on top.
type Config struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	AI     AIConfig     `toml:"ai"`
}

// ServerConfig configures the web dashboard.
type ServerConfig struct {
	Port int `toml:"port"`
}

// DataConfig configures dataset locations and defaults.
type DataConfig struct {
	// DefaultYear is the year selected when the dashboard opens; zero
	// means the latest year in the dataset.
	DefaultYear int `toml:"default_year"`
	// BaseURL is where the download command fetches the JSON files from.
	BaseURL string `toml:"base_url"`
}

// AIConfig configures the AI analyst.
type AIConfig struct {
	MaxSQLRetries int `toml:"max_sql_retries"`
	CacheTTLHours int `toml:"cache_ttl_hours"`
}

// DefaultConfig returns the configuration used when config.toml is
// absent.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Data: DataConfig{
			DefaultYear: 0,
			BaseURL:     "https://raw.githubusercontent.com/mliatlas/data/main",
		},
		AI: AIConfig{
			MaxSQLRetries: 3,
			CacheTTLHours: 24 * 7,
		},
	}
}

// LoadConfig reads config.toml from dataDir, merging it over the
// defaults. A missing file is not an error. Environment variables win
// over the file: MLIATLAS_PORT and MLIATLAS_BASE_URL.
func LoadConfig(dataDir string) (*Config, error) {
	config := DefaultConfig()

	configPath := filepath.Join(dataDir, "config.toml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
	} else {
		if err := toml.Unmarshal(data, config); err != nil {
			if logger != nil {
				logger.Error("Failed to parse config file", "error", err, "path", configPath)
			}
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	}

	if v := os.Getenv("MLIATLAS_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("MLIATLAS_BASE_URL"); v != "" {
		config.Data.BaseURL = v
	}

	if config.AI.MaxSQLRetries < 0 {
		config.AI.MaxSQLRetries = 0
	} else if config.AI.MaxSQLRetries > 5 {
		config.AI.MaxSQLRetries = 5
	}

	return config, nil
}

// SaveConfig writes the configuration back to config.toml in dataDir.
func SaveConfig(dataDir string, config *Config) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dataDir, "config.toml"), data, 0644)
}
