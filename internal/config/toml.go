// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Backend   BackendConfig   `toml:"backend"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Server    ServerConfig    `toml:"server"`
	Log       LogConfig       `toml:"log"`
}

// BackendConfig maps the data backend connection.
type BackendConfig struct {
	BaseURL *string `toml:"base-url"`
	Timeout *string `toml:"timeout"`
}

// DashboardConfig maps the dashboard start-up view.
type DashboardConfig struct {
	Kind       *string `toml:"kind"`
	District   *int64  `toml:"district"`
	Scope      *int64  `toml:"scope"`
	SearchMode *string `toml:"search-mode"`
}

// ServerConfig maps the development backend.
type ServerConfig struct {
	Addr    *string   `toml:"addr"`
	Driver  *string   `toml:"driver"`
	DSN     *string   `toml:"dsn"`
	Origins *[]string `toml:"origins"`
}

// LogConfig maps log settings.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Load reads the TOML file, then lets environment variables (after loading
// envFiles) override its values.
func Load(path string, envFiles ...string) (FileConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return FileConfig{}, err
	}
	envCfg, err := LoadEnv(envFiles...)
	if err != nil {
		return FileConfig{}, err
	}
	return envCfg.Overlay(cfg), nil
}
