package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded from the working directory when present.
var DefaultEnvFiles = []string{".env", ".env.local"}

// EnvConfig holds overrides read from the environment. Unset variables stay
// nil.
type EnvConfig struct {
	BaseURL    *string `env:"BOOTHDESK_BASE_URL"`
	Timeout    *string `env:"BOOTHDESK_TIMEOUT"`
	Kind       *string `env:"BOOTHDESK_KIND"`
	District   *int64  `env:"BOOTHDESK_DISTRICT"`
	Scope      *int64  `env:"BOOTHDESK_SCOPE"`
	SearchMode *string `env:"BOOTHDESK_SEARCH_MODE"`
	Addr       *string `env:"BOOTHDESK_ADDR"`
	DBDriver   *string `env:"BOOTHDESK_DB_DRIVER"`
	DBDSN      *string `env:"BOOTHDESK_DB_DSN"`
	LogLevel   *string `env:"BOOTHDESK_LOG_LEVEL"`
	LogPath    *string `env:"BOOTHDESK_LOG_PATH"`
}

// LoadEnv loads the env files that exist, without overriding variables that
// are already set, and parses the BOOTHDESK_* variables.
func LoadEnv(files ...string) (EnvConfig, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return EnvConfig{}, fmt.Errorf("failed to load env files: %w", err)
		}
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Overlay returns base with every set environment value replacing the file
// value.
func (e EnvConfig) Overlay(base FileConfig) FileConfig {
	out := base
	overlay(&out.Backend.BaseURL, e.BaseURL)
	overlay(&out.Backend.Timeout, e.Timeout)
	overlay(&out.Dashboard.Kind, e.Kind)
	overlay(&out.Dashboard.District, e.District)
	overlay(&out.Dashboard.Scope, e.Scope)
	overlay(&out.Dashboard.SearchMode, e.SearchMode)
	overlay(&out.Server.Addr, e.Addr)
	overlay(&out.Server.Driver, e.DBDriver)
	overlay(&out.Server.DSN, e.DBDSN)
	overlay(&out.Log.Level, e.LogLevel)
	overlay(&out.Log.Path, e.LogPath)
	return out
}

func overlay[T any](target **T, value *T) {
	if value != nil {
		*target = value
	}
}
