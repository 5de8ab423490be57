// Package config resolves runtime settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config holds runtime settings.
type Config struct {
	Backend     string `yaml:"backend"`
	DBPath      string `yaml:"db_path"`
	Locale      string `yaml:"locale"`
	LogLevel    string `yaml:"log_level"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backend:  BackendSQLite,
		DBPath:   "./data/roster.db",
		Locale:   "en",
		LogLevel: "info",
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when path
// is empty) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.Backend = getEnv("ROSTER_BACKEND", cfg.Backend)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.Locale = getEnv("ROSTER_LOCALE", cfg.Locale)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = getEnv("METRICS_ADDR", cfg.MetricsAddr)

	return cfg, cfg.Validate()
}

// Validate checks the settings are usable.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q: must be %s or %s", c.Backend, BackendSQLite, BackendMemory)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
