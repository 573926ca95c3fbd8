// Package config provides configuration management for the ledger service.
// It loads configuration from environment variables and .env files, with an
// optional YAML file overriding the defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Debug    bool           `yaml:"debug"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port           string `yaml:"port"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
}

// DatabaseConfig represents SQLite storage configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	timeout, err := parseIntEnv("LMS_REQUEST_TIMEOUT", 60)
	if err != nil {
		return nil, fmt.Errorf("invalid LMS_REQUEST_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvOrDefault("LMS_PORT", "8080"),
			RequestTimeout: timeout,
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("LMS_DB_PATH", "./data/ledger.db"),
		},
		Debug: os.Getenv("LMS_DEBUG") == "true",
	}

	// A YAML file, if configured, overrides the environment defaults.
	if path := os.Getenv("LMS_CONFIG_FILE"); path != "" {
		if err := cfg.mergeYAML(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks that required fields are set.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	return nil
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
