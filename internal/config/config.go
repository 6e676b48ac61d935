// Package config loads the indexer's configuration from defaults, an
// optional YAML file, then environment variables, in that order of
// increasing precedence — the teacher's own Load/loadEnv layering,
// generalized to the settings this service needs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the indexer's full runtime configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Gate     GateConfig     `yaml:"gate"`
}

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds the PostgreSQL connection string. Unlike every
// other setting, it has no default: spec §6 requires startup to fail
// fatally when it is absent.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// GateConfig holds the Serialization Gate's default acquire TTL.
type GateConfig struct {
	DefaultTTLMs int `yaml:"default_ttl_ms"`
}

// DefaultTTL returns the gate's default TTL as a time.Duration.
func (g GateConfig) DefaultTTL() time.Duration {
	return time.Duration(g.DefaultTTLMs) * time.Millisecond
}

// Load loads configuration from a YAML file at path (if it exists)
// and then environment variables, applying defaults first.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Gate: GateConfig{
			DefaultTTLMs: 5000, // spec §4.5's default gate TTL
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.loadEnv()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if ttl := os.Getenv("GATE_DEFAULT_TTL_MS"); ttl != "" {
		if v, err := strconv.Atoi(ttl); err == nil && v > 0 {
			c.Gate.DefaultTTLMs = v
		}
	}
}
