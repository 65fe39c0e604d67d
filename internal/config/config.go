// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the HTTP server's runtime settings.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"OVERDRAW_ADDR" envDefault:":8089"`
	// DBPath locates the SQLite database; empty disables persistence.
	DBPath string `env:"OVERDRAW_DB" envDefault:""`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
