// Package config loads the optional TOML configuration file the driver
// reads at startup.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Configuration holds the settings that can come from either the config
// file or command-line flags; flags always win when both are set.
type Configuration struct {
	Logging    Logging `toml:"logging"`
	HistoryDSN string  `toml:"history_dsn"`
}

// Logging configures the structured logger the driver builds.
type Logging struct {
	Level string `toml:"level"` // trace, debug, info, warn, error, none
	File  string `toml:"file"`  // empty means stderr
}

// Default returns the configuration used when no config file is supplied.
// The logger is silent by default; "none" is the driver's own default level.
func Default() *Configuration {
	return &Configuration{Logging: Logging{Level: "none"}}
}

// Load reads and parses a TOML configuration file at path.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return cfg, nil
}
