// Package config loads accessorkit's runtime settings from a TOML file,
// in the same default-overlay style as the rest of the ecosystem: start
// from hardcoded defaults, then let whichever keys the file actually sets
// override them.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the settings a cmd/accessordemo-style binary needs to build
// and run a host.
type Config struct {
	LogLevel          string
	LogPretty         bool
	MaxSleepChunkMS   int64
	DefaultIterations int
	TopologyPath      string
}

// Default returns the settings used when no config file, or no overriding
// key, is present.
func Default() Config {
	return Config{
		LogLevel:          "info",
		LogPretty:         false,
		MaxSleepChunkMS:   3_600_000,
		DefaultIterations: 0,
		TopologyPath:      "",
	}
}

type fileConfig struct {
	LogLevel          string `toml:"log_level"`
	LogPretty         bool   `toml:"log_pretty"`
	MaxSleepChunkMS   int64  `toml:"max_sleep_chunk_ms"`
	DefaultIterations int    `toml:"default_iterations"`
	TopologyPath      string `toml:"topology_path"`
}

// Load reads path as TOML and overlays whichever keys it sets onto
// Default(). A key absent from the file leaves the corresponding default in
// place rather than zeroing it out.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %q: %w", path, err)
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_pretty") {
		cfg.LogPretty = raw.LogPretty
	}
	if meta.IsDefined("max_sleep_chunk_ms") {
		cfg.MaxSleepChunkMS = raw.MaxSleepChunkMS
	}
	if meta.IsDefined("default_iterations") {
		cfg.DefaultIterations = raw.DefaultIterations
	}
	if meta.IsDefined("topology_path") {
		cfg.TopologyPath = strings.TrimSpace(raw.TopologyPath)
	}

	if cfg.MaxSleepChunkMS <= 0 {
		return Config{}, fmt.Errorf("load config %q: max_sleep_chunk_ms must be positive", path)
	}
	return cfg, nil
}
