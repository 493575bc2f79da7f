// Package config loads daemon configuration from an optional YAML file and
// environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Addr         string  `yaml:"addr"`          // STEELHOOK_ADDR, default ":8080"
	DBPath       string  `yaml:"db"`            // STEELHOOK_DB, default "steelhook.db"
	HooksDir     string  `yaml:"hooks_dir"`     // STEELHOOK_HOOKS_DIR, default "hooks"
	HooksEnabled bool    `yaml:"hooks_enabled"` // STEELHOOK_HOOKS_ENABLED, default true
	LogLevel     string  `yaml:"log_level"`     // STEELHOOK_LOG_LEVEL, default "info"
	ZonesFile    string  `yaml:"zones_file"`    // STEELHOOK_ZONES_FILE, optional project seed
	FrameSpacing float64 `yaml:"frame_spacing"` // 0 disables frame coordinates
	FrameOrigin  float64 `yaml:"frame_origin"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Addr:         ":8080",
		DBPath:       "steelhook.db",
		HooksDir:     "hooks",
		HooksEnabled: true,
		LogLevel:     "info",
	}
}

// Load reads path (if non-empty) over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Addr = envOr("STEELHOOK_ADDR", cfg.Addr)
	cfg.DBPath = envOr("STEELHOOK_DB", cfg.DBPath)
	cfg.HooksDir = envOr("STEELHOOK_HOOKS_DIR", cfg.HooksDir)
	cfg.LogLevel = envOr("STEELHOOK_LOG_LEVEL", cfg.LogLevel)
	cfg.ZonesFile = envOr("STEELHOOK_ZONES_FILE", cfg.ZonesFile)
	if v := os.Getenv("STEELHOOK_HOOKS_ENABLED"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("STEELHOOK_HOOKS_ENABLED: %w", err)
		}
		cfg.HooksEnabled = on
	}

	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	if cfg.FrameSpacing < 0 {
		return Config{}, fmt.Errorf("frame_spacing must not be negative, got %g", cfg.FrameSpacing)
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
