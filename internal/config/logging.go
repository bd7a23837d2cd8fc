package config

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// LoggingConfig sets the level and the optional JSON log file written
// alongside stderr.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// SlogLevel falls back to info when Level does not parse.
func (c *LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *LoggingConfig) Finalize() error {
	overrides.Default(&c.Level, "info")
	overrides.Env(&c.Level, "BEACON_LOG_LEVEL")
	overrides.Env(&c.File, "BEACON_LOG_FILE")

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level: %q", c.Level)
	}
	return nil
}

func (c *LoggingConfig) Merge(overlay *LoggingConfig) {
	overrides.Overlay(&c.Level, overlay.Level)
	overrides.Overlay(&c.File, overlay.File)
}
