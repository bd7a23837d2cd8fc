// Package config loads the service configuration: config.toml, then an
// optional config.<BEACON_ENV>.toml overlay, then BEACON_* environment
// variables, with defaults filling whatever remains.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/beacon/internal/settings"
	"github.com/JaimeStill/beacon/pkg/database"
	"github.com/JaimeStill/beacon/pkg/overrides"
	"github.com/JaimeStill/beacon/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
)

// DatabaseEnv maps the record store settings to their BEACON_DB_* variables.
// cmd/migrate reads it too, so both binaries agree on where the store lives.
var DatabaseEnv = &database.Env{
	Host:            "BEACON_DB_HOST",
	Port:            "BEACON_DB_PORT",
	Name:            "BEACON_DB_NAME",
	User:            "BEACON_DB_USER",
	Password:        "BEACON_DB_PASSWORD",
	SSLMode:         "BEACON_DB_SSL_MODE",
	ApplicationName: "BEACON_DB_APPLICATION_NAME",
	MaxOpenConns:    "BEACON_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "BEACON_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "BEACON_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "BEACON_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "BEACON_STORAGE_CONTAINER_NAME",
	ConnectionString: "BEACON_STORAGE_CONNECTION_STRING",
	ServiceURL:       "BEACON_STORAGE_SERVICE_URL",
	MaxRetries:       "BEACON_STORAGE_MAX_RETRIES",
}

var settingsEnv = &settings.Env{
	Path: "BEACON_SETTINGS_PATH",
}

type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Settings        settings.Config `toml:"settings"`
	Remote          RemoteConfig    `toml:"remote"`
	Logging         LoggingConfig   `toml:"logging"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env is BEACON_ENV, or "local".
func (c *Config) Env() string {
	env := "local"
	overrides.Env(&env, "BEACON_ENV")
	return env
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return overrides.MustDuration(c.ShutdownTimeout)
}

// Load works without any file present; defaults and the environment then
// supply everything.
func Load() (*Config, error) {
	cfg, err := load(BaseConfigFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &Config{}
	case err != nil:
		return nil, err
	}

	overlay, err := load(fmt.Sprintf(OverlayConfigPattern, cfg.Env()))
	switch {
	case err == nil:
		cfg.Merge(overlay)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("load overlay: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Merge(overlay *Config) {
	overrides.Overlay(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	overrides.Overlay(&c.Version, overlay.Version)
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Settings.Merge(&overlay.Settings)
	c.Remote.Merge(&overlay.Remote)
	c.Logging.Merge(&overlay.Logging)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	overrides.Default(&c.ShutdownTimeout, "30s")
	overrides.Default(&c.Version, "0.1.0")
	overrides.Env(&c.ShutdownTimeout, "BEACON_SHUTDOWN_TIMEOUT")
	overrides.Env(&c.Version, "BEACON_VERSION")

	if _, err := overrides.Duration("shutdown_timeout", c.ShutdownTimeout); err != nil {
		return err
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(DatabaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"settings", func() error { return c.Settings.Finalize(settingsEnv) }},
		{"remote", c.Remote.Finalize},
		{"logging", c.Logging.Finalize},
		{"api", c.API.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
