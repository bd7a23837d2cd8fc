// Package pagination pages in-memory views and reads page requests from
// query strings or JSON bodies.
package pagination

import (
	"errors"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// Config bounds the page sizes clients may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

func (c *Config) Finalize(env *ConfigEnv) error {
	overrides.Default(&c.DefaultPageSize, 10)
	overrides.Default(&c.MaxPageSize, 100)
	if env != nil {
		overrides.EnvInt(&c.DefaultPageSize, env.DefaultPageSize)
		overrides.EnvInt(&c.MaxPageSize, env.MaxPageSize)
	}

	switch {
	case c.DefaultPageSize < 1:
		return errors.New("default_page_size must be positive")
	case c.MaxPageSize < 1:
		return errors.New("max_page_size must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return errors.New("default_page_size cannot exceed max_page_size")
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	overrides.Overlay(&c.DefaultPageSize, overlay.DefaultPageSize)
	overrides.Overlay(&c.MaxPageSize, overlay.MaxPageSize)
}
