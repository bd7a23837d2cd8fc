package settings

import (
	"errors"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// Config points at the local SQLite file holding user preferences.
type Config struct {
	Path string `toml:"path"`
}

type Env struct {
	Path string
}

func (c *Config) Finalize(env *Env) error {
	overrides.Default(&c.Path, "data/settings.db")
	if env != nil {
		overrides.Env(&c.Path, env.Path)
	}
	if c.Path == "" {
		return errors.New("path required")
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	overrides.Overlay(&c.Path, overlay.Path)
}
