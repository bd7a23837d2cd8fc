package middleware

import (
	"errors"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// CORSConfig is the cross-origin policy for browser clients of the API.
type CORSConfig struct {
	Enabled          bool     `toml:"enabled"`
	Origins          []string `toml:"origins"`
	AllowedMethods   []string `toml:"allowed_methods"`
	AllowedHeaders   []string `toml:"allowed_headers"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           int      `toml:"max_age"`
}

// CORSEnv names the environment variables that override each CORSConfig field.
type CORSEnv struct {
	Enabled          string
	Origins          string
	AllowedMethods   string
	AllowedHeaders   string
	AllowCredentials string
	MaxAge           string
}

func (c *CORSConfig) Finalize(env *CORSEnv) error {
	if len(c.AllowedMethods) == 0 {
		c.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(c.AllowedHeaders) == 0 {
		c.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	overrides.Default(&c.MaxAge, 3600)

	if env != nil {
		overrides.EnvBool(&c.Enabled, env.Enabled)
		overrides.EnvList(&c.Origins, env.Origins)
		overrides.EnvList(&c.AllowedMethods, env.AllowedMethods)
		overrides.EnvList(&c.AllowedHeaders, env.AllowedHeaders)
		overrides.EnvBool(&c.AllowCredentials, env.AllowCredentials)
		overrides.EnvInt(&c.MaxAge, env.MaxAge)
	}

	if c.MaxAge < 0 {
		return errors.New("max_age must not be negative")
	}
	if c.Enabled && c.AllowCredentials && len(c.Origins) == 0 {
		return errors.New("allow_credentials requires at least one origin")
	}
	return nil
}

// Merge applies overlay on top of c. The two booleans always take the
// overlay's value; lists and max_age only when set.
func (c *CORSConfig) Merge(overlay *CORSConfig) {
	c.Enabled = overlay.Enabled
	c.AllowCredentials = overlay.AllowCredentials
	overrides.OverlaySlice(&c.Origins, overlay.Origins)
	overrides.OverlaySlice(&c.AllowedMethods, overlay.AllowedMethods)
	overrides.OverlaySlice(&c.AllowedHeaders, overlay.AllowedHeaders)
	overrides.Overlay(&c.MaxAge, overlay.MaxAge)
}
