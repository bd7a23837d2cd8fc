package storage

import (
	"errors"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// Config locates the blob container that archives uploaded lead files. A
// connection string wins over ServiceURL; ServiceURL alone authenticates
// through the ambient Azure credential chain.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
	MaxRetries       int    `toml:"max_retries"`
}

type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
	MaxRetries       string
}

func (c *Config) UsesCredential() bool {
	return c.ConnectionString == "" && c.ServiceURL != ""
}

func (c *Config) Finalize(env *Env) error {
	overrides.Default(&c.ContainerName, "beacon")
	overrides.Default(&c.MaxRetries, 3)
	if env != nil {
		overrides.Env(&c.ContainerName, env.ContainerName)
		overrides.Env(&c.ConnectionString, env.ConnectionString)
		overrides.Env(&c.ServiceURL, env.ServiceURL)
		overrides.EnvInt(&c.MaxRetries, env.MaxRetries)
	}

	switch {
	case c.ContainerName == "":
		return errors.New("container_name required")
	case c.ConnectionString == "" && c.ServiceURL == "":
		return errors.New("connection_string or service_url required")
	case c.MaxRetries < 0:
		return errors.New("max_retries must not be negative")
	}
	return nil
}

func (c *Config) Merge(overlay *Config) {
	overrides.Overlay(&c.ContainerName, overlay.ContainerName)
	overrides.Overlay(&c.ConnectionString, overlay.ConnectionString)
	overrides.Overlay(&c.ServiceURL, overlay.ServiceURL)
	overrides.Overlay(&c.MaxRetries, overlay.MaxRetries)
}
