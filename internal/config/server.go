package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// ServerConfig is the HTTP listener. Write timeout stays long because the
// ingestion and dataset event streams hold responses open.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return overrides.MustDuration(c.ReadTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return overrides.MustDuration(c.WriteTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return overrides.MustDuration(c.ShutdownTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return overrides.MustDuration(c.IdleTimeout)
}

func (c *ServerConfig) Finalize() error {
	overrides.Default(&c.Host, "0.0.0.0")
	overrides.Default(&c.Port, 8080)
	overrides.Default(&c.ReadTimeout, "1m")
	overrides.Default(&c.WriteTimeout, "15m")
	overrides.Default(&c.ShutdownTimeout, "30s")
	overrides.Default(&c.IdleTimeout, "2m")

	overrides.Env(&c.Host, "BEACON_SERVER_HOST")
	overrides.EnvInt(&c.Port, "BEACON_SERVER_PORT")
	overrides.Env(&c.ReadTimeout, "BEACON_SERVER_READ_TIMEOUT")
	overrides.Env(&c.WriteTimeout, "BEACON_SERVER_WRITE_TIMEOUT")
	overrides.Env(&c.ShutdownTimeout, "BEACON_SERVER_SHUTDOWN_TIMEOUT")
	overrides.Env(&c.IdleTimeout, "BEACON_SERVER_IDLE_TIMEOUT")

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range [][2]string{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
		{"idle_timeout", c.IdleTimeout},
	} {
		if _, err := overrides.Duration(d[0], d[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *ServerConfig) Merge(overlay *ServerConfig) {
	overrides.Overlay(&c.Host, overlay.Host)
	overrides.Overlay(&c.Port, overlay.Port)
	overrides.Overlay(&c.ReadTimeout, overlay.ReadTimeout)
	overrides.Overlay(&c.WriteTimeout, overlay.WriteTimeout)
	overrides.Overlay(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	overrides.Overlay(&c.IdleTimeout, overlay.IdleTimeout)
}
