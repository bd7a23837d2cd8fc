package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/beacon/pkg/overrides"
)

// Config locates the PostgreSQL database holding lead predictions and sizes
// its connection pool.
type Config struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	ApplicationName string `toml:"application_name"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env names the environment variables that override each field.
type Env struct {
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

// URL returns the connection URL understood by both pgx and golang-migrate.
func (c *Config) URL() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ApplicationName != "" {
		q.Set("application_name", c.ApplicationName)
	}
	if d := overrides.MustDuration(c.ConnTimeout); d > 0 {
		q.Set("connect_timeout", strconv.Itoa(max(int(d/time.Second), 1)))
	}

	user := url.User(c.User)
	if c.Password != "" {
		user = url.UserPassword(c.User, c.Password)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Finalize fills defaults, applies env, and validates.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge takes every non-zero field of overlay.
func (c *Config) Merge(overlay *Config) {
	overrides.Overlay(&c.Host, overlay.Host)
	overrides.Overlay(&c.Port, overlay.Port)
	overrides.Overlay(&c.Name, overlay.Name)
	overrides.Overlay(&c.User, overlay.User)
	overrides.Overlay(&c.Password, overlay.Password)
	overrides.Overlay(&c.SSLMode, overlay.SSLMode)
	overrides.Overlay(&c.ApplicationName, overlay.ApplicationName)
	overrides.Overlay(&c.MaxOpenConns, overlay.MaxOpenConns)
	overrides.Overlay(&c.MaxIdleConns, overlay.MaxIdleConns)
	overrides.Overlay(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	overrides.Overlay(&c.ConnTimeout, overlay.ConnTimeout)
}

func (c *Config) loadDefaults() {
	overrides.Default(&c.Host, "localhost")
	overrides.Default(&c.Port, 5432)
	overrides.Default(&c.SSLMode, "disable")
	overrides.Default(&c.ApplicationName, "beacon")
	overrides.Default(&c.MaxOpenConns, 10)
	overrides.Default(&c.MaxIdleConns, 2)
	overrides.Default(&c.ConnMaxLifetime, "15m")
	overrides.Default(&c.ConnTimeout, "5s")
}

func (c *Config) loadEnv(env *Env) {
	overrides.Env(&c.Host, env.Host)
	overrides.EnvInt(&c.Port, env.Port)
	overrides.Env(&c.Name, env.Name)
	overrides.Env(&c.User, env.User)
	overrides.Env(&c.Password, env.Password)
	overrides.Env(&c.SSLMode, env.SSLMode)
	overrides.Env(&c.ApplicationName, env.ApplicationName)
	overrides.EnvInt(&c.MaxOpenConns, env.MaxOpenConns)
	overrides.EnvInt(&c.MaxIdleConns, env.MaxIdleConns)
	overrides.Env(&c.ConnMaxLifetime, env.ConnMaxLifetime)
	overrides.Env(&c.ConnTimeout, env.ConnTimeout)
}

func (c *Config) validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.User == "":
		return fmt.Errorf("user required")
	case c.MaxIdleConns > c.MaxOpenConns:
		return fmt.Errorf("max_idle_conns (%d) exceeds max_open_conns (%d)", c.MaxIdleConns, c.MaxOpenConns)
	}
	if _, err := overrides.Duration("conn_max_lifetime", c.ConnMaxLifetime); err != nil {
		return err
	}
	if _, err := overrides.Duration("conn_timeout", c.ConnTimeout); err != nil {
		return err
	}
	return nil
}
