package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "FOLIO_SERVER_HOST"
	EnvServerPort            = "FOLIO_SERVER_PORT"
	EnvServerReadTimeout     = "FOLIO_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "FOLIO_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "FOLIO_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds the workspace listener settings. The upload endpoint
// answers only after the whole document has been transferred, so
// WriteTimeout must cover the slowest expected transfer.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

// ShutdownTimeoutDuration bounds how long in-flight uploads may drain.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, FOLIO_SERVER_* overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range c.timeouts(overlay) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}

	defaults := map[*string]string{
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "15m",
		&c.ShutdownTimeout: "30s",
	}
	for field, v := range defaults {
		if *field == "" {
			*field = v
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}

	env := map[*string]string{
		&c.ReadTimeout:     EnvServerReadTimeout,
		&c.WriteTimeout:    EnvServerWriteTimeout,
		&c.ShutdownTimeout: EnvServerShutdownTimeout,
	}
	for field, name := range env {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.timeouts(c) {
		if _, err := time.ParseDuration(*f.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}

type timeoutField struct {
	name     string
	dst, src *string
}

// timeouts pairs each duration field of c with the same field of other.
func (c *ServerConfig) timeouts(other *ServerConfig) []timeoutField {
	return []timeoutField{
		{"read_timeout", &c.ReadTimeout, &other.ReadTimeout},
		{"write_timeout", &c.WriteTimeout, &other.WriteTimeout},
		{"shutdown_timeout", &c.ShutdownTimeout, &other.ShutdownTimeout},
	}
}

// mustDuration parses a duration already checked by validate.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
