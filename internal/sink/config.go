package sink

import (
	"fmt"
	"os"
	"time"
)

// Sink kinds.
const (
	KindHTTP  = "http"
	KindBlob  = "blob"
	KindLocal = "local"
)

// Config selects and configures the chunk destination.
type Config struct {
	Kind      string `toml:"kind"`
	Endpoint  string `toml:"endpoint"`
	Timeout   string `toml:"timeout"`
	Directory string `toml:"directory"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Kind      string
	Endpoint  string
	Timeout   string
	Directory string
}

// TimeoutDuration parses Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Directory != "" {
		c.Directory = overlay.Directory
	}
}

func (c *Config) loadDefaults() {
	if c.Kind == "" {
		c.Kind = KindLocal
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.Directory == "" {
		c.Directory = "uploads"
	}
}

func (c *Config) loadEnv(env *Env) {
	lookup := func(name string, target *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*target = v
		}
	}

	lookup(env.Kind, &c.Kind)
	lookup(env.Endpoint, &c.Endpoint)
	lookup(env.Timeout, &c.Timeout)
	lookup(env.Directory, &c.Directory)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	switch c.Kind {
	case KindHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint required for %s sink", KindHTTP)
		}
	case KindBlob:
	case KindLocal:
		if c.Directory == "" {
			return fmt.Errorf("directory required for %s sink", KindLocal)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}

	return nil
}
