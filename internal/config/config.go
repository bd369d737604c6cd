// Package config loads the Folio configuration from config.toml, an optional
// config.<FOLIO_ENV>.toml overlay, and FOLIO_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/folio/internal/sink"
	"github.com/JaimeStill/folio/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvFolioEnv             = "FOLIO_ENV"
	EnvFolioShutdownTimeout = "FOLIO_SHUTDOWN_TIMEOUT"
	EnvFolioVersion         = "FOLIO_VERSION"
)

var storageEnv = &storage.Env{
	ContainerName:    "FOLIO_STORAGE_CONTAINER_NAME",
	ConnectionString: "FOLIO_STORAGE_CONNECTION_STRING",
	ServiceURL:       "FOLIO_STORAGE_SERVICE_URL",
}

var sinkEnv = &sink.Env{
	Kind:      "FOLIO_SINK_KIND",
	Endpoint:  "FOLIO_SINK_ENDPOINT",
	Timeout:   "FOLIO_SINK_TIMEOUT",
	Directory: "FOLIO_SINK_DIRECTORY",
}

// Config is the root configuration for Folio.
type Config struct {
	Server          ServerConfig   `toml:"server"`
	API             APIConfig      `toml:"api"`
	Pipeline        PipelineConfig `toml:"pipeline"`
	Sink            sink.Config    `toml:"sink"`
	Storage         storage.Config `toml:"storage"`
	ShutdownTimeout string         `toml:"shutdown_timeout"`
	Version         string         `toml:"version"`
}

// Env returns the FOLIO_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvFolioEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// UsesStorage reports whether the configured sink needs blob storage.
func (c *Config) UsesStorage() bool {
	return c.Sink.Kind == sink.KindBlob
}

// Load reads config.toml from the working directory (if present), applies any
// environment overlay, and finalizes all values.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile is Load with an explicit base file. The overlay is resolved next
// to path. A missing base file leaves defaults and environment variables to
// provide all configuration.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Sink.Merge(&overlay.Sink)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Sink.Finalize(sinkEnv); err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if c.UsesStorage() {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvFolioShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvFolioVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvFolioEnv)
	if env == "" {
		return ""
	}

	path := filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
