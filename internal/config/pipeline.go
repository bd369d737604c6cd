package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/formatting"
)

const (
	EnvPipelineMaxFileSize  = "FOLIO_PIPELINE_MAX_FILE_SIZE"
	EnvPipelineChunkSize    = "FOLIO_PIPELINE_CHUNK_SIZE"
	EnvPipelineMaxDimension = "FOLIO_PIPELINE_MAX_DIMENSION"
	EnvPipelineQuality      = "FOLIO_PIPELINE_QUALITY"
	EnvPipelineWorkers      = "FOLIO_PIPELINE_WORKERS"
	EnvPipelineTargetID     = "FOLIO_PIPELINE_TARGET_ID"
)

// PipelineConfig holds the limits applied while building and sending a
// document. MaxFileSize bounds each input image and the finished document.
// ChunkSize counts base64 characters per request.
type PipelineConfig struct {
	MaxFileSize  string  `toml:"max_file_size"`
	ChunkSize    int     `toml:"chunk_size"`
	MaxDimension int     `toml:"max_dimension"`
	Quality      float64 `toml:"quality"`
	Workers      int     `toml:"workers"`
	TargetID     string  `toml:"target_id"`
}

// MaxFileSizeBytes returns MaxFileSize as a byte count.
func (c *PipelineConfig) MaxFileSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxFileSize)
	return n
}

// NormalizeConfig returns the image normalizer settings.
func (c *PipelineConfig) NormalizeConfig() images.Config {
	return images.Config{
		MaxFileSize:  c.MaxFileSizeBytes(),
		MaxDimension: c.MaxDimension,
		Quality:      c.Quality,
	}
}

// TransferConfig returns the chunked transfer settings.
func (c *PipelineConfig) TransferConfig() transfer.Config {
	return transfer.Config{
		MaxPayloadSize: c.MaxFileSizeBytes(),
		ChunkSize:      c.ChunkSize,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.MaxFileSize != "" {
		c.MaxFileSize = overlay.MaxFileSize
	}
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.MaxDimension != 0 {
		c.MaxDimension = overlay.MaxDimension
	}
	if overlay.Quality != 0 {
		c.Quality = overlay.Quality
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.TargetID != "" {
		c.TargetID = overlay.TargetID
	}
}

func (c *PipelineConfig) loadDefaults() {
	if c.MaxFileSize == "" {
		c.MaxFileSize = "5MB"
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 2_500_000
	}
	if c.MaxDimension == 0 {
		c.MaxDimension = 1000
	}
	if c.Quality == 0 {
		c.Quality = 0.5
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineMaxFileSize); v != "" {
		c.MaxFileSize = v
	}
	if v := os.Getenv(EnvPipelineChunkSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv(EnvPipelineMaxDimension); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDimension = n
		}
	}
	if v := os.Getenv(EnvPipelineQuality); v != "" {
		if q, err := strconv.ParseFloat(v, 64); err == nil {
			c.Quality = q
		}
	}
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvPipelineTargetID); v != "" {
		c.TargetID = v
	}
}

func (c *PipelineConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid max_file_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if c.ChunkSize <= 0 || c.ChunkSize%4 != 0 {
		return fmt.Errorf("chunk_size must be a positive multiple of 4, got %d", c.ChunkSize)
	}
	if c.MaxDimension <= 0 {
		return fmt.Errorf("invalid max_dimension: %d", c.MaxDimension)
	}
	if c.Quality <= 0 || c.Quality > 1 {
		return fmt.Errorf("quality must be in (0, 1], got %v", c.Quality)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d", c.Workers)
	}
	return nil
}
