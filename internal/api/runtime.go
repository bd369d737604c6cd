package api

import (
	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/infrastructure"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	BasePath      string
	Version       string
	MaxUploadSize int64
	Pipeline      config.PipelineConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Storage:   infra.Storage,
			Sink:      infra.Sink,
		},
		BasePath:      cfg.API.BasePath,
		Version:       cfg.Version,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		Pipeline:      cfg.Pipeline,
	}
}
