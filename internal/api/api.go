// Package api assembles the workspace API module: the shared selection, the
// upload pipeline, and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/infrastructure"
	"github.com/JaimeStill/folio/pkg/middleware"
	"github.com/JaimeStill/folio/pkg/module"
)

// NewModule creates the API module with its domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	patterns, err := registerRoutes(mux, domain, runtime)
	if err != nil {
		return nil, fmt.Errorf("build openapi spec: %w", err)
	}

	m, err := module.New(cfg.API.BasePath, mux)
	if err != nil {
		return nil, err
	}
	m.Use(middleware.Recover(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	runtime.Logger.Info("api module ready", "base_path", cfg.API.BasePath, "routes", len(patterns))

	return m, nil
}
