// Package infrastructure assembles the shared systems every entry point
// needs: lifecycle coordination, logging, optional blob storage, and the
// configured upload sink.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/folio/internal/config"
	"github.com/JaimeStill/folio/internal/sink"
	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/lifecycle"
	"github.com/JaimeStill/folio/pkg/storage"
)

// Infrastructure holds the core systems required by the API and the CLI.
// Storage is nil unless the configured sink writes to blob storage.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Storage   storage.System
	Sink      transfer.Sink
}

// New creates an Infrastructure logging to stderr.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithLogger(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// NewWithLogger creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	var store storage.System
	if cfg.UsesStorage() {
		s, err := storage.New(&cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
		store = s
	}

	snk, err := sink.New(&cfg.Sink, store, logger)
	if err != nil {
		return nil, fmt.Errorf("sink init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(logger),
		Logger:    logger,
		Storage:   store,
		Sink:      snk,
	}, nil
}

// Start registers infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Storage == nil {
		return nil
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
