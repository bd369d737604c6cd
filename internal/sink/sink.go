// Package sink provides the destinations a chunked upload can drain into: a
// remote HTTP endpoint, an Azure append blob, or a local directory.
package sink

import (
	"fmt"
	"log/slog"

	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/storage"
)

// New returns the sink selected by cfg.Kind. store is required only for the
// blob kind.
func New(cfg *Config, store storage.System, logger *slog.Logger) (transfer.Sink, error) {
	switch cfg.Kind {
	case KindHTTP:
		return NewHTTP(cfg.Endpoint, cfg.TimeoutDuration(), logger), nil
	case KindBlob:
		if store == nil {
			return nil, fmt.Errorf("%s sink requires storage", KindBlob)
		}
		return NewBlob(store, logger), nil
	case KindLocal:
		return NewLocal(cfg.Directory, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
