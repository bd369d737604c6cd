package sink

import (
	"context"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/JaimeStill/folio/internal/transfer"
	"github.com/JaimeStill/folio/pkg/storage"
)

// Blob appends chunks to an Azure append blob. The first chunk creates the
// blob and its key becomes the continuation token.
type Blob struct {
	store  storage.System
	logger *slog.Logger
}

// NewBlob creates a sink over an initialized storage system.
func NewBlob(store storage.System, logger *slog.Logger) *Blob {
	return &Blob{
		store:  store,
		logger: logger.With("sink", KindBlob),
	}
}

func (s *Blob) StoreChunk(ctx context.Context, c transfer.Chunk) (string, error) {
	raw, err := transfer.DecodeChunk(c.Data)
	if err != nil {
		return "", err
	}

	key := c.Token
	if key == "" {
		if c.Index > 0 {
			return "", ErrMissingToken
		}

		key = objectKey(c.ParentID, c.FileName)
		if err := s.store.Create(ctx, key, c.ContentType); err != nil {
			return "", err
		}
		s.logger.InfoContext(ctx, "object created", "key", key)
	}

	if err := s.store.Append(ctx, key, raw); err != nil {
		return "", err
	}

	return key, nil
}

func objectKey(parentID, name string) string {
	base := path.Base(name)
	if base == "." || base == ".." || base == "/" {
		base = "document"
	}
	return path.Join(parentID, uuid.NewString(), base)
}
