package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JaimeStill/folio/internal/transfer"
)

// Local appends chunks to files under a root directory. The first chunk
// creates the file and its relative path becomes the continuation token.
type Local struct {
	root   string
	logger *slog.Logger
}

// NewLocal creates a sink rooted at dir, creating the directory if needed.
func NewLocal(dir string, logger *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sink directory: %w", err)
	}
	return &Local{
		root:   dir,
		logger: logger.With("sink", KindLocal),
	}, nil
}

func (s *Local) StoreChunk(ctx context.Context, c transfer.Chunk) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := transfer.DecodeChunk(c.Data)
	if err != nil {
		return "", err
	}

	key := c.Token
	flags := os.O_WRONLY | os.O_APPEND

	if key == "" {
		if c.Index > 0 {
			return "", ErrMissingToken
		}
		key = objectKey(c.ParentID, c.FileName)
		flags |= os.O_CREATE | os.O_EXCL
	}

	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if flags&os.O_CREATE != 0 {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", fmt.Errorf("create object directory: %w", err)
		}
	}

	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("open object %s: %w", key, err)
	}
	defer f.Close()

	if _, err := f.Write(raw); err != nil {
		return "", fmt.Errorf("append object %s: %w", key, err)
	}

	s.logger.DebugContext(ctx, "chunk stored", "key", key, "index", c.Index, "bytes", len(raw))
	return key, nil
}

// Path returns the filesystem path of the object identified by key.
func (s *Local) Path(key string) (string, error) {
	return s.resolve(key)
}

func (s *Local) resolve(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}
