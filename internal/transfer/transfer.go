// Package transfer drives the chunked upload protocol: the payload is encoded
// once, sliced into bounded chunks, and sent sequentially to a Sink that
// returns a continuation token for the next chunk.
package transfer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
)

// Chunk is one request to the remote sink. Data is a percent-encoded slice of
// the base64 payload. Token is empty on the first chunk.
type Chunk struct {
	ParentID    string
	FileName    string
	Data        string
	ContentType string
	Token       string
	Index       int
}

// Sink stores a chunk and returns the continuation token for the next one.
type Sink interface {
	StoreChunk(ctx context.Context, chunk Chunk) (string, error)
}

// Request identifies the remote object an upload creates.
type Request struct {
	TargetID    string
	ContentType string
	Name        string
}

// Config bounds the transfer. ChunkSize counts encoded characters.
type Config struct {
	MaxPayloadSize int64
	ChunkSize      int
}

// Uploader sends payloads through a Sink.
type Uploader struct {
	sink     Sink
	cfg      Config
	logger   *slog.Logger
	progress func(Session)
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithProgress registers a callback invoked after each acknowledged chunk.
func WithProgress(fn func(Session)) Option {
	return func(u *Uploader) {
		u.progress = fn
	}
}

// New creates an Uploader.
func New(sink Sink, cfg Config, logger *slog.Logger, opts ...Option) *Uploader {
	u := &Uploader{
		sink:   sink,
		cfg:    cfg,
		logger: logger.With("system", "transfer"),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload drains payload to the sink. The returned session reflects the final
// state in both the success and failure cases; it is nil only when the size
// gate rejects the payload before a session exists.
func (u *Uploader) Upload(ctx context.Context, payload []byte, req Request) (*Session, error) {
	if u.cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid chunk size: %d", u.cfg.ChunkSize)
	}

	if int64(len(payload)) > u.cfg.MaxPayloadSize {
		return nil, fmt.Errorf(
			"%w: file size cannot exceed %d bytes, got %d",
			ErrPayloadTooLarge, u.cfg.MaxPayloadSize, len(payload),
		)
	}

	encoded := base64.StdEncoding.EncodeToString(payload)

	s := &Session{
		Total:       len(encoded),
		TargetID:    req.TargetID,
		ContentType: req.ContentType,
		Name:        req.Name,
		State:       Sending,
	}

	u.logger.InfoContext(
		ctx, "upload started",
		"target_id", s.TargetID,
		"name", s.Name,
		"bytes", len(payload),
		"encoded", s.Total,
	)

	for !s.Done() {
		from, to := s.next(u.cfg.ChunkSize)

		chunk := Chunk{
			ParentID:    s.TargetID,
			FileName:    s.Name,
			Data:        url.QueryEscape(encoded[from:to]),
			ContentType: s.ContentType,
			Token:       s.Token,
			Index:       s.Chunks,
		}

		token, err := u.sink.StoreChunk(ctx, chunk)
		if err != nil {
			s.State = Failed
			u.logger.ErrorContext(
				ctx, "chunk failed",
				"chunk", s.Chunks,
				"cursor", s.Cursor,
				"error", err,
			)
			return s, fmt.Errorf("%w: chunk %d: %w", ErrTransferFailed, s.Chunks, err)
		}

		s.Token = token
		s.Cursor = to
		s.Chunks++

		if u.progress != nil {
			u.progress(*s)
		}
	}

	s.State = Succeeded

	u.logger.InfoContext(
		ctx, "upload complete",
		"target_id", s.TargetID,
		"name", s.Name,
		"chunks", s.Chunks,
	)

	return s, nil
}

// DecodeChunk reverses the chunk encoding and returns the raw bytes it
// carries. Chunks cut at multiples of four characters decode independently.
func DecodeChunk(data string) ([]byte, error) {
	text, err := url.QueryUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unescape: %w", ErrInvalidChunk, err)
	}

	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidChunk, err)
	}

	return raw, nil
}
