package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/folio/internal/transfer"
)

// chunkRequest is the wire shape of one chunk sent to the remote endpoint.
type chunkRequest struct {
	ParentID    string `json:"parent_id"`
	FileName    string `json:"file_name"`
	Base64Data  string `json:"base64_data"`
	ContentType string `json:"content_type"`
	FileID      string `json:"file_id"`
}

type chunkResponse struct {
	FileID string `json:"file_id"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// HTTP posts each chunk as JSON to a remote endpoint that appends it to the
// in-progress object and answers with the object's id.
type HTTP struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTP creates an HTTP sink posting to endpoint.
func NewHTTP(endpoint string, timeout time.Duration, logger *slog.Logger) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("sink", KindHTTP),
	}
}

func (s *HTTP) StoreChunk(ctx context.Context, c transfer.Chunk) (string, error) {
	body, err := json.Marshal(chunkRequest{
		ParentID:    c.ParentID,
		FileName:    c.FileName,
		Base64Data:  c.Data,
		ContentType: c.ContentType,
		FileID:      c.Token,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chunk: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("post chunk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeRemoteError(resp)
	}

	var out chunkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	s.logger.DebugContext(ctx, "chunk stored", "index", c.Index, "file_id", out.FileID)
	return out.FileID, nil
}

func decodeRemoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = string(bytes.TrimSpace(raw))
	}

	return &RemoteError{Status: resp.StatusCode, Message: body.Message}
}
