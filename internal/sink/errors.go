package sink

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned by New when the configured kind has no sink.
	ErrUnknownKind = errors.New("unknown sink kind")
	// ErrMissingToken is returned when a continuation chunk arrives without
	// the token the previous chunk produced.
	ErrMissingToken = errors.New("continuation token required")
)

// RemoteError carries a failure reported by the remote endpoint. Message is
// the endpoint's own text and is surfaced to the user unchanged.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote status %d", e.Status)
	}
	return e.Message
}
