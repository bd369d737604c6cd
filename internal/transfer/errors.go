package transfer

import "errors"

// Sentinel errors for chunked transfer.
var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrInvalidChunk    = errors.New("invalid chunk data")
)
