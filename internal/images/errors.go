package images

import "errors"

// Sentinel errors for image normalization.
var (
	ErrOversizedInput  = errors.New("file exceeds maximum size")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrDecodeFailed    = errors.New("failed to decode image")
	ErrEncodeFailed    = errors.New("failed to encode image")
)
