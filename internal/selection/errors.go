package selection

import (
	"errors"
	"net/http"
)

// Sentinel errors for selection operations.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrIndexOutOfRange     = errors.New("file index out of range")
	ErrBusy                = errors.New("an upload is already in progress")
	ErrPreviewNotFound     = errors.New("preview not found")
)

// MapHTTPStatus maps selection errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrPreviewNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrIndexOutOfRange) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnsupportedFileType) {
		return http.StatusUnsupportedMediaType
	}
	if errors.Is(err, ErrBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
