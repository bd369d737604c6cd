package api

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/folio/internal/assembly"
	"github.com/JaimeStill/folio/internal/images"
	"github.com/JaimeStill/folio/internal/pipeline"
	"github.com/JaimeStill/folio/internal/selection"
	"github.com/JaimeStill/folio/internal/transfer"
)

// Request errors raised by the workspace handlers.
var (
	ErrMissingTarget = errors.New("target_id required")
	ErrInvalidIndex  = errors.New("invalid file index")
	ErrInvalidBody   = errors.New("invalid request body")
	ErrNoFileParts   = errors.New("no files in request")
	ErrBodyTooLarge  = errors.New("request exceeds maximum upload size")
)

// MapHTTPStatus maps workspace and pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingTarget),
		errors.Is(err, ErrInvalidIndex),
		errors.Is(err, ErrInvalidBody),
		errors.Is(err, ErrNoFileParts),
		errors.Is(err, pipeline.ErrNoFiles):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge),
		errors.Is(err, images.ErrOversizedInput),
		errors.Is(err, transfer.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, images.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, assembly.ErrAssemblyFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, transfer.ErrTransferFailed):
		return http.StatusBadGateway
	}
	return selection.MapHTTPStatus(err)
}
