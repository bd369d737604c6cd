package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when an append or read targets an append blob
	// that was never created or has been deleted.
	ErrNotFound = errors.New("append blob not found")
	ErrEmptyKey = errors.New("object key is empty")
	// ErrInvalidKey rejects keys with a ".." segment. Dots inside a name,
	// as in "scan..v2.pdf", are allowed.
	ErrInvalidKey = errors.New("object key contains a parent directory segment")
)

// MapHTTPStatus maps storage errors to the status returned by the document
// routes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
