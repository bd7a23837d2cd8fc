package ingestion

import (
	"errors"
	"net/http"
)

// Domain errors for ingestion operations.
var (
	ErrNoFiles      = errors.New("no files selected")
	ErrSuperseded   = errors.New("ingestion run superseded by a newer run")
	ErrFileTooLarge = errors.New("upload exceeds maximum size")
	ErrInvalidFile  = errors.New("invalid file")
)

// MapHTTPStatus maps ingestion domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNoFiles) || errors.Is(err, ErrInvalidFile) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrSuperseded) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
