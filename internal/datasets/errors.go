package datasets

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/beacon/internal/remote"
)

// Domain errors for dataset operations.
var (
	ErrNotFound  = errors.New("dataset not found")
	ErrInvalidID = errors.New("invalid dataset id")
)

// MapHTTPStatus maps dataset domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidID) {
		return http.StatusBadRequest
	}
	return remote.MapHTTPStatus(err)
}
