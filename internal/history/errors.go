package history

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/beacon/pkg/repository"
)

// Domain errors for prediction history operations.
var (
	ErrNotFound      = errors.New("prediction not found")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidSort   = errors.New("invalid sort")
)

// MapHTTPStatus maps history domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, repository.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrInvalidFilter) || errors.Is(err, ErrInvalidSort) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
