package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for backend calls.
var (
	ErrTransport  = errors.New("remote service unreachable")
	ErrNotFound   = errors.New("remote resource not found")
	ErrValidation = errors.New("invalid request")
)

// ServerError is a non-2xx response from the backend. Message is the best-effort
// text extracted from the response body.
type ServerError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("remote service error (%d): %s", e.Status, e.Message)
}

// Is reports 404 responses as ErrNotFound.
func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// IsTransport reports whether err is a network or timeout failure rather than a
// response from the backend.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// MapHTTPStatus maps backend errors to the status code surfaced to API callers.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrTransport) {
		return http.StatusBadGateway
	}
	var serr *ServerError
	if errors.As(err, &serr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
