package actions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/beacon/internal/datasets"
	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/internal/remote"
)

// Domain errors for user-initiated actions.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnknownModule   = errors.New("unknown module")
	ErrNoActiveDataset = errors.New("no active dataset selected")
	ErrDatasetNotFound = errors.New("dataset is no longer available on the analysis service; refresh datasets or upload it again")
)

// MapHTTPStatus maps action errors, and the errors of the systems actions
// orchestrate, to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownModule):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoActiveDataset):
		return http.StatusConflict
	case errors.Is(err, ErrDatasetNotFound),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, datasets.ErrNotFound):
		return http.StatusNotFound
	}
	return remote.MapHTTPStatus(err)
}
