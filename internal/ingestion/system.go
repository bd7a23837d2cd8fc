package ingestion

import (
	"context"

	"github.com/JaimeStill/beacon/internal/remote"
)

// System defines the public contract for the ingestion pipeline.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Process runs files through the pipeline. Backend failures are reported on
	// the returned Run rather than as an error; the error is reserved for
	// ErrNoFiles and ErrSuperseded.
	Process(ctx context.Context, files []remote.File) (*Result, error)

	Current() Run
	// Reset cancels any in-flight run and returns the pipeline to idle.
	Reset()
	Subscribe() (<-chan Run, func())
}
