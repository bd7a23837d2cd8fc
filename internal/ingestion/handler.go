package ingestion

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/routes"
)

// Handler provides HTTP endpoints for the ingestion pipeline.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "ingestion"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for ingestion endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/ingestion",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Current},
			{Method: "POST", Pattern: "", Handler: h.Process},
			{Method: "DELETE", Pattern: "", Handler: h.Reset},
			{Method: "GET", Pattern: "/events", Handler: h.Events},
		},
	}
}

// Current returns the latest run snapshot.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Current())
}

// Events streams run snapshots as server-sent events, starting with the
// current run.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	ch, cancel := h.sys.Subscribe()
	defer cancel()
	handlers.Stream(w, r, h.logger, h.sys.Current(), ch)
}

// Reset returns the pipeline to idle.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.sys.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// Process accepts a multipart upload with one or more "files" parts and runs them
// through the pipeline. A failed run is returned with 502 and a retry hint.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	files := make([]remote.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
			return
		}
		files = append(files, f)
	}

	result, err := h.sys.Process(r.Context(), files)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusOK
	if result.Run.Stage == StageFailed {
		status = http.StatusBadGateway
	}
	handlers.RespondJSON(w, status, result)
}

func readPart(fh *multipart.FileHeader) (remote.File, error) {
	file, err := fh.Open()
	if err != nil {
		return remote.File{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return remote.File{}, err
	}

	return remote.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
