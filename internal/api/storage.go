package api

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/routes"
	"github.com/JaimeStill/beacon/pkg/storage"
)

// ArchiveHandler serves archived uploads and CSV exports from blob storage.
type ArchiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler over store.
func NewArchiveHandler(store storage.System, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

// Routes returns the route group definition for archive endpoints.
func (h *ArchiveHandler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{
			{Method: "HEAD", Pattern: "/{key...}", Handler: h.Stat},
			{Method: "GET", Pattern: "/{key...}", Handler: h.Download},
		},
	}
}

// Stat answers HEAD with the blob's stored metadata.
func (h *ArchiveHandler) Stat(w http.ResponseWriter, r *http.Request) {
	info, err := h.store.Stat(r.Context(), r.PathValue("key"))
	if err != nil {
		w.WriteHeader(storage.MapHTTPStatus(err))
		return
	}
	writeBlobHeaders(w, r.PathValue("key"), info)
	w.WriteHeader(http.StatusOK)
}

// Download streams the blob as an attachment.
func (h *ArchiveHandler) Download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	obj, err := h.store.Open(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer obj.Body.Close()

	writeBlobHeaders(w, key, obj.Info)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("archive download interrupted", "key", key, "error", err)
	}
}

func writeBlobHeaders(w http.ResponseWriter, key string, info storage.Info) {
	ct := info.ContentType
	if ct == "" {
		ct = contentTypeOf(key)
	}
	w.Header().Set("Content-Type", ct)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
}

// contentTypeOf covers blobs uploaded without a content type.
func contentTypeOf(key string) string {
	ext := path.Ext(key)
	if ext == ".csv" {
		return "text/csv; charset=utf-8"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
