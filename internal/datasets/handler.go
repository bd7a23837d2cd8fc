package datasets

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/routes"
)

const retryRefresh = "retry connection"

// Handler provides HTTP endpoints for the dataset registry.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// SelectRequest is the body of the active selection endpoint.
type SelectRequest struct {
	ID string `json:"id"`
}

// UsageRequest is the body of the usage endpoint.
type UsageRequest struct {
	Modules []string `json:"modules"`
}

// UsageResponse reports whether recording usage changed the dataset.
type UsageResponse struct {
	Changed bool     `json:"changed"`
	Dataset *Dataset `json:"dataset"`
}

// NewHandler creates a Handler for the given registry.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "datasets"),
	}
}

// Routes returns the route group definition for dataset endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/datasets",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/events", Handler: h.Events},
			{Method: "GET", Pattern: "/active", Handler: h.Active},
			{Method: "PUT", Pattern: "/active", Handler: h.SetActive},
			{Method: "POST", Pattern: "/refresh", Handler: h.Refresh},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Remove},
			{Method: "POST", Pattern: "/{id}/usage", Handler: h.RecordUsage},
		},
	}
}

// List returns the registry snapshot: datasets most recent first and the active id.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Snapshot())
}

// Events streams registry snapshots as server-sent events, starting with the
// current one.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	ch, cancel := h.sys.Subscribe()
	defer cancel()
	handlers.Stream(w, r, h.logger, h.sys.Snapshot(), ch)
}

// Active returns the active dataset.
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	d, ok := h.sys.Active()
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}

// SetActive selects the active dataset by id.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return
	}

	if err := h.sys.SetActive(r.Context(), req.ID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	d, _ := h.sys.Active()
	handlers.RespondJSON(w, http.StatusOK, d)
}

// Refresh reloads the dataset list from the backend.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.sys.Refresh(r.Context())
	if err != nil {
		handlers.RespondFailure(w, h.logger, MapHTTPStatus(err), err, retryRefresh)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single dataset by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	d, ok := h.sys.Find(r.PathValue("id"))
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, d)
}

// Remove deletes a dataset from the registry.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Remove(r.Context(), r.PathValue("id")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordUsage marks the dataset as used by the given consumer modules.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if _, ok := h.sys.Find(id); !ok {
		handlers.RespondError(w, h.logger, http.StatusNotFound, ErrNotFound)
		return
	}

	changed := h.sys.RecordUsage(id, req.Modules)
	d, _ := h.sys.Find(id)

	handlers.RespondJSON(w, http.StatusOK, UsageResponse{Changed: changed, Dataset: d})
}
