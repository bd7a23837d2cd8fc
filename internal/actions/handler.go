package actions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/routes"
)

const retryAction = "try again"

// Handler provides HTTP endpoints for user actions.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// RescoreRequest identifies the lead to rescore.
type RescoreRequest struct {
	LeadName string `json:"lead_name"`
}

// InsightRequest carries the question asked of the active dataset.
type InsightRequest struct {
	Input string `json:"input"`
}

// OpenRequest is a navigation intent. An empty DatasetID targets the active dataset.
type OpenRequest struct {
	DatasetID string `json:"dataset_id"`
	Module    string `json:"module"`
}

// NewHandler creates a Handler for the given action facade.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "actions"),
	}
}

// Routes returns the route group definition for action endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/actions",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/rescore", Handler: h.Rescore},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
			{Method: "POST", Pattern: "/insights", Handler: h.GenerateInsight},
			{Method: "POST", Pattern: "/open", Handler: h.Open},
		},
	}
}

// Rescore refreshes a single lead's prediction.
func (h *Handler) Rescore(w http.ResponseWriter, r *http.Request) {
	var req RescoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	record, err := h.sys.Rescore(r.Context(), req.LeadName)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, record)
}

// Export downloads the full prediction history as a CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.sys.ExportCSV(r.Context())
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", exportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	if export.StorageKey != "" {
		w.Header().Set("X-Archive-Key", export.StorageKey)
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(export.Content))
}

// GenerateInsight asks the backend about the active dataset.
func (h *Handler) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	var req InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	insight, err := h.sys.GenerateInsight(r.Context(), req.Input)
	if err != nil {
		h.respondFailure(w, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, insight)
}

// Open resolves a navigation intent and records the module's usage of the dataset.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrValidation, err))
		return
	}

	intent, err := h.sys.Open(r.Context(), req.DatasetID, req.Module)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, intent)
}

// respondFailure attaches a retry hint to backend failures; client errors are
// reported plainly.
func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		handlers.RespondFailure(w, h.logger, status, err, retryAction)
		return
	}
	handlers.RespondError(w, h.logger, status, err)
}
