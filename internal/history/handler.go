package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/pagination"
	"github.com/JaimeStill/beacon/pkg/routes"
)

const retryRefresh = "retry loading history"

// Handler provides HTTP endpoints for the prediction history view.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// PageRequest is the body of the page endpoint.
type PageRequest struct {
	Page int `json:"page"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "history"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for history endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/history",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.View},
			{Method: "GET", Pattern: "/records", Handler: h.Records},
			{Method: "GET", Pattern: "/query", Handler: h.Query},
			{Method: "POST", Pattern: "/refresh", Handler: h.Refresh},
			{Method: "PUT", Pattern: "/filter", Handler: h.SetFilter},
			{Method: "PUT", Pattern: "/sort", Handler: h.SetSort},
			{Method: "POST", Pattern: "/sort/{column}", Handler: h.ToggleSort},
			{Method: "PUT", Pattern: "/page", Handler: h.SetPage},
		},
	}
}

// View returns the current derived page.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.View())
}

// Records returns the raw, unfiltered record set.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Records())
}

// Refresh reloads records from the store.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.sys.Refresh(r.Context())
	if err != nil {
		handlers.RespondFailure(w, h.logger, http.StatusBadGateway, err, retryRefresh)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

// SetFilter replaces the filter. Omitted fields keep their defaults.
func (h *Handler) SetFilter(w http.ResponseWriter, r *http.Request) {
	f := DefaultFilter()
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidFilter, err))
		return
	}

	view, err := h.sys.SetFilter(f)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

// SetSort replaces the sort configuration.
func (h *Handler) SetSort(w http.ResponseWriter, r *http.Request) {
	var s Sort
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidSort, err))
		return
	}

	view, err := h.sys.SetSort(s)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

// ToggleSort flips the direction of the current column or sorts ascending by a new one.
func (h *Handler) ToggleSort(w http.ResponseWriter, r *http.Request) {
	view, err := h.sys.ToggleSort(Column(r.PathValue("column")))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

// SetPage moves to a page; out-of-range pages reset to 1.
func (h *Handler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, h.sys.SetPage(req.Page))
}

// Query derives a view from query parameters without changing the held
// configuration. Supported parameters: page, page_size, search, sort,
// score_min, score_max, from, to.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	page := pagination.FromQuery(values, h.pagination)

	f, err := FilterFromQuery(values)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if page.Search != "" {
		f.Search = page.Search
	}

	var s Sort
	if len(page.Sort) > 0 {
		s.Column = Column(page.Sort[0].Field)
		s.Direction = Ascending
		if page.Sort[0].Descending {
			s.Direction = Descending
		}
	}

	view, err := h.sys.Query(f, s, page.Page, page.PageSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, view)
}

// FilterFromQuery parses score_min, score_max, from and to. Dates accept
// RFC 3339 or YYYY-MM-DD.
func FilterFromQuery(values url.Values) (Filter, error) {
	f := DefaultFilter()

	if v := values.Get("score_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: score_min: %w", ErrInvalidFilter, err)
		}
		f.ScoreMin = n
	}
	if v := values.Get("score_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: score_max: %w", ErrInvalidFilter, err)
		}
		f.ScoreMax = n
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{
		{"from", &f.From},
		{"to", &f.To},
	} {
		v := values.Get(p.key)
		if v == "" {
			continue
		}
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("%w: %s: %w", ErrInvalidFilter, p.key, err)
		}
		*p.dst = &t
	}

	return f, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
