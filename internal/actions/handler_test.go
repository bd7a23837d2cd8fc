package actions_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/beacon/internal/actions"
	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/handlers"
	"github.com/JaimeStill/beacon/pkg/routes"
)

func setupMux(h *actions.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerRescore(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		predictErr error
		wantStatus int
		wantRetry  string
	}{
		{"success", `{"lead_name": "Ada Lovelace"}`, nil, http.StatusOK, ""},
		{"malformed", `{`, nil, http.StatusBadRequest, ""},
		{"missing company", `{"lead_name": "No Company"}`, nil, http.StatusBadRequest, ""},
		{"unknown lead", `{"lead_name": "Nobody"}`, nil, http.StatusNotFound, ""},
		{"backend unreachable", `{"lead_name": "Ada Lovelace"}`, remote.ErrTransport, http.StatusBadGateway, "try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.backend.prediction = &remote.Prediction{LeadScore: 77, Classification: "Warm"}
			f.backend.predictErr = tt.predictErr
			mux := setupMux(f.sys.Handler())

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/rescore", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantRetry != "" {
				var failure handlers.Failure
				json.NewDecoder(rec.Body).Decode(&failure)
				if failure.Retry != tt.wantRetry {
					t.Errorf("retry = %q, want %q", failure.Retry, tt.wantRetry)
				}
			}
		})
	}
}

func TestHandlerExport(t *testing.T) {
	f := newFixture(t, true)
	mux := setupMux(f.sys.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actions/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment; filename=\"prediction-history-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if key := rec.Header().Get("X-Archive-Key"); !strings.HasPrefix(key, "exports/") {
		t.Errorf("X-Archive-Key = %q", key)
	}
	if lines := strings.Split(rec.Body.String(), "\n"); len(lines) != 3 {
		t.Errorf("got %d lines, want header + 2 rows", len(lines))
	}
}

func TestHandlerGenerateInsight(t *testing.T) {
	tests := []struct {
		name       string
		activeID   string
		err        error
		wantStatus int
	}{
		{"success", "ds-1", nil, http.StatusOK},
		{"no active dataset", "", nil, http.StatusConflict},
		{"dataset removed", "ds-1", &remote.ServerError{Status: http.StatusNotFound, Message: "missing"}, http.StatusNotFound},
		{"backend error", "ds-1", &remote.ServerError{Status: http.StatusInternalServerError, Message: "boom"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.registry.activeID = tt.activeID
			f.backend.insight = "insight text"
			f.backend.insightErr = tt.err
			mux := setupMux(f.sys.Handler())

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/insights", bytes.NewBufferString(`{"input": "why?"}`)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var insight actions.Insight
				json.NewDecoder(rec.Body).Decode(&insight)
				if insight.Text != "insight text" {
					t.Errorf("insight = %+v", insight)
				}
			}
		})
	}
}

func TestHandlerOpen(t *testing.T) {
	f := newFixture(t, false)
	mux := setupMux(f.sys.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/open", bytes.NewBufferString(`{"dataset_id": "ds-2", "module": "insights"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var intent actions.Intent
	json.NewDecoder(rec.Body).Decode(&intent)
	if intent.Path != "/insights?dataset=ds-2" {
		t.Errorf("Path = %q", intent.Path)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/open", bytes.NewBufferString(`{"module": "billing"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown module status = %d, want 400", rec.Code)
	}
}
