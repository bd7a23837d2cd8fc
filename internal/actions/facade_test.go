package actions_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/beacon/internal/actions"
	"github.com/JaimeStill/beacon/internal/datasets"
	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/internal/remote"
	"github.com/JaimeStill/beacon/pkg/pagination"
)

type mockBackend struct {
	prediction  *remote.Prediction
	predictErr  error
	insight     string
	insightErr  error
	predicted   []remote.LeadInput
	insightArgs []string
}

func (m *mockBackend) Predict(ctx context.Context, lead remote.LeadInput) (*remote.Prediction, error) {
	m.predicted = append(m.predicted, lead)
	return m.prediction, m.predictErr
}

func (m *mockBackend) GenerateInsight(ctx context.Context, datasetID, input string) (string, error) {
	m.insightArgs = append(m.insightArgs, datasetID, input)
	return m.insight, m.insightErr
}

type mockStore struct {
	records []history.Record
	lists   int
}

func (m *mockStore) List(ctx context.Context) ([]history.Record, error) {
	m.lists++
	return slices.Clone(m.records), nil
}

func (m *mockStore) Find(ctx context.Context, leadName string) (*history.Record, error) {
	for _, r := range m.records {
		if r.LeadName == leadName {
			return &r, nil
		}
	}
	return nil, history.ErrNotFound
}

func (m *mockStore) UpdateScore(ctx context.Context, leadName string, u history.ScoreUpdate) (*history.Record, error) {
	for i := range m.records {
		if m.records[i].LeadName == leadName {
			m.records[i].LeadScore = u.LeadScore
			m.records[i].Classification = u.Classification
			m.records[i].PredictedAt = u.PredictedAt
			if u.GPTSummary != "" {
				m.records[i].GPTSummary = u.GPTSummary
			}
			r := m.records[i]
			return &r, nil
		}
	}
	return nil, history.ErrNotFound
}

type mockRegistry struct {
	items    []datasets.Dataset
	activeID string
	usage    map[string][]string
}

func (m *mockRegistry) Active() (*datasets.Dataset, bool) {
	return m.lookup(m.activeID)
}

func (m *mockRegistry) lookup(id string) (*datasets.Dataset, bool) {
	for _, d := range m.items {
		if d.ID == id {
			return &d, true
		}
	}
	return nil, false
}

func (m *mockRegistry) SetActive(ctx context.Context, id string) error {
	if _, ok := m.lookup(id); !ok {
		return datasets.ErrNotFound
	}
	m.activeID = id
	return nil
}

func (m *mockRegistry) RecordUsage(id string, modules []string) bool {
	if m.usage == nil {
		m.usage = map[string][]string{}
	}
	m.usage[id] = append(m.usage[id], modules...)
	return true
}

type mockArchive struct {
	keys    []string
	content string
	err     error
}

func (m *mockArchive) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	if m.err != nil {
		return m.err
	}
	var buf bytes.Buffer
	buf.ReadFrom(reader)
	m.keys = append(m.keys, key)
	m.content = buf.String()
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func seedStore() *mockStore {
	return &mockStore{records: []history.Record{
		{
			LeadName:       "Ada Lovelace",
			Company:        "Analytical",
			DealAmount:     ptr(12000.0),
			LeadScore:      40,
			Classification: "Cold",
			PredictedAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
			GPTSummary:     "early interest",
			Industry:       ptr("Computing"),
		},
		{
			LeadName:    "No Company",
			LeadScore:   10,
			PredictedAt: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
		},
	}}
}

func seedRegistry() *mockRegistry {
	return &mockRegistry{
		items: []datasets.Dataset{
			{ID: "ds-1", Name: "leads.csv", Status: datasets.StatusReady},
			{ID: "ds-2", Name: "q2.csv", Status: datasets.StatusReady},
		},
		activeID: "ds-1",
	}
}

type fixture struct {
	backend  *mockBackend
	store    *mockStore
	view     history.System
	registry *mockRegistry
	archive  *mockArchive
	sys      actions.System
}

func newFixture(t *testing.T, withArchive bool) *fixture {
	t.Helper()
	f := &fixture{
		backend:  &mockBackend{},
		store:    seedStore(),
		registry: seedRegistry(),
	}
	f.view = history.New(f.store, pagination.Config{DefaultPageSize: 10, MaxPageSize: 100}, discardLogger())
	if _, err := f.view.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var archive actions.Archiver
	if withArchive {
		f.archive = &mockArchive{}
		archive = f.archive
	}
	f.sys = actions.New(f.backend, f.store, f.view, f.registry, archive, discardLogger())
	return f
}

func TestRescore(t *testing.T) {
	f := newFixture(t, false)
	f.backend.prediction = &remote.Prediction{LeadScore: 91, Classification: "Hot", GPTSummary: "ready to buy"}
	listsBefore := f.store.lists

	record, err := f.sys.Rescore(context.Background(), "Ada Lovelace")
	if err != nil {
		t.Fatalf("Rescore: %v", err)
	}

	if record.LeadScore != 91 || record.Classification != "Hot" || record.GPTSummary != "ready to buy" {
		t.Errorf("record = %+v", record)
	}
	if !record.PredictedAt.After(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("PredictedAt not advanced: %v", record.PredictedAt)
	}

	sent := f.backend.predicted[0]
	if sent.LeadName != "Ada Lovelace" || sent.Company != "Analytical" || *sent.DealAmount != 12000 || *sent.Industry != "Computing" {
		t.Errorf("predict input = %+v", sent)
	}

	if f.store.lists != listsBefore+1 {
		t.Errorf("List calls = %d, want full refetch after rescore", f.store.lists-listsBefore)
	}
	if r, _ := f.view.Lookup("Ada Lovelace"); r.LeadScore != 91 {
		t.Errorf("view score = %d, want 91", r.LeadScore)
	}
}

func TestRescoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		lead       string
		predictErr error
		want       error
	}{
		{"empty lead name", "  ", nil, actions.ErrValidation},
		{"missing company", "No Company", nil, actions.ErrValidation},
		{"vanished lead", "Nobody", nil, history.ErrNotFound},
		{"transport is a hard error", "Ada Lovelace", remote.ErrTransport, remote.ErrTransport},
		{"server error", "Ada Lovelace", &remote.ServerError{Status: 500, Message: "boom"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.backend.predictErr = tt.predictErr

			_, err := f.sys.Rescore(context.Background(), tt.lead)
			if err == nil {
				t.Fatal("expected error")
			}

			var serverErr *remote.ServerError
			if errors.As(tt.predictErr, &serverErr) {
				if !errors.As(err, &serverErr) || serverErr.Message != "boom" {
					t.Errorf("err = %v, want server error", err)
				}
			} else if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}

			if tt.predictErr == nil && len(f.backend.predicted) != 0 {
				t.Error("backend called for invalid lead")
			}
			if r, _ := f.view.Lookup("Ada Lovelace"); r.LeadScore != 40 {
				t.Errorf("score changed to %d after failed rescore", r.LeadScore)
			}
		})
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, true)

	export, err := f.sys.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	if !strings.HasPrefix(export.Filename, "prediction-history-") || !strings.HasSuffix(export.Filename, ".csv") {
		t.Errorf("Filename = %q", export.Filename)
	}
	if export.Records != 2 {
		t.Errorf("Records = %d, want 2", export.Records)
	}

	lines := strings.Split(export.Content, "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "lead_name,company") {
		t.Errorf("content = %q", export.Content)
	}

	if export.StorageKey != "exports/"+export.Filename {
		t.Errorf("StorageKey = %q", export.StorageKey)
	}
	if len(f.archive.keys) != 1 || f.archive.content != export.Content {
		t.Errorf("archive keys = %v", f.archive.keys)
	}
}

func TestExportCSVArchiveFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, true)
	f.archive.err = errors.New("blob down")

	export, err := f.sys.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if export.StorageKey != "" {
		t.Errorf("StorageKey = %q, want empty", export.StorageKey)
	}
	if export.Content == "" {
		t.Error("content should still be produced")
	}
}

func TestExportCSVWithoutArchive(t *testing.T) {
	f := newFixture(t, false)

	export, err := f.sys.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if export.StorageKey != "" {
		t.Errorf("StorageKey = %q, want empty", export.StorageKey)
	}
}

func TestGenerateInsight(t *testing.T) {
	f := newFixture(t, false)
	f.backend.insight = "Hot leads cluster in computing."

	insight, err := f.sys.GenerateInsight(context.Background(), " top segments? ")
	if err != nil {
		t.Fatalf("GenerateInsight: %v", err)
	}

	if insight.DatasetID != "ds-1" || insight.Dataset != "leads.csv" || insight.Text != f.backend.insight {
		t.Errorf("insight = %+v", insight)
	}
	if got := f.backend.insightArgs; got[0] != "ds-1" || got[1] != "top segments?" {
		t.Errorf("backend args = %v", got)
	}
	if got := f.registry.usage["ds-1"]; !slices.Equal(got, []string{actions.ModuleInsights}) {
		t.Errorf("usage = %v", got)
	}
}

func TestGenerateInsightErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		activeID string
		err      error
		want     error
	}{
		{"empty input", "", "ds-1", nil, actions.ErrValidation},
		{"no active dataset", "q", "", nil, actions.ErrNoActiveDataset},
		{"dataset removed on backend", "q", "ds-1", &remote.ServerError{Status: 404, Message: "gone"}, actions.ErrDatasetNotFound},
		{"transport", "q", "ds-1", remote.ErrTransport, remote.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			f.registry.activeID = tt.activeID
			f.backend.insightErr = tt.err

			_, err := f.sys.GenerateInsight(context.Background(), tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(f.registry.usage) != 0 {
				t.Error("usage recorded for failed insight")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		datasetID  string
		module     string
		wantID     string
		wantPath   string
		wantErr    error
		wantActive string
	}{
		{"active dataset", "", actions.ModulePredictions, "ds-1", "/predictions?dataset=ds-1", nil, "ds-1"},
		{"explicit dataset becomes active", "ds-2", actions.ModuleAnalytics, "ds-2", "/analytics?dataset=ds-2", nil, "ds-2"},
		{"unknown module", "ds-1", "billing", "", "", actions.ErrUnknownModule, "ds-1"},
		{"unknown dataset", "ds-9", actions.ModuleInsights, "", "", datasets.ErrNotFound, "ds-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			intent, err := f.sys.Open(context.Background(), tt.datasetID, tt.module)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				if intent.DatasetID != tt.wantID || intent.Path != tt.wantPath || intent.Module != tt.module {
					t.Errorf("intent = %+v", intent)
				}
				if got := f.registry.usage[tt.wantID]; !slices.Equal(got, []string{tt.module}) {
					t.Errorf("usage = %v", got)
				}
			}
			if f.registry.activeID != tt.wantActive {
				t.Errorf("active = %q, want %q", f.registry.activeID, tt.wantActive)
			}
		})
	}
}

func TestOpenWithoutActiveDataset(t *testing.T) {
	f := newFixture(t, false)
	f.registry.activeID = ""

	if _, err := f.sys.Open(context.Background(), "", actions.ModuleHistory); !errors.Is(err, actions.ErrNoActiveDataset) {
		t.Errorf("err = %v, want ErrNoActiveDataset", err)
	}
}
