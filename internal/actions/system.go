// Package actions orchestrates single-shot user actions over the backend, the
// prediction history, and the dataset registry: rescoring, CSV export, insight
// generation, and module navigation.
package actions

import (
	"context"
	"io"

	"github.com/JaimeStill/beacon/internal/datasets"
	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/internal/remote"
)

// Consumer modules that record dataset usage.
const (
	ModuleInsights    = "insights"
	ModulePredictions = "predictions"
	ModuleHistory     = "history"
	ModuleAnalytics   = "analytics"
)

// Modules lists every module a navigation intent may target.
var Modules = []string{ModuleInsights, ModulePredictions, ModuleHistory, ModuleAnalytics}

// System defines the public contract for the action facade.
type System interface {
	Handler() *Handler

	// Rescore asks the backend for a fresh score, writes it to the record store,
	// and reloads the history view.
	Rescore(ctx context.Context, leadName string) (*history.Record, error)
	// ExportCSV serializes the full unfiltered record set.
	ExportCSV(ctx context.Context) (*Export, error)
	GenerateInsight(ctx context.Context, input string) (*Insight, error)
	// Open resolves a navigation intent. An empty datasetID targets the active dataset.
	Open(ctx context.Context, datasetID, module string) (*Intent, error)
}

// Export is a generated CSV document.
type Export struct {
	Filename   string `json:"filename"`
	Content    string `json:"-"`
	StorageKey string `json:"storage_key,omitempty"`
	Records    int    `json:"records"`
}

// Insight is the backend's analysis of the active dataset.
type Insight struct {
	DatasetID string `json:"dataset_id"`
	Dataset   string `json:"dataset"`
	Text      string `json:"insight"`
}

// Intent tells the presentation layer where to navigate.
type Intent struct {
	Module    string `json:"module"`
	DatasetID string `json:"dataset_id"`
	Path      string `json:"path"`
}

// Backend is the subset of the remote client used by actions.
type Backend interface {
	Predict(ctx context.Context, lead remote.LeadInput) (*remote.Prediction, error)
	GenerateInsight(ctx context.Context, datasetID, input string) (string, error)
}

// RecordStore reads and rescores lead predictions. history.Store satisfies it.
type RecordStore interface {
	Find(ctx context.Context, leadName string) (*history.Record, error)
	UpdateScore(ctx context.Context, leadName string, u history.ScoreUpdate) (*history.Record, error)
}

// View exposes the loaded history records. history.System satisfies it.
type View interface {
	Records() []history.Record
	Invalidate(ctx context.Context) error
}

// Registry is the subset of the dataset registry used by actions.
type Registry interface {
	Active() (*datasets.Dataset, bool)
	SetActive(ctx context.Context, id string) error
	RecordUsage(id string, modules []string) bool
}

// Archiver stores generated exports. storage.System satisfies it.
type Archiver interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}
