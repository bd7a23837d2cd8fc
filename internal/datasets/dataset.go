// Package datasets maintains the registry of known datasets: processing status,
// consumer usage, deduplication by name, and the single active selection.
package datasets

import (
	"slices"
	"time"

	"github.com/JaimeStill/beacon/internal/remote"
)

// ActiveKey is the settings key under which the active dataset id is persisted.
const ActiveKey = "datasets.active_id"

// Status is the processing state of a dataset.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// ParseStatus maps backend status strings onto Status. Unknown or empty values map to fallback.
func ParseStatus(s string, fallback Status) Status {
	switch s {
	case "ready", "completed", "complete", "success", "processed":
		return StatusReady
	case "processing", "pending", "queued", "uploading":
		return StatusProcessing
	case "error", "failed":
		return StatusError
	default:
		return fallback
	}
}

// Dataset is a registered dataset. UsedBy is kept sorted and free of duplicates.
type Dataset struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	FileType   string    `json:"file_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UsedBy     []string  `json:"used_by"`
	Status     Status    `json:"status"`
}

// Snapshot is the registry state delivered to subscribers.
type Snapshot struct {
	Datasets  []Dataset `json:"datasets"`
	ActiveID  string    `json:"active_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// RefreshResult reports the outcome of a Refresh.
type RefreshResult struct {
	Datasets     []Dataset `json:"datasets"`
	ActiveID     string    `json:"active_id,omitempty"`
	UsedFallback bool      `json:"used_fallback"`
}

// FromRemote converts a backend dataset entry.
func FromRemote(r remote.Dataset) Dataset {
	return Dataset{
		ID:         r.ID,
		Name:       r.Name,
		UploadedAt: r.UploadedAt,
		FileType:   r.FileType,
		SizeBytes:  max(r.SizeBytes, 0),
		UsedBy:     normalizeModules(r.UsedBy),
		Status:     ParseStatus(r.Status, StatusReady),
	}
}

func (d Dataset) clone() Dataset {
	d.UsedBy = slices.Clone(d.UsedBy)
	if d.UsedBy == nil {
		d.UsedBy = []string{}
	}
	return d
}

// supersedes reports whether candidate replaces existing for the same name.
func supersedes(candidate, existing Dataset) bool {
	candidateReady := candidate.Status == StatusReady
	existingReady := existing.Status == StatusReady
	if candidateReady != existingReady {
		return candidateReady
	}
	return !candidate.UploadedAt.Before(existing.UploadedAt)
}

func normalizeModules(modules []string) []string {
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		if m != "" {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// demoDataset stands in for the backend listing when the backend is unreachable.
func demoDataset() Dataset {
	return Dataset{
		ID:         "demo-dataset",
		Name:       "demo_leads.csv",
		UploadedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		FileType:   "csv",
		SizeBytes:  24576,
		UsedBy:     []string{},
		Status:     StatusReady,
	}
}
