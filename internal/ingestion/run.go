// Package ingestion runs uploaded files through the upload, extract, transform and
// load stages, reporting progress and falling back to demo data when the backend
// is unreachable.
package ingestion

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a step of an ingestion run.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageUploading    Stage = "uploading"
	StageExtracting   Stage = "extracting"
	StageTransforming Stage = "transforming"
	StageLoading      Stage = "loading"
	StageCompleted    Stage = "completed"
	StageFailed       Stage = "failed"
)

// Progress checkpoints for each stage.
const (
	ProgressUploading    = 10
	ProgressExtracting   = 30
	ProgressTransforming = 60
	ProgressLoading      = 85
	ProgressCompleted    = 100
)

var stageOrder = map[Stage]int{
	StageIdle:         0,
	StageUploading:    1,
	StageExtracting:   2,
	StageTransforming: 3,
	StageLoading:      4,
	StageCompleted:    5,
	StageFailed:       5,
}

// Terminal reports whether no further transitions are possible.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// canAdvance reports whether a run at s may move to next.
func (s Stage) canAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return stageOrder[next] > stageOrder[s]
}

// Checkpoint records a stage transition within a run.
type Checkpoint struct {
	Stage    Stage     `json:"stage"`
	Progress int       `json:"progress"`
	At       time.Time `json:"at"`
}

// Run is a snapshot of an ingestion run. Error is set only when Stage is failed.
type Run struct {
	ID               uuid.UUID    `json:"id"`
	Stage            Stage        `json:"stage"`
	Progress         int          `json:"progress"`
	Detail           string       `json:"detail"`
	RecordsProcessed int          `json:"records_processed"`
	Error            string       `json:"error,omitempty"`
	UsedFallback     bool         `json:"used_fallback"`
	Files            []string     `json:"files"`
	Checkpoints      []Checkpoint `json:"checkpoints"`
	StartedAt        time.Time    `json:"started_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// FileInfo describes an inspected input file.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	FileType    string `json:"file_type"`
	SizeBytes   int64  `json:"size_bytes"`
	PageCount   *int   `json:"page_count,omitempty"`
	StorageKey  string `json:"storage_key,omitempty"`
}

// Result is the outcome of Process.
type Result struct {
	Run          Run        `json:"run"`
	DatasetIDs   []string   `json:"dataset_ids,omitempty"`
	Files        []FileInfo `json:"files"`
	UsedFallback bool       `json:"used_fallback"`
	Retry        string     `json:"retry,omitempty"`
}
