package remote

import "time"

// File is a single file submitted for ingestion.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// UploadResult is the normalized success payload of the upload endpoint.
// DatasetID is empty and RecordsProcessed is nil when the backend omits them.
type UploadResult struct {
	DatasetID        string `json:"dataset_id,omitempty"`
	Status           string `json:"status,omitempty"`
	RecordsProcessed *int   `json:"records_processed,omitempty"`
}

// Dataset is the canonical shape of a dataset entry returned by the listing endpoint,
// regardless of whether the backend used snake_case or camelCase keys.
type Dataset struct {
	ID         string
	Name       string
	UploadedAt time.Time
	FileType   string
	SizeBytes  int64
	UsedBy     []string
	Status     string
}

// LeadInput carries the lead attributes sent to the scoring endpoint.
type LeadInput struct {
	LeadName        string   `json:"lead_name"`
	Company         string   `json:"company"`
	DealAmount      *float64 `json:"deal_amount,omitempty"`
	Industry        *string  `json:"industry,omitempty"`
	Stage           *string  `json:"stage,omitempty"`
	EngagementScore *float64 `json:"engagement_score,omitempty"`
}

// Prediction is the scoring endpoint response.
type Prediction struct {
	LeadScore      int    `json:"lead_score"`
	Classification string `json:"classification"`
	GPTSummary     string `json:"gpt_summary"`
}
