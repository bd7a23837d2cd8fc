package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// wireDataset accepts both key conventions the backend has shipped.
type wireDataset struct {
	ID              any      `json:"id"`
	Name            string   `json:"name"`
	UploadedAt      string   `json:"uploaded_at"`
	UploadedAtCamel string   `json:"uploadedAt"`
	FileType        string   `json:"file_type"`
	FileTypeCamel   string   `json:"fileType"`
	Size            *float64 `json:"size"`
	SizeBytes       *float64 `json:"size_bytes"`
	SizeBytesCamel  *float64 `json:"sizeBytes"`
	UsedBy          []string `json:"used_by"`
	UsedByCamel     []string `json:"usedBy"`
	Status          string   `json:"status"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// decodeDatasets accepts either a bare array or an object wrapping the array under
// "datasets".
func decodeDatasets(raw json.RawMessage) ([]Dataset, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Dataset{}, nil
	}

	var items []wireDataset
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode dataset list: %w", err)
		}
	} else {
		var wrapped struct {
			Datasets []wireDataset `json:"datasets"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode dataset list: %w", err)
		}
		items = wrapped.Datasets
	}

	result := make([]Dataset, 0, len(items))
	for _, item := range items {
		result = append(result, item.normalize())
	}
	return result, nil
}

func (w wireDataset) normalize() Dataset {
	d := Dataset{
		ID:       stringify(w.ID),
		Name:     w.Name,
		FileType: first(w.FileType, w.FileTypeCamel),
		Status:   w.Status,
	}

	if ts := first(w.UploadedAt, w.UploadedAtCamel); ts != "" {
		d.UploadedAt = parseTime(ts)
	}

	for _, size := range []*float64{w.SizeBytes, w.SizeBytesCamel, w.Size} {
		if size != nil {
			d.SizeBytes = max(int64(*size), 0)
			break
		}
	}

	used := w.UsedBy
	if len(used) == 0 {
		used = w.UsedByCamel
	}
	if len(used) > 0 {
		d.UsedBy = slices.Clone(used)
		slices.Sort(d.UsedBy)
		d.UsedBy = slices.Compact(d.UsedBy)
	}

	return d
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
