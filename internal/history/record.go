// Package history derives the prediction history view: raw lead predictions from
// the record store, filtered, sorted and paginated on every configuration change.
package history

import "time"

// Record is a single lead prediction row.
type Record struct {
	LeadName        string    `json:"lead_name"`
	Company         string    `json:"company"`
	DealAmount      *float64  `json:"deal_amount"`
	LeadScore       int       `json:"lead_score"`
	Classification  string    `json:"classification"`
	PredictedAt     time.Time `json:"predicted_at"`
	GPTSummary      string    `json:"gpt_summary"`
	Industry        *string   `json:"industry"`
	Stage           *string   `json:"stage"`
	EngagementScore *float64  `json:"engagement_score"`
}

// ScoreUpdate carries the fields a rescore writes back. An empty GPTSummary keeps
// the stored summary.
type ScoreUpdate struct {
	LeadScore      int
	Classification string
	GPTSummary     string
	PredictedAt    time.Time
}

// Column is the view name of a sortable record field.
type Column string

const (
	ColumnLeadName        Column = "leadName"
	ColumnCompany         Column = "company"
	ColumnDealAmount      Column = "dealAmount"
	ColumnLeadScore       Column = "leadScore"
	ColumnClassification  Column = "classification"
	ColumnPredictedAt     Column = "predictedAt"
	ColumnGPTSummary      Column = "gptSummary"
	ColumnIndustry        Column = "industry"
	ColumnStage           Column = "stage"
	ColumnEngagementScore Column = "engagementScore"
)

// Columns lists every sortable column.
var Columns = []Column{
	ColumnLeadName, ColumnCompany, ColumnDealAmount, ColumnLeadScore, ColumnClassification,
	ColumnPredictedAt, ColumnGPTSummary, ColumnIndustry, ColumnStage, ColumnEngagementScore,
}

// Valid reports whether c names a sortable column. The empty column means unsorted.
func (c Column) Valid() bool {
	if c == "" {
		return true
	}
	for _, col := range Columns {
		if c == col {
			return true
		}
	}
	return false
}
