package history

import (
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"lead_name", "company", "deal_amount", "lead_score", "classification",
	"predicted_at", "gpt_summary", "industry", "stage", "engagement_score",
}

// ExportCSV renders records as comma-joined lines under a header row. Fields are
// written verbatim without quoting, so a value containing a comma or newline
// shifts the columns of its row.
func ExportCSV(records []Record) string {
	var b strings.Builder
	b.WriteString(strings.Join(csvHeader, ","))

	for _, r := range records {
		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			r.LeadName,
			r.Company,
			formatFloat(r.DealAmount),
			strconv.Itoa(r.LeadScore),
			r.Classification,
			r.PredictedAt.UTC().Format(time.RFC3339),
			r.GPTSummary,
			formatString(r.Industry),
			formatString(r.Stage),
			formatFloat(r.EngagementScore),
		}, ","))
	}

	return b.String()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
