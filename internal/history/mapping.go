package history

import (
	"github.com/JaimeStill/beacon/pkg/query"
	"github.com/JaimeStill/beacon/pkg/repository"
)

var projection = query.
	NewProjection("public.lead_predictions", "p").
	Project("lead_name", string(ColumnLeadName)).
	Project("company", string(ColumnCompany)).
	Project("deal_amount", string(ColumnDealAmount)).
	Project("lead_score", string(ColumnLeadScore)).
	Project("classification", string(ColumnClassification)).
	Project("predicted_at", string(ColumnPredictedAt)).
	Project("gpt_summary", string(ColumnGPTSummary)).
	Project("industry", string(ColumnIndustry)).
	Project("stage", string(ColumnStage)).
	Project("engagement_score", string(ColumnEngagementScore))

var defaultSort = query.SortField{
	Field:      string(ColumnPredictedAt),
	Descending: true,
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.LeadName,
		&r.Company,
		&r.DealAmount,
		&r.LeadScore,
		&r.Classification,
		&r.PredictedAt,
		&r.GPTSummary,
		&r.Industry,
		&r.Stage,
		&r.EngagementScore,
	)
	return r, err
}
