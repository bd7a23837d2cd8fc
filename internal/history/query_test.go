package history_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/JaimeStill/beacon/internal/history"
	"github.com/JaimeStill/beacon/pkg/pagination"
)

func ptr[T any](v T) *T { return &v }

func day(d int, hour int) time.Time {
	return time.Date(2025, 3, d, hour, 0, 0, 0, time.UTC)
}

func scores(records []history.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.LeadScore
	}
	return out
}

func names(records []history.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.LeadName
	}
	return out
}

func pageReq(page, size int) pagination.PageRequest {
	return pagination.PageRequest{Page: page, PageSize: size}
}

func TestScenarioFilterSortPaginate(t *testing.T) {
	records := []history.Record{
		{LeadName: "a", LeadScore: 40},
		{LeadName: "b", LeadScore: 90},
		{LeadName: "c", LeadScore: 65},
	}
	f := history.Filter{ScoreMin: 50, ScoreMax: 100}
	s := history.Sort{Column: history.ColumnLeadScore, Direction: history.Descending}

	view := history.Apply(records, f, s, pageReq(1, 10))
	if fmt.Sprint(scores(view.Records)) != "[90 65]" {
		t.Errorf("visible = %v, want [90 65]", scores(view.Records))
	}

	view = history.Apply(records, f, s, pageReq(2, 1))
	if fmt.Sprint(scores(view.Records)) != "[65]" {
		t.Errorf("page 2 = %v, want [65]", scores(view.Records))
	}
	if view.TotalPages != 2 || view.Total != 2 {
		t.Errorf("TotalPages = %d Total = %d", view.TotalPages, view.Total)
	}
}

func TestEmptyView(t *testing.T) {
	for _, page := range []int{0, 1, 5} {
		t.Run(fmt.Sprintf("page %d", page), func(t *testing.T) {
			view := history.Apply(nil, history.DefaultFilter(), history.Sort{}, pageReq(page, 10))
			if view.TotalPages != 0 {
				t.Errorf("TotalPages = %d, want 0", view.TotalPages)
			}
			if view.Page != 1 {
				t.Errorf("Page = %d, want 1", view.Page)
			}
			if view.Records == nil || len(view.Records) != 0 {
				t.Errorf("Records = %v, want empty slice", view.Records)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	records := make([]history.Record, 25)
	for i := range records {
		records[i] = history.Record{LeadName: fmt.Sprintf("lead-%02d", i), LeadScore: i}
	}

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantFirst int
		wantLen   int
	}{
		{"first page", 1, 1, 0, 10},
		{"last partial page", 3, 3, 20, 5},
		{"beyond range resets", 4, 1, 0, 10},
		{"zero resets", 0, 1, 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := history.Paginate(records, pageReq(tt.page, 10))
			if view.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", view.Page, tt.wantPage)
			}
			if len(view.Records) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(view.Records), tt.wantLen)
			}
			if view.Records[0].LeadScore != tt.wantFirst {
				t.Errorf("first = %d, want %d", view.Records[0].LeadScore, tt.wantFirst)
			}
			if view.TotalPages != 3 {
				t.Errorf("TotalPages = %d, want 3", view.TotalPages)
			}
		})
	}
}

func TestFilterRecords(t *testing.T) {
	records := []history.Record{
		{LeadName: "Ada Lovelace", LeadScore: 10, PredictedAt: day(1, 9)},
		{LeadName: "Grace Hopper", LeadScore: 50, PredictedAt: day(2, 23)},
		{LeadName: "ada byron", LeadScore: 75, PredictedAt: day(3, 0)},
		{LeadName: "Alan Turing", LeadScore: 100, PredictedAt: day(4, 12)},
	}

	tests := []struct {
		name   string
		filter history.Filter
		want   []string
	}{
		{"default matches all", history.DefaultFilter(), []string{"Ada Lovelace", "Grace Hopper", "ada byron", "Alan Turing"}},
		{"score bounds inclusive", history.Filter{ScoreMin: 50, ScoreMax: 75}, []string{"Grace Hopper", "ada byron"}},
		{"search case-insensitive", history.Filter{Search: "ADA", ScoreMax: 100}, []string{"Ada Lovelace", "ada byron"}},
		{"search trims", history.Filter{Search: "  turing ", ScoreMax: 100}, []string{"Alan Turing"}},
		{"from inclusive", history.Filter{ScoreMax: 100, From: ptr(day(3, 0))}, []string{"ada byron", "Alan Turing"}},
		{"to covers whole day", history.Filter{ScoreMax: 100, To: ptr(day(2, 0))}, []string{"Ada Lovelace", "Grace Hopper"}},
		{"date window", history.Filter{ScoreMax: 100, From: ptr(day(2, 0)), To: ptr(day(3, 0))}, []string{"Grace Hopper", "ada byron"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(history.FilterRecords(records, tt.filter))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  history.Filter
		wantErr bool
	}{
		{"default", history.DefaultFilter(), false},
		{"inverted", history.Filter{ScoreMin: 80, ScoreMax: 20}, true},
		{"negative", history.Filter{ScoreMin: -1, ScoreMax: 20}, true},
		{"above 100", history.Filter{ScoreMin: 0, ScoreMax: 101}, true},
		{"same day window", history.Filter{ScoreMax: 100, From: ptr(day(2, 10)), To: ptr(day(2, 0))}, false},
		{"inverted dates", history.Filter{ScoreMax: 100, From: ptr(day(3, 0)), To: ptr(day(2, 0))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortRecords(t *testing.T) {
	records := []history.Record{
		{LeadName: "bravo", Company: "Zeta", LeadScore: 50, DealAmount: ptr(1000.0), Industry: ptr("retail")},
		{LeadName: "Alpha", Company: "acme", LeadScore: 90, DealAmount: nil, Industry: nil},
		{LeadName: "charlie", Company: "Beta", LeadScore: 50, DealAmount: ptr(250.5), Industry: ptr("Fintech")},
		{LeadName: "delta", Company: "beta", LeadScore: 5, DealAmount: ptr(99999.0), Industry: ptr("energy")},
	}

	tests := []struct {
		name string
		sort history.Sort
		want []string
	}{
		{"unsorted keeps order", history.Sort{}, []string{"bravo", "Alpha", "charlie", "delta"}},
		{"name ignores case", history.Sort{Column: history.ColumnLeadName, Direction: history.Ascending}, []string{"Alpha", "bravo", "charlie", "delta"}},
		{"score numeric stable", history.Sort{Column: history.ColumnLeadScore, Direction: history.Ascending}, []string{"delta", "bravo", "charlie", "Alpha"}},
		{"score descending stable", history.Sort{Column: history.ColumnLeadScore, Direction: history.Descending}, []string{"Alpha", "bravo", "charlie", "delta"}},
		{"deal amount nil first", history.Sort{Column: history.ColumnDealAmount, Direction: history.Ascending}, []string{"Alpha", "charlie", "bravo", "delta"}},
		{"deal amount descending nil last", history.Sort{Column: history.ColumnDealAmount, Direction: history.Descending}, []string{"delta", "bravo", "charlie", "Alpha"}},
		{"company collation stable on tie", history.Sort{Column: history.ColumnCompany, Direction: history.Ascending}, []string{"Alpha", "charlie", "delta", "bravo"}},
		{"optional string nil first", history.Sort{Column: history.ColumnIndustry, Direction: history.Ascending}, []string{"Alpha", "delta", "charlie", "bravo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(history.SortRecords(records, tt.sort))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if records[0].LeadName != "bravo" {
		t.Error("SortRecords mutated its input")
	}
}

func TestToggleSort(t *testing.T) {
	tests := []struct {
		name    string
		current history.Sort
		column  history.Column
		want    history.Sort
	}{
		{"new column ascending", history.Sort{}, history.ColumnLeadScore, history.Sort{Column: history.ColumnLeadScore, Direction: history.Ascending}},
		{"same column flips", history.Sort{Column: history.ColumnLeadScore, Direction: history.Ascending}, history.ColumnLeadScore, history.Sort{Column: history.ColumnLeadScore, Direction: history.Descending}},
		{"flips back", history.Sort{Column: history.ColumnLeadScore, Direction: history.Descending}, history.ColumnLeadScore, history.Sort{Column: history.ColumnLeadScore, Direction: history.Ascending}},
		{"different column resets", history.Sort{Column: history.ColumnLeadScore, Direction: history.Descending}, history.ColumnCompany, history.Sort{Column: history.ColumnCompany, Direction: history.Ascending}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := history.ToggleSort(tt.current, tt.column); got != tt.want {
				t.Errorf("ToggleSort() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSortValidate(t *testing.T) {
	if err := (history.Sort{Column: "bogus"}).Validate(); err == nil {
		t.Error("unknown column accepted")
	}
	if err := (history.Sort{Column: history.ColumnStage, Direction: "sideways"}).Validate(); err == nil {
		t.Error("unknown direction accepted")
	}
	if err := (history.Sort{}).Validate(); err != nil {
		t.Errorf("zero sort rejected: %v", err)
	}
}
