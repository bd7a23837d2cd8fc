package query_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/beacon/pkg/query"
)

const selectLeads = "SELECT p.lead_name, p.lead_score, p.predicted_at FROM public.lead_predictions p"

func leads() *query.Projection {
	return query.NewProjection("public.lead_predictions", "p").
		Project("lead_name", "leadName").
		Project("lead_score", "leadScore").
		Project("predicted_at", "predictedAt")
}

func TestProjectionColumn(t *testing.T) {
	p := leads()
	if col, ok := p.Column("leadScore"); !ok || col != "p.lead_score" {
		t.Errorf("Column(leadScore) = %q, %v", col, ok)
	}
	if col, ok := p.Column("lead_score; DROP TABLE x"); ok {
		t.Errorf("unknown field resolved to %q", col)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		input string
		want  []query.SortField
	}{
		{"", nil},
		{"leadName", []query.SortField{{Field: "leadName"}}},
		{"-predictedAt", []query.SortField{{Field: "predictedAt", Descending: true}}},
		{" leadName , -predictedAt ", []query.SortField{{Field: "leadName"}, {Field: "predictedAt", Descending: true}}},
		{"leadName,,predictedAt", []query.SortField{{Field: "leadName"}, {Field: "predictedAt"}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := query.ParseSortFields(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		sort []query.SortField
		want string
	}{
		{"no sort", nil, selectLeads},
		{"default sort", []query.SortField{{Field: "predictedAt", Descending: true}}, selectLeads + " ORDER BY p.predicted_at DESC"},
		{"multiple", []query.SortField{{Field: "leadScore", Descending: true}, {Field: "leadName"}}, selectLeads + " ORDER BY p.lead_score DESC, p.lead_name ASC"},
		{"unknown dropped", []query.SortField{{Field: "1; --"}, {Field: "leadName"}}, selectLeads + " ORDER BY p.lead_name ASC"},
		{"only unknown", []query.SortField{{Field: "nope"}}, selectLeads},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := query.NewBuilder(leads(), tt.sort...).Build()
			if got != tt.want {
				t.Errorf("Build() = %q, want %q", got, tt.want)
			}
			if len(args) != 0 {
				t.Errorf("Build() args = %v", args)
			}
		})
	}
}

func TestBuildSingle(t *testing.T) {
	got, args := query.NewBuilder(leads()).BuildSingle("leadName", "Ada Lovelace")

	if want := selectLeads + " WHERE p.lead_name = $1"; got != want {
		t.Errorf("BuildSingle() = %q, want %q", got, want)
	}
	if len(args) != 1 || args[0] != "Ada Lovelace" {
		t.Errorf("BuildSingle() args = %v", args)
	}

	defer func() {
		if recover() == nil {
			t.Error("BuildSingle on an unprojected field did not panic")
		}
	}()
	query.NewBuilder(leads()).BuildSingle("company", "x")
}
