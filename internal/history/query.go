package history

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JaimeStill/beacon/pkg/pagination"
)

// Filter selects records by score range, lead name and prediction date.
// To is inclusive through the end of its calendar day.
type Filter struct {
	Search   string     `json:"search"`
	ScoreMin int        `json:"score_min"`
	ScoreMax int        `json:"score_max"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

// DefaultFilter matches every record.
func DefaultFilter() Filter {
	return Filter{ScoreMin: 0, ScoreMax: 100}
}

// Validate rejects score bounds outside 0-100 or inverted ranges.
func (f Filter) Validate() error {
	if f.ScoreMin < 0 || f.ScoreMax > 100 {
		return fmt.Errorf("%w: score bounds must be within 0-100", ErrInvalidFilter)
	}
	if f.ScoreMin > f.ScoreMax {
		return fmt.Errorf("%w: score_min %d exceeds score_max %d", ErrInvalidFilter, f.ScoreMin, f.ScoreMax)
	}
	if f.From != nil && f.To != nil && endOfDay(*f.To).Before(*f.From) {
		return fmt.Errorf("%w: from is after to", ErrInvalidFilter)
	}
	return nil
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// FilterRecords returns the records matching f, preserving order.
func FilterRecords(records []Record, f Filter) []Record {
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(f.Search))

	var to time.Time
	if f.To != nil {
		to = endOfDay(*f.To)
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.LeadScore < f.ScoreMin || r.LeadScore > f.ScoreMax {
			continue
		}
		if search != "" && !strings.Contains(fold.String(r.LeadName), search) {
			continue
		}
		if f.From != nil && r.PredictedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && r.PredictedAt.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort orders records by a single column. The zero Sort keeps fetch order.
type Sort struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

// Validate rejects unknown columns and directions.
func (s Sort) Validate() error {
	if !s.Column.Valid() {
		return fmt.Errorf("%w: unknown column %q", ErrInvalidSort, s.Column)
	}
	switch s.Direction {
	case "", Ascending, Descending:
		return nil
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidSort, s.Direction)
	}
}

// ToggleSort reverses the direction when column is already the sort column and
// otherwise sorts ascending by column.
func ToggleSort(current Sort, column Column) Sort {
	if current.Column == column {
		if current.Direction == Descending {
			return Sort{Column: column, Direction: Ascending}
		}
		return Sort{Column: column, Direction: Descending}
	}
	return Sort{Column: column, Direction: Ascending}
}

// SortRecords returns a stably sorted copy of records. String columns use
// English collation ignoring case; missing optional values sort first ascending.
func SortRecords(records []Record, s Sort) []Record {
	out := slices.Clone(records)
	if s.Column == "" {
		return out
	}

	compare := comparator(s.Column)
	if s.Direction == Descending {
		slices.SortStableFunc(out, func(a, b Record) int { return compare(b, a) })
	} else {
		slices.SortStableFunc(out, compare)
	}
	return out
}

func comparator(column Column) func(a, b Record) int {
	coll := collate.New(language.English, collate.IgnoreCase)
	text := func(a, b string) int { return coll.CompareString(a, b) }

	switch column {
	case ColumnLeadName:
		return func(a, b Record) int { return text(a.LeadName, b.LeadName) }
	case ColumnCompany:
		return func(a, b Record) int { return text(a.Company, b.Company) }
	case ColumnClassification:
		return func(a, b Record) int { return text(a.Classification, b.Classification) }
	case ColumnGPTSummary:
		return func(a, b Record) int { return text(a.GPTSummary, b.GPTSummary) }
	case ColumnIndustry:
		return func(a, b Record) int { return optional(a.Industry, b.Industry, text) }
	case ColumnStage:
		return func(a, b Record) int { return optional(a.Stage, b.Stage, text) }
	case ColumnDealAmount:
		return func(a, b Record) int { return optional(a.DealAmount, b.DealAmount, cmp.Compare[float64]) }
	case ColumnEngagementScore:
		return func(a, b Record) int { return optional(a.EngagementScore, b.EngagementScore, cmp.Compare[float64]) }
	case ColumnLeadScore:
		return func(a, b Record) int { return cmp.Compare(a.LeadScore, b.LeadScore) }
	case ColumnPredictedAt:
		return func(a, b Record) int { return a.PredictedAt.Compare(b.PredictedAt) }
	default:
		return func(a, b Record) int { return 0 }
	}
}

func optional[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return compare(*a, *b)
	}
}

// View is one derived page of records.
type View struct {
	Records    []Record `json:"records"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Filter     Filter   `json:"filter"`
	Sort       Sort     `json:"sort"`
}

// Paginate slices one page out of records. A page beyond the last page resets
// to 1; an empty set has zero pages and stays on page 1.
func Paginate(records []Record, req pagination.PageRequest) View {
	loc := req.Locate(len(records))

	page := make([]Record, loc.End-loc.Start)
	copy(page, records[loc.Start:loc.End])

	return View{
		Records:    page,
		Total:      len(records),
		Page:       loc.Number,
		PageSize:   req.PageSize,
		TotalPages: loc.Pages,
	}
}

// Apply runs filter, sort and paginate in that order.
func Apply(records []Record, f Filter, s Sort, req pagination.PageRequest) View {
	view := Paginate(SortRecords(FilterRecords(records, f), s), req)
	view.Filter = f
	view.Sort = s
	return view
}
