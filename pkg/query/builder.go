package query

import (
	"fmt"
	"strings"
)

// SortField orders by one view field.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

type Builder struct {
	projection *Projection
	sort       []SortField
}

func NewBuilder(projection *Projection, sort ...SortField) *Builder {
	return &Builder{projection: projection, sort: sort}
}

// ParseSortFields reads "leadScore,-predictedAt" style input, where a leading
// minus means descending. Blank input yields nil.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// Build selects every projected column. Sort fields the projection does not
// know are dropped.
func (b *Builder) Build() (string, []any) {
	var order []string
	for _, f := range b.sort {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		if f.Descending {
			order = append(order, col+" DESC")
		} else {
			order = append(order, col+" ASC")
		}
	}

	stmt := b.projection.selectClause()
	if len(order) > 0 {
		stmt += " ORDER BY " + strings.Join(order, ", ")
	}
	return stmt, nil
}

// BuildSingle selects the row whose field equals key. field must be
// projected.
func (b *Builder) BuildSingle(field string, key any) (string, []any) {
	col, ok := b.projection.Column(field)
	if !ok {
		panic(fmt.Sprintf("query: field %q is not projected", field))
	}
	return b.projection.selectClause() + " WHERE " + col + " = $1", []any{key}
}
