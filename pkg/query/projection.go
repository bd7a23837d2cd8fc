// Package query builds the SELECT statements the record store issues,
// mapping the JSON field names clients sort by onto table columns.
package query

import (
	"strings"
)

// Projection maps view field names to alias-qualified columns, in select
// order.
type Projection struct {
	from    string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjection starts a projection over table (optionally schema-qualified)
// under alias.
func NewProjection(table, alias string) *Projection {
	return &Projection{
		from:    table + " " + alias,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project appends column to the select list under the name field.
func (p *Projection) Project(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Column resolves a view field. Unknown fields report false and must never
// reach the SQL text.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

func (p *Projection) selectClause() string {
	return "SELECT " + strings.Join(p.order, ", ") + " FROM " + p.from
}
