// Package query builds parameterized SELECT statements over a projection of
// logical field names onto qualified columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps field names to qualified column references (alias.column).
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns map[string]string
	list    []string
}

// NewProjectionMap creates a ProjectionMap for schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps field to the table column.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.list = append(p.list, qualified)
	return p
}

// From returns the table reference with alias.
func (p *ProjectionMap) From() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column returns the qualified column for field, or field itself if unmapped.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns every projected column, comma separated.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.list, ", ")
}
