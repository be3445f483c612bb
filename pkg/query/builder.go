package query

import (
	"fmt"
	"strings"
)

// SortField is one ORDER BY term keyed by field name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields parses "name,-created_at" into sort fields. A leading "-"
// sorts descending. Unknown fields are dropped when allowed is non-nil.
func ParseSortFields(s string, allowed *ProjectionMap) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, desc := strings.CutPrefix(part, "-")
		if allowed != nil {
			if _, ok := allowed.columns[name]; !ok {
				continue
			}
		}
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

type condition struct {
	clause string
	args   []any
}

// Builder accumulates conditions and ordering for a projection. Clauses use
// "$%d" placeholders that are numbered when the statement is built.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder ordered by defaultSort unless overridden.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// WhereEquals adds field = value. No-op for a nil value.
func WhereEquals[T any](b *Builder, field string, value *T) *Builder {
	if value == nil {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: b.projection.Column(field) + " = $%d",
		args:   []any{*value},
	})
	return b
}

// WhereSearch adds a case-insensitive match of search across fields, ORed.
// No-op for a nil or empty search.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE $%d"
		args[i] = "%" + *search + "%"
	}

	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// OrderBy overrides the default sort.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	b.orderBy = fields
	return b
}

// BuildCount returns a COUNT(*) statement with the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage returns a SELECT with ordering, limit and offset for a one-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s LIMIT %d OFFSET %d",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.order(),
		pageSize,
		(page-1)*pageSize,
	)
	return sql, args
}

// BuildSingle returns a SELECT for the row whose field equals id.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(field),
	)
	return sql, []any{id}
}

func (b *Builder) order() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = b.projection.Column(f.Field) + " " + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	var args []any
	for _, c := range b.conditions {
		clause := c.clause
		for _, arg := range c.args {
			args = append(args, arg)
			clause = strings.Replace(clause, "$%d", fmt.Sprintf("$%d", len(args)), 1)
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
