/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/suparena/modelstore/errors"
)

// Join describes one related table fetched with a LEFT JOIN.
type Join struct {
	Table string
	// Alias is the related model's short name.
	Alias string
	// ForeignKey is the column of the base table holding the related key.
	ForeignKey string
	// PrimaryKey is the key column of the related table.
	PrimaryKey string
	// Columns of the related table, projected as "Alias.column".
	Columns []string
}

// SelectSpec describes a SELECT.
type SelectSpec struct {
	Table string
	// Alias is the base model's short name.
	Alias string
	// Columns of the base table; required when Joins is set.
	Columns []string
	Joins   []Join
	Where   string
	Order   string
	Limit   *int
	Offset  *int
	// CountOnly selects COUNT(*) and ignores Columns and Joins.
	CountOnly bool
}

// BuildSelect renders spec for dialect d.
func BuildSelect(d *Dialect, spec SelectSpec) (string, error) {
	if spec.Table == "" {
		return "", errors.NewValidationError("table", "select needs a table")
	}

	var b strings.Builder
	b.WriteString("SELECT ")

	joins := spec.Joins
	if spec.CountOnly {
		joins = nil
		b.WriteString("COUNT(*)")
	} else if len(joins) > 0 {
		if !d.joins {
			return "", fmt.Errorf("sqlbuilder: dialect %s cannot join %d related tables", d.Name, len(joins))
		}
		proj, err := qualifiedProjection(d, spec)
		if err != nil {
			return "", err
		}
		b.WriteString(proj)
	} else {
		b.WriteString("*")
	}

	b.WriteString(" FROM ")
	b.WriteString(d.Quote(spec.Table))
	if d.tableAlias && spec.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(d.quoteOne(spec.Alias))
	}

	for _, j := range joins {
		b.WriteString(" LEFT JOIN ")
		b.WriteString(d.Quote(j.Table))
		b.WriteString(" AS ")
		b.WriteString(d.quoteOne(j.Alias))
		b.WriteString(" ON ")
		b.WriteString(d.Column(spec.Alias, j.ForeignKey))
		b.WriteString(" = ")
		b.WriteString(d.Column(j.Alias, j.PrimaryKey))
	}

	if w := strings.TrimSpace(spec.Where); w != "" {
		b.WriteString(" WHERE ")
		b.WriteString(w)
	}
	if o := strings.TrimSpace(spec.Order); o != "" && !spec.CountOnly {
		b.WriteString(" ORDER BY ")
		b.WriteString(o)
	}
	if !spec.CountOnly {
		b.WriteString(d.LimitClause(spec.Limit, spec.Offset))
	}
	return b.String(), nil
}

// qualifiedProjection aliases every column as "Alias.column" so a decoder can
// tell apart equally named columns of joined tables.
func qualifiedProjection(d *Dialect, spec SelectSpec) (string, error) {
	if len(spec.Columns) == 0 {
		return "", fmt.Errorf("sqlbuilder: joined select on %s needs the base column list", spec.Table)
	}
	cols := make([]string, 0, len(spec.Columns))
	add := func(alias string, names []string) {
		for _, c := range names {
			cols = append(cols, d.Column(alias, c)+" AS "+d.QuoteAlias(alias+"."+c))
		}
	}
	add(spec.Alias, spec.Columns)
	for _, j := range spec.Joins {
		if len(j.Columns) == 0 {
			return "", fmt.Errorf("sqlbuilder: joined select on %s needs the column list of %s", spec.Table, j.Table)
		}
		add(j.Alias, j.Columns)
	}
	return strings.Join(cols, ", "), nil
}

// BuildInsert renders an insert of fields. returning names the key column
// to read back on dialects that use RETURNING; it may be empty.
func BuildInsert(d *Dialect, table string, fields []string, returning string) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Quote(table))
	if len(fields) == 0 {
		b.WriteString(" ")
		b.WriteString(d.emptyInsert)
	} else {
		quoted := make([]string, len(fields))
		marks := make([]string, len(fields))
		for i, f := range fields {
			quoted[i] = d.quoteOne(f)
			marks[i] = "?"
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(") VALUES (")
		b.WriteString(strings.Join(marks, ", "))
		b.WriteString(")")
	}
	if d.returning && returning != "" {
		b.WriteString(" RETURNING ")
		b.WriteString(d.quoteOne(returning))
	}
	return b.String()
}

// BuildUpdate renders an update of the changed fields of the row whose key
// column is primaryKey. With no changed fields it returns "" and the caller
// must not execute anything.
func BuildUpdate(d *Dialect, table, primaryKey string, changed []string) string {
	if len(changed) == 0 {
		return ""
	}
	sets := make([]string, len(changed))
	for i, f := range changed {
		sets[i] = d.quoteOne(f) + " = ?"
	}
	return "UPDATE " + d.Quote(table) + " SET " + strings.Join(sets, ", ") +
		" WHERE " + d.quoteOne(primaryKey) + " = ?"
}

// BuildDelete renders a delete of the row whose key column is primaryKey.
func BuildDelete(d *Dialect, table, primaryKey string) string {
	return "DELETE FROM " + d.Quote(table) + " WHERE " + d.quoteOne(primaryKey) + " = ?"
}

// BuildDeleteWhere renders a delete of every row matching where.
func BuildDeleteWhere(d *Dialect, table, where string) string {
	q := "DELETE FROM " + d.Quote(table)
	if w := strings.TrimSpace(where); w != "" {
		q += " WHERE " + w
	}
	return q
}
