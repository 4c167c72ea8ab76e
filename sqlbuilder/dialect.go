/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuilder

import (
	"strconv"
	"strings"
)

// Dialect identifiers supported by the builder.
const (
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
	// DialectMySQL is the MySQL dialect name.
	DialectMySQL = "mysql"
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSDB is the key-attribute store select dialect name.
	DialectSDB = "sdb"
)

// Dialect captures the SQL fragments that differ between backends.
type Dialect struct {
	Name string
	// quote is the identifier quote character.
	quote byte
	// numbered placeholders ($1, $2...) instead of "?".
	numbered bool
	// returning inserts report their key with a RETURNING clause.
	returning bool
	// tableAlias is true when FROM accepts "table AS alias".
	tableAlias bool
	// joins is true when LEFT JOIN is available.
	joins bool
	// noLimit is the LIMIT value meaning "all rows" when only an offset is set;
	// empty means the dialect accepts a bare OFFSET.
	noLimit string
	// emptyInsert is the VALUES part of an insert without columns.
	emptyInsert string
}

var (
	// SQLite quotes with double quotes and uses LIMIT -1 for an open window.
	SQLite = &Dialect{
		Name:        DialectSQLite,
		quote:       '"',
		tableAlias:  true,
		joins:       true,
		noLimit:     "-1",
		emptyInsert: "DEFAULT VALUES",
	}
	// MySQL quotes with backquotes.
	MySQL = &Dialect{
		Name:        DialectMySQL,
		quote:       '`',
		tableAlias:  true,
		joins:       true,
		noLimit:     "18446744073709551615",
		emptyInsert: "() VALUES ()",
	}
	// Postgres numbers its placeholders and returns inserted keys.
	Postgres = &Dialect{
		Name:        DialectPostgres,
		quote:       '"',
		numbered:    true,
		returning:   true,
		tableAlias:  true,
		joins:       true,
		emptyInsert: "DEFAULT VALUES",
	}
	// SDB is the select dialect of the key-attribute store. It has no joins
	// and no aliases; LIMIT and OFFSET are consumed by the adapter.
	SDB = &Dialect{
		Name:        DialectSDB,
		quote:       '`',
		emptyInsert: "() VALUES ()",
	}
)

// ForName returns the dialect registered under name, accepting the common
// driver aliases.
func ForName(name string) (*Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DialectSQLite, "sqlite3":
		return SQLite, true
	case DialectMySQL, "mariadb":
		return MySQL, true
	case DialectPostgres, "postgresql", "pgx", "pgsql":
		return Postgres, true
	case DialectSDB, "simpledb", "dynamodb":
		return SDB, true
	}
	return nil, false
}

// SupportsJoins reports whether related models can be fetched with a join.
func (d *Dialect) SupportsJoins() bool { return d.joins }

// UsesReturning reports whether inserts read their key through RETURNING.
func (d *Dialect) UsesReturning() bool { return d.returning }

// Quote quotes an identifier. A dotted name is quoted part by part.
func (d *Dialect) Quote(ident string) string {
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = d.quoteOne(p)
	}
	return strings.Join(parts, ".")
}

// QuoteAlias quotes name as one identifier even when it contains dots.
func (d *Dialect) QuoteAlias(name string) string {
	return d.quoteOne(name)
}

func (d *Dialect) quoteOne(p string) string {
	if p == "*" {
		return p
	}
	q := string(d.quote)
	return q + strings.ReplaceAll(p, q, q+q) + q
}

// Column returns column qualified by alias where the dialect supports aliases.
func (d *Dialect) Column(alias, column string) string {
	if d.tableAlias && alias != "" {
		return d.quoteOne(alias) + "." + d.quoteOne(column)
	}
	return d.quoteOne(column)
}

// LimitClause renders the window. Offset without limit is valid; limit
// without offset starts at 0.
func (d *Dialect) LimitClause(limit, offset *int) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case limit != nil && (offset == nil || *offset == 0):
		return " LIMIT " + strconv.Itoa(*limit)
	case limit != nil:
		return " LIMIT " + strconv.Itoa(*limit) + " OFFSET " + strconv.Itoa(*offset)
	case d.noLimit != "":
		return " LIMIT " + d.noLimit + " OFFSET " + strconv.Itoa(*offset)
	default:
		return " OFFSET " + strconv.Itoa(*offset)
	}
}

// Rebind converts "?" markers to the dialect's placeholder style.
func (d *Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	marks := Placeholders(query)
	if len(marks) == 0 {
		return query
	}
	var b strings.Builder
	last, n := 0, 0
	for _, m := range marks {
		if m.Name != "" {
			continue
		}
		n++
		b.WriteString(query[last:m.Start])
		b.WriteString("$" + strconv.Itoa(n))
		last = m.End
	}
	b.WriteString(query[last:])
	return b.String()
}

// FieldsQuery returns the statement listing the columns of table, and the
// name of the result column holding the column name.
func (d *Dialect) FieldsQuery(table string) (query string, nameColumn string, typeColumn string) {
	switch d.Name {
	case DialectSQLite:
		return "PRAGMA table_info(" + d.Quote(table) + ")", "name", "type"
	case DialectMySQL:
		return "SHOW COLUMNS FROM " + d.Quote(table), "Field", "Type"
	case DialectPostgres:
		return "SELECT column_name, data_type FROM information_schema.columns WHERE table_name = " +
			QuoteString(table) + " ORDER BY ordinal_position", "column_name", "data_type"
	}
	return "", "", ""
}
