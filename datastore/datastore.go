/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/modelstore/sqlbuilder"
)

// Conn is one logical database connection, identified by its config group.
type Conn interface {
	// Name returns the config group the connection was opened for.
	Name() string

	// Dialect returns the SQL dialect statements must be built for.
	Dialect() *sqlbuilder.Dialect

	// Prepare returns a reusable statement for query. Preparing the same text
	// twice returns the same statement.
	Prepare(ctx context.Context, query string) (Stmt, error)

	Close() error
}

// Stmt is a prepared statement. It holds no bound state, so it may be
// executed any number of times with different arguments.
type Stmt interface {
	Query(ctx context.Context, args ...any) (Rows, error)

	Exec(ctx context.Context, args ...any) (Result, error)
}

// Rows iterates a result set. Columns may differ from row to row on
// backends without a fixed schema, so they are read per row.
type Rows interface {
	Next() bool

	// Columns returns the column names of the current row.
	Columns() ([]string, error)

	// Values returns the values of the current row, aligned with Columns.
	Values() ([]any, error)

	Err() error

	Close() error
}

// Result reports the outcome of an Exec.
type Result interface {
	// LastInsertID returns the key assigned by the store to an inserted row.
	LastInsertID() (any, error)

	RowsAffected() (int64, error)
}

// Introspector is implemented by connections that can describe their schema.
type Introspector interface {
	// FieldNames returns the columns of table in definition order.
	FieldNames(ctx context.Context, table string) ([]string, error)

	// DescribeField returns the type description of a column.
	DescribeField(ctx context.Context, table, field string) (string, error)
}
