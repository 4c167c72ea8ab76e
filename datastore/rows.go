/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import "fmt"

// SliceRows is an in-memory result set. Each row carries its own columns.
type SliceRows struct {
	columns [][]string
	values  [][]any
	pos     int
	closed  bool
}

// NewSliceRows returns rows over parallel column and value slices.
func NewSliceRows(columns [][]string, values [][]any) *SliceRows {
	return &SliceRows{columns: columns, values: values, pos: -1}
}

// Append adds one row.
func (r *SliceRows) Append(columns []string, values []any) {
	r.columns = append(r.columns, columns)
	r.values = append(r.values, values)
}

// Len returns the number of rows.
func (r *SliceRows) Len() int { return len(r.values) }

func (r *SliceRows) Next() bool {
	if r.closed || r.pos+1 >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *SliceRows) Columns() ([]string, error) {
	if r.pos < 0 || r.pos >= len(r.columns) {
		return nil, fmt.Errorf("datastore: no current row")
	}
	return r.columns[r.pos], nil
}

func (r *SliceRows) Values() ([]any, error) {
	if r.pos < 0 || r.pos >= len(r.values) {
		return nil, fmt.Errorf("datastore: no current row")
	}
	return r.values[r.pos], nil
}

func (r *SliceRows) Err() error { return nil }

func (r *SliceRows) Close() error {
	r.closed = true
	return nil
}

// StaticResult is a Result with fixed values.
type StaticResult struct {
	ID       any
	Affected int64
}

func (r StaticResult) LastInsertID() (any, error) { return r.ID, nil }

func (r StaticResult) RowsAffected() (int64, error) { return r.Affected, nil }
