/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"sync"

	"github.com/suparena/modelstore/datastore"
)

// Call is one statement execution seen by a Recorder.
type Call struct {
	Query string
	Args  []any
	// Exec is true for Exec, false for Query.
	Exec bool
}

// Recorder wraps a connection and records every statement executed through
// it, so tests can assert exactly what reached storage.
type Recorder struct {
	datastore.Conn

	mu    sync.Mutex
	calls []Call
}

var (
	_ datastore.Conn         = (*Recorder)(nil)
	_ datastore.Introspector = (*Recorder)(nil)
)

// NewRecorder wraps inner.
func NewRecorder(inner datastore.Conn) *Recorder {
	return &Recorder{Conn: inner}
}

// Prepare prepares on the wrapped connection and records executions.
func (r *Recorder) Prepare(ctx context.Context, query string) (datastore.Stmt, error) {
	st, err := r.Conn.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return &recordedStmt{Stmt: st, query: query, rec: r}, nil
}

// FieldNames forwards to the wrapped connection. Connections without
// introspection report no fields.
func (r *Recorder) FieldNames(ctx context.Context, table string) ([]string, error) {
	if in, ok := r.Conn.(datastore.Introspector); ok {
		return in.FieldNames(ctx, table)
	}
	return nil, nil
}

// DescribeField forwards to the wrapped connection.
func (r *Recorder) DescribeField(ctx context.Context, table, field string) (string, error) {
	if in, ok := r.Conn.(datastore.Introspector); ok {
		return in.DescribeField(ctx, table, field)
	}
	return "", nil
}

// Calls returns every recorded execution in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Execs returns the recorded Exec calls only.
func (r *Recorder) Execs() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Exec {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

type recordedStmt struct {
	datastore.Stmt
	query string
	rec   *Recorder
}

func (s *recordedStmt) Query(ctx context.Context, args ...any) (datastore.Rows, error) {
	s.rec.record(Call{Query: s.query, Args: append([]any(nil), args...)})
	return s.Stmt.Query(ctx, args...)
}

func (s *recordedStmt) Exec(ctx context.Context, args ...any) (datastore.Result, error) {
	s.rec.record(Call{Query: s.query, Args: append([]any(nil), args...), Exec: true})
	return s.Stmt.Exec(ctx, args...)
}
