/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/storagemodels"
)

// Comparison operators accepted by the field finders.
var operators = map[string]bool{
	"=": true, "!=": true, "<>": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true,
}

type finderKind int

const (
	findOne finderKind = iota
	findAll
	countAll
)

// finderPrefixes are matched longest first.
var finderPrefixes = []struct {
	prefix string
	kind   finderKind
}{
	{"CountFindAllBy", countAll},
	{"FindAllBy", findAll},
	{"FindBy", findOne},
}

// parseFinder splits a finder name like "FindAllByBrand" into its kind and
// field; the field is the suffix with its first letter lowered.
func parseFinder(method string) (finderKind, string, bool) {
	for _, p := range finderPrefixes {
		if !strings.HasPrefix(method, p.prefix) {
			continue
		}
		suffix := method[len(p.prefix):]
		if suffix == "" {
			return 0, "", false
		}
		r, size := utf8.DecodeRuneInString(suffix)
		return p.kind, string(unicode.ToLower(r)) + suffix[size:], true
	}
	return 0, "", false
}

// fieldOptions builds the condition "field op ?" for value. A nil value
// compares with IS NULL or IS NOT NULL.
func (m *Model) fieldOptions(ctx context.Context, field string, value any, op string) (*storagemodels.Options, error) {
	op = strings.ToUpper(strings.TrimSpace(op))
	if op == "" {
		op = "="
	}
	if !operators[op] {
		return nil, errors.NewValidationError("op", fmt.Sprintf("unsupported operator %q", op))
	}
	conn, _, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	col := m.column(conn, field)

	if value == nil {
		switch op {
		case "=":
			return &storagemodels.Options{Where: col + " IS NULL"}, nil
		case "!=", "<>":
			return &storagemodels.Options{Where: col + " IS NOT NULL"}, nil
		}
		return nil, errors.NewValidationError(field, "NULL can only be compared for equality")
	}
	return &storagemodels.Options{Where: col + " " + op + " ?", Values: []any{value}}, nil
}

// FindBy returns the first record whose field compares to value with op.
// An empty op means "=".
func (m *Model) FindBy(ctx context.Context, field string, value any, op string, with ...string) (*record.Record, error) {
	opts, err := m.fieldOptions(ctx, field, value, op)
	if err != nil {
		return nil, err
	}
	return m.Find(ctx, opts, with...)
}

// FindAllBy returns every record whose field compares to value with op.
func (m *Model) FindAllBy(ctx context.Context, field string, value any, op string, with ...string) ([]*record.Record, error) {
	opts, err := m.fieldOptions(ctx, field, value, op)
	if err != nil {
		return nil, err
	}
	return m.FindAll(ctx, opts, with...)
}

// CountBy counts the records whose field compares to value with op.
func (m *Model) CountBy(ctx context.Context, field string, value any, op string) (int64, error) {
	opts, err := m.fieldOptions(ctx, field, value, op)
	if err != nil {
		return 0, err
	}
	return m.Count(ctx, opts)
}

// Call dispatches a finder by name: FindByX, FindAllByX and CountFindAllByX
// compare field x. args are the value, then an optional operator, then the
// related models to load.
//
// The result is a *record.Record, a []*record.Record or an int64.
func (m *Model) Call(ctx context.Context, method string, args ...any) (any, error) {
	kind, field, ok := parseFinder(method)
	if !ok {
		return nil, errors.NewValidationError("method", fmt.Sprintf("%s is not a finder of %s", method, m.desc.Name))
	}
	if len(args) == 0 {
		return nil, errors.NewValidationError("args", method+" needs a value to compare")
	}

	value, rest := args[0], args[1:]
	op := "="
	if len(rest) > 0 {
		if s, isString := rest[0].(string); isString && operators[strings.ToUpper(strings.TrimSpace(s))] {
			op, rest = s, rest[1:]
		}
	}
	with := make([]string, 0, len(rest))
	for _, a := range rest {
		name, isString := a.(string)
		if !isString {
			return nil, errors.NewValidationError("args", fmt.Sprintf("related model names must be strings, got %T", a))
		}
		with = append(with, name)
	}

	switch kind {
	case findAll:
		return m.FindAllBy(ctx, field, value, op, with...)
	case countAll:
		return m.CountBy(ctx, field, value, op)
	}
	rec, err := m.FindBy(ctx, field, value, op, with...)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}
