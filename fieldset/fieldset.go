/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fieldset

import (
	"fmt"
	"strings"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/registry"
)

// Decoder hydrates result rows into records of registered models.
type Decoder struct {
	reg *registry.Registry
}

// New returns a decoder resolving model names through reg. A nil registry
// means the process-wide default.
func New(reg *registry.Registry) *Decoder {
	if reg == nil {
		reg = registry.Default
	}
	return &Decoder{reg: reg}
}

// DecodeRow builds one record of baseName from a row. Columns named
// "Alias.column" whose alias is not the base model are assigned to a related
// record, created once per alias. Related records whose columns are all NULL
// come from an unmatched LEFT JOIN and are dropped.
func (d *Decoder) DecodeRow(columns []string, values []any, baseName string) (*record.Record, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("fieldset: %d columns but %d values", len(columns), len(values))
	}
	base, err := d.reg.Lookup(baseName)
	if err != nil {
		return nil, err
	}

	out := base.NewRecord()
	alias := base.ShortName()
	related := make(map[string]*record.Record)
	populated := make(map[string]bool)
	var order []string

	for i, col := range columns {
		owner, field := splitColumn(col)
		v := Normalize(values[i])
		if owner == "" || owner == alias || owner == base.Name {
			out.Set(field, v)
			continue
		}
		sub, ok := related[owner]
		if !ok {
			desc, err := d.reg.Lookup(owner)
			if err != nil {
				return nil, errors.NewRelatedTypeNotFoundError(base.Name, owner)
			}
			sub = desc.NewRecord()
			related[owner] = sub
			order = append(order, owner)
		}
		sub.Set(field, v)
		if v != nil {
			populated[owner] = true
		}
	}

	for _, name := range order {
		if !populated[name] {
			continue
		}
		sub := related[name]
		sub.Snapshot()
		out.SetRelated(name, sub)
	}
	out.Snapshot()
	return out, nil
}

// DecodeAll drains rows into records in result-set order and closes rows.
func (d *Decoder) DecodeAll(rows datastore.Rows, baseName string) ([]*record.Record, error) {
	defer rows.Close()

	var out []*record.Record
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec, err := d.DecodeRow(cols, vals, baseName)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeRow decodes with the default registry.
func DecodeRow(columns []string, values []any, baseName string) (*record.Record, error) {
	return New(nil).DecodeRow(columns, values, baseName)
}

// DecodeAll decodes with the default registry.
func DecodeAll(rows datastore.Rows, baseName string) ([]*record.Record, error) {
	return New(nil).DecodeAll(rows, baseName)
}

// Normalize converts driver values into the types records hold.
func Normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

// splitColumn splits "Alias.column" at the first dot. Unqualified columns
// return an empty alias.
func splitColumn(col string) (string, string) {
	i := strings.IndexByte(col, '.')
	if i < 0 {
		return "", col
	}
	return col[:i], col[i+1:]
}
