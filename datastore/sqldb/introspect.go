/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldb

import (
	"context"
	"fmt"

	"github.com/suparena/modelstore/errors"
)

// FieldNames returns the columns of table in definition order. Results are
// cached until Clear; an unknown table yields an empty list.
func (c *DB) FieldNames(ctx context.Context, table string) ([]string, error) {
	if err := c.loadSchema(ctx, table); err != nil {
		return nil, err
	}
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	out := make([]string, len(c.columns[table]))
	copy(out, c.columns[table])
	return out, nil
}

// DescribeField returns the declared type of table.field.
func (c *DB) DescribeField(ctx context.Context, table, field string) (string, error) {
	if err := c.loadSchema(ctx, table); err != nil {
		return "", err
	}
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()
	desc, ok := c.types[table][field]
	if !ok {
		return "", errors.NewInvalidFieldError(table, field, nil)
	}
	return desc, nil
}

func (c *DB) loadSchema(ctx context.Context, table string) error {
	c.schemaMu.Lock()
	_, cached := c.columns[table]
	c.schemaMu.Unlock()
	if cached {
		return nil
	}

	query, nameCol, typeCol := c.dialect.FieldsQuery(table)
	if query == "" {
		return fmt.Errorf("sqldb: dialect %s cannot list fields", c.dialect.Name)
	}
	st, err := c.Prepare(ctx, query)
	if err != nil {
		return err
	}
	rs, err := st.Query(ctx)
	if err != nil {
		return err
	}
	defer rs.Close()

	cols, err := rs.Columns()
	if err != nil {
		return err
	}
	nameIdx, typeIdx := -1, -1
	for i, col := range cols {
		switch col {
		case nameCol:
			nameIdx = i
		case typeCol:
			typeIdx = i
		}
	}
	if nameIdx < 0 {
		return fmt.Errorf("sqldb: field listing of %s has no %q column", table, nameCol)
	}

	var names []string
	types := make(map[string]string)
	for rs.Next() {
		vals, err := rs.Values()
		if err != nil {
			return err
		}
		name := scalarString(vals[nameIdx])
		names = append(names, name)
		if typeIdx >= 0 {
			types[name] = scalarString(vals[typeIdx])
		}
	}
	if err := rs.Err(); err != nil {
		return err
	}

	c.schemaMu.Lock()
	c.columns[table] = names
	c.types[table] = types
	c.schemaMu.Unlock()
	return nil
}
