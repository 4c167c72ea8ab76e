/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/suparena/modelstore/sqlbuilder"
)

// EnumValues returns the allowed values of an enum column, or nil when the
// column is not an enum.
func EnumValues(ctx context.Context, in Introspector, table, field string) ([]string, error) {
	desc, err := in.DescribeField(ctx, table, field)
	if err != nil {
		return nil, err
	}
	return ParseEnum(desc), nil
}

// ParseEnum extracts the members of an "enum('a','b')" type description.
func ParseEnum(desc string) []string {
	d := strings.TrimSpace(desc)
	if len(d) < 6 || !strings.EqualFold(d[:5], "enum(") || !strings.HasSuffix(d, ")") {
		return nil
	}
	items := sqlbuilder.SplitList(d[5 : len(d)-1])
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, sqlbuilder.Unquote(item))
	}
	return out
}

// ColumnSet returns the field names of table as a set.
func ColumnSet(ctx context.Context, in Introspector, table string) (map[string]bool, error) {
	names, err := in.FieldNames(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields of %s: %w", table, err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}
