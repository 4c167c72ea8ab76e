/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-openapi/strfmt"

	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

// EncodeValue renders v the way the store keeps it. The store only holds
// strings; times are written as RFC 3339 with milliseconds in UTC so they
// compare lexicographically.
func EncodeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		return strfmt.DateTime(t.UTC()).String()
	case *time.Time:
		if t == nil {
			return ""
		}
		return strfmt.DateTime(t.UTC()).String()
	case strfmt.DateTime:
		return strfmt.DateTime(time.Time(t).UTC()).String()
	case *strfmt.DateTime:
		if t == nil {
			return ""
		}
		return strfmt.DateTime(time.Time(*t).UTC()).String()
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// literal renders v as a select expression literal.
func literal(v any) string {
	return sqlbuilder.QuoteString(EncodeValue(v))
}

// chunk splits value into attributes of at most size bytes. Values that fit
// keep the plain name; larger ones are stored as name[0], name[1], ... and
// never split inside a UTF-8 sequence.
func chunk(name, value string, size int) []storagemodels.Attribute {
	if size <= 0 || len(value) <= size {
		return []storagemodels.Attribute{{Name: name, Value: value}}
	}
	var out []storagemodels.Attribute
	rest := value
	for i := 0; len(rest) > 0; i++ {
		n := size
		if n >= len(rest) {
			n = len(rest)
		} else {
			for n > 0 && !utf8.RuneStart(rest[n]) {
				n--
			}
			if n == 0 {
				n = size
			}
		}
		out = append(out, storagemodels.Attribute{Name: chunkName(name, i), Value: rest[:n]})
		rest = rest[n:]
	}
	return out
}

func chunkName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// splitChunkName returns the field and index of a "field[n]" attribute.
func splitChunkName(attr string) (string, int, bool) {
	if !strings.HasSuffix(attr, "]") {
		return attr, 0, false
	}
	open := strings.LastIndexByte(attr, '[')
	if open <= 0 {
		return attr, 0, false
	}
	idx, err := strconv.Atoi(attr[open+1 : len(attr)-1])
	if err != nil || idx < 0 {
		return attr, 0, false
	}
	return attr[:open], idx, true
}

// fieldOf returns the field an attribute belongs to.
func fieldOf(attr string) string {
	field, _, _ := splitChunkName(attr)
	return field
}

// reassemble folds chunked attributes back into one value per field, in the
// order fields first appear. Chunks are joined in index order and take
// precedence over a plain attribute of the same field.
func reassemble(attrs []storagemodels.Attribute) ([]string, map[string]string) {
	type part struct {
		idx   int
		value string
	}
	var order []string
	seen := make(map[string]bool)
	plain := make(map[string]string)
	chunks := make(map[string][]part)

	for _, a := range attrs {
		field, idx, isChunk := splitChunkName(a.Name)
		if !seen[field] {
			seen[field] = true
			order = append(order, field)
		}
		if isChunk {
			chunks[field] = append(chunks[field], part{idx: idx, value: a.Value})
		} else {
			plain[field] = a.Value
		}
	}

	values := make(map[string]string, len(order))
	for _, field := range order {
		parts, ok := chunks[field]
		if !ok {
			values[field] = plain[field]
			continue
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i].idx < parts[j].idx })
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.value)
		}
		values[field] = b.String()
	}
	return order, values
}
