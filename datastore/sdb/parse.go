/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/sqlbuilder"
)

const itemNameFunc = "itemName()"

// statement kinds
const (
	kindSelect = "SELECT"
	kindInsert = "INSERT"
	kindUpdate = "UPDATE"
	kindDelete = "DELETE"
)

func statementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// binder hands out bound arguments to "?" markers in order and decodes
// literal values.
type binder struct {
	args []any
	next int
}

func (b *binder) value(token string) (any, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == "?":
		if b.next >= len(b.args) {
			return nil, errors.NewValidationError("values",
				fmt.Sprintf("statement has more placeholders than the %d values supplied", len(b.args)))
		}
		v := b.args[b.next]
		b.next++
		return v, nil
	case strings.EqualFold(token, "NULL"):
		return nil, nil
	}
	return sqlbuilder.Unquote(token), nil
}

func (b *binder) done() error {
	if b.next != len(b.args) {
		return errors.NewValidationError("values",
			fmt.Sprintf("%d values supplied for %d placeholders", len(b.args), b.next))
	}
	return nil
}

// identAfter returns the identifier following keyword in query.
func identAfter(query, keyword string) (string, int, error) {
	i := sqlbuilder.IndexOutsideQuotes(query, keyword)
	if i < 0 {
		return "", 0, fmt.Errorf("sdb: no %s in %q", keyword, query)
	}
	rest := query[i+len(keyword):]
	start := len(rest) - len(strings.TrimLeft(rest, " \t\r\n"))
	j := start
	if j < len(rest) && (rest[j] == '`' || rest[j] == '"') {
		j = sqlbuilder.QuotedEnd(rest, j) + 1
	} else {
		for j < len(rest) && !strings.ContainsRune(" \t\r\n(", rune(rest[j])) {
			j++
		}
	}
	if j == start {
		return "", 0, fmt.Errorf("sdb: no name after %s in %q", keyword, query)
	}
	return sqlbuilder.Unquote(rest[start:j]), i + len(keyword) + j, nil
}

// indexByteOutsideQuotes returns the first offset of c outside quotes, or -1.
func indexByteOutsideQuotes(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = sqlbuilder.QuotedEnd(s, i)
		case c:
			return i
		}
	}
	return -1
}

// parenGroup returns the text inside the first parenthesis group of s at or
// after from, and the offset just past its closing parenthesis.
func parenGroup(s string, from int) (string, int, error) {
	open := indexByteOutsideQuotes(s[from:], '(')
	if open < 0 {
		return "", 0, fmt.Errorf("sdb: missing '(' in %q", s)
	}
	open += from
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = sqlbuilder.QuotedEnd(s, i)
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], i + 1, nil
			}
		}
	}
	return "", 0, fmt.Errorf("sdb: unbalanced parentheses in %q", s)
}

// insertStatement is a parsed INSERT.
type insertStatement struct {
	table  string
	fields []string
	values map[string]any
}

func parseInsert(query string, args []any) (*insertStatement, error) {
	table, end, err := identAfter(query, "INTO")
	if err != nil {
		return nil, err
	}
	fieldList, end, err := parenGroup(query, end)
	if err != nil {
		return nil, err
	}
	v := sqlbuilder.IndexOutsideQuotes(query[end:], "VALUES")
	if v < 0 {
		return nil, fmt.Errorf("sdb: no VALUES in %q", query)
	}
	valueList, _, err := parenGroup(query, end+v)
	if err != nil {
		return nil, err
	}

	names := sqlbuilder.SplitList(fieldList)
	items := sqlbuilder.SplitList(valueList)
	if len(names) != len(items) {
		return nil, errors.NewValidationError("values",
			fmt.Sprintf("insert names %d fields but %d values", len(names), len(items)))
	}

	st := &insertStatement{table: table, values: make(map[string]any, len(names))}
	b := &binder{args: args}
	for i, n := range names {
		field := sqlbuilder.Unquote(n)
		val, err := b.value(items[i])
		if err != nil {
			return nil, err
		}
		if _, dup := st.values[field]; !dup {
			st.fields = append(st.fields, field)
		}
		st.values[field] = val
	}
	return st, b.done()
}

// updateStatement is a parsed single-key UPDATE.
type updateStatement struct {
	table  string
	key    string
	fields []string
	values map[string]any
}

func parseUpdate(query string, args []any, keyOf func(string) string) (*updateStatement, error) {
	table, end, err := identAfter(query, "UPDATE")
	if err != nil {
		return nil, err
	}
	rest := query[end:]
	s := sqlbuilder.IndexOutsideQuotes(rest, "SET")
	w := sqlbuilder.IndexOutsideQuotes(rest, "WHERE")
	if s < 0 || w < 0 || w < s {
		return nil, errors.NewMutationError("update", table, "update needs SET and a key WHERE clause", nil)
	}

	st := &updateStatement{table: table, values: make(map[string]any)}
	b := &binder{args: args}
	for _, assignment := range sqlbuilder.SplitList(rest[s+len("SET") : w]) {
		eq := indexByteOutsideQuotes(assignment, '=')
		if eq < 0 {
			return nil, fmt.Errorf("sdb: malformed assignment %q", assignment)
		}
		field := sqlbuilder.Unquote(assignment[:eq])
		val, err := b.value(assignment[eq+1:])
		if err != nil {
			return nil, err
		}
		if _, dup := st.values[field]; !dup {
			st.fields = append(st.fields, field)
		}
		st.values[field] = val
	}

	key, ok, err := keyEquality(rest[w+len("WHERE"):], keyOf(table), b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewMutationError("update", table, "update must target a single item key", nil)
	}
	st.key = key
	return st, b.done()
}

// keyEquality reports whether cond is exactly "key = value" and returns the
// encoded key. Placeholders consumed by a non-matching condition are rolled
// back.
func keyEquality(cond, pk string, b *binder) (string, bool, error) {
	cond = strings.TrimSpace(cond)
	if sqlbuilder.IndexOutsideQuotes(cond, "AND") >= 0 || sqlbuilder.IndexOutsideQuotes(cond, "OR") >= 0 {
		return "", false, nil
	}
	eq := indexByteOutsideQuotes(cond, '=')
	if eq <= 0 || strings.ContainsAny(cond[eq-1:eq], "!<>") {
		return "", false, nil
	}
	lhs := sqlbuilder.Unquote(cond[:eq])
	if lhs != pk && !strings.EqualFold(lhs, itemNameFunc) {
		return "", false, nil
	}
	rhs := strings.TrimSpace(cond[eq+1:])
	if rhs != "?" && (len(rhs) < 2 || rhs[0] != '\'') {
		return "", false, nil
	}
	mark := b.next
	v, err := b.value(rhs)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		b.next = mark
		return "", false, nil
	}
	return EncodeValue(v), true, nil
}

// deleteStatement is a parsed DELETE, either by key or by predicate.
type deleteStatement struct {
	table string
	key   string
	byKey bool
	where string
}

func parseDelete(query string, args []any, keyOf func(string) string) (*deleteStatement, error) {
	table, end, err := identAfter(query, "FROM")
	if err != nil {
		return nil, err
	}
	st := &deleteStatement{table: table}
	rest := query[end:]
	w := sqlbuilder.IndexOutsideQuotes(rest, "WHERE")
	if w < 0 {
		if len(args) > 0 {
			return nil, errors.NewValidationError("values", "delete without WHERE takes no values")
		}
		return st, nil
	}
	cond := rest[w+len("WHERE"):]
	pk := keyOf(table)

	b := &binder{args: args}
	key, ok, err := keyEquality(cond, pk, b)
	if err != nil {
		return nil, err
	}
	if ok {
		st.key, st.byKey = key, true
		return st, b.done()
	}

	where, err := sqlbuilder.Interpolate(rewriteKey(cond, pk), args, literal)
	if err != nil {
		return nil, err
	}
	st.where = strings.TrimSpace(where)
	return st, nil
}

// rewriteKey replaces references to the key field outside string literals
// with itemName(), since the key is not an attribute of the item.
func rewriteKey(query, pk string) string {
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			j := sqlbuilder.QuotedEnd(query, i)
			b.WriteString(query[i : j+1])
			i = j
		case c == '`':
			j := sqlbuilder.QuotedEnd(query, i)
			quoted := query[i : j+1]
			if sqlbuilder.Unquote(quoted) == pk {
				b.WriteString(itemNameFunc)
			} else {
				b.WriteString(quoted)
			}
			i = j
		case isWordByte(c) && (i == 0 || !isWordByte(query[i-1])):
			j := i
			for j < len(query) && isWordByte(query[j]) {
				j++
			}
			word := query[i:j]
			if word == pk && (j >= len(query) || query[j] != '(') && (i == 0 || query[i-1] != '.') {
				b.WriteString(itemNameFunc)
			} else {
				b.WriteString(word)
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// window is the LIMIT/OFFSET tail cut from a select.
type window struct {
	limit  *int
	offset int
}

// splitWindow removes a trailing "LIMIT n [OFFSET m]" or "OFFSET m".
func splitWindow(query string) (string, window, error) {
	var w window
	cut := len(query)

	if i := sqlbuilder.IndexOutsideQuotes(query, "LIMIT"); i >= 0 {
		n, err := leadingInt(query[i+len("LIMIT"):])
		if err != nil {
			return "", w, fmt.Errorf("sdb: bad LIMIT in %q: %w", query, err)
		}
		w.limit = &n
		cut = i
	}
	if i := sqlbuilder.IndexOutsideQuotes(query, "OFFSET"); i >= 0 {
		n, err := leadingInt(query[i+len("OFFSET"):])
		if err != nil {
			return "", w, fmt.Errorf("sdb: bad OFFSET in %q: %w", query, err)
		}
		w.offset = n
		if i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(query[:cut]), w, nil
}

func leadingInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("missing number")
	}
	return strconv.Atoi(fields[0])
}

// isCount reports whether a select projects COUNT(*).
func isCount(query string) bool {
	f := sqlbuilder.IndexOutsideQuotes(query, "FROM")
	if f < 0 {
		return false
	}
	proj := strings.ToLower(strings.Join(strings.Fields(query[len("SELECT"):f]), ""))
	return proj == "count(*)"
}
