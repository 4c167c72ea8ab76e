/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/suparena/modelstore/errors"
)

// Placeholder is one parameter marker found in a statement.
type Placeholder struct {
	Start int    // byte offset of the marker
	End   int    // byte offset just past the marker
	Name  string // empty for a positional "?"
}

// Placeholders returns the parameter markers of query in order. Quoted
// literals and identifiers are skipped, as are "::" casts.
func Placeholders(query string) []Placeholder {
	var out []Placeholder
	for i := 0; i < len(query); i++ {
		switch c := query[i]; c {
		case '\'', '"', '`':
			i = skipQuoted(query, i)
		case '?':
			out = append(out, Placeholder{Start: i, End: i + 1})
		case ':':
			if i+1 < len(query) && query[i+1] == ':' {
				i++
				continue
			}
			j := i + 1
			for j < len(query) && isIdentByte(query[j], j == i+1) {
				j++
			}
			if j > i+1 {
				out = append(out, Placeholder{Start: i, End: j, Name: query[i+1 : j]})
				i = j - 1
			}
		}
	}
	return out
}

// skipQuoted returns the offset of the quote closing the literal opened at
// start. A doubled quote is an escaped quote.
func skipQuoted(query string, start int) int {
	q := query[start]
	j := start + 1
	for j < len(query) {
		if query[j] == q {
			if j+1 < len(query) && query[j+1] == q {
				j += 2
				continue
			}
			return j
		}
		j++
	}
	return len(query) - 1
}

// QuotedEnd returns the offset of the quote closing the literal or quoted
// identifier that opens at start.
func QuotedEnd(s string, start int) int {
	return skipQuoted(s, start)
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b == '_', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return !first
	}
	return false
}

// Bind rewrites named placeholders as "?" and returns the arguments in marker
// order. Every positional marker consumes one of values, every named marker
// is looked up in params; a count or name mismatch is an invalid input error.
func Bind(query string, values []any, params map[string]any) (string, []any, error) {
	marks := Placeholders(query)
	if len(marks) == 0 {
		if len(values) > 0 {
			return "", nil, errors.NewValidationError("values",
				fmt.Sprintf("%d values supplied but the condition has no placeholders", len(values)))
		}
		return query, nil, nil
	}

	var b strings.Builder
	args := make([]any, 0, len(marks))
	last, next := 0, 0
	for _, m := range marks {
		b.WriteString(query[last:m.Start])
		b.WriteByte('?')
		last = m.End
		if m.Name == "" {
			if next >= len(values) {
				return "", nil, errors.NewValidationError("values",
					fmt.Sprintf("condition has more positional placeholders than the %d values supplied", len(values)))
			}
			args = append(args, values[next])
			next++
			continue
		}
		v, ok := params[m.Name]
		if !ok {
			return "", nil, errors.NewValidationError("params",
				fmt.Sprintf("no value supplied for placeholder :%s", m.Name))
		}
		args = append(args, v)
	}
	b.WriteString(query[last:])
	if next != len(values) {
		return "", nil, errors.NewValidationError("values",
			fmt.Sprintf("%d values supplied for %d positional placeholders", len(values), next))
	}
	return b.String(), args, nil
}

// Interpolate replaces every "?" in query with literal(arg), in order.
func Interpolate(query string, args []any, literal func(any) string) (string, error) {
	marks := Placeholders(query)
	var b strings.Builder
	last, next := 0, 0
	for _, m := range marks {
		if m.Name != "" {
			return "", errors.NewValidationError("params",
				fmt.Sprintf("named placeholder :%s must be bound before interpolation", m.Name))
		}
		if next >= len(args) {
			return "", errors.NewValidationError("values",
				fmt.Sprintf("statement has more placeholders than the %d values supplied", len(args)))
		}
		b.WriteString(query[last:m.Start])
		b.WriteString(literal(args[next]))
		last = m.End
		next++
	}
	if next != len(args) {
		return "", errors.NewValidationError("values",
			fmt.Sprintf("%d values supplied for %d placeholders", len(args), next))
	}
	b.WriteString(query[last:])
	return b.String(), nil
}

// QuoteString returns s as a single-quoted SQL literal with quotes doubled.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Unquote reverses QuoteString and also accepts double-quoted and
// backquoted text. Unquoted input is returned trimmed.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	q := s[0]
	if (q == '\'' || q == '"' || q == '`') && s[len(s)-1] == q {
		inner := s[1 : len(s)-1]
		return strings.ReplaceAll(inner, string([]byte{q, q}), string(q))
	}
	return s
}

// SplitList splits a comma separated list, ignoring commas inside quotes or
// parentheses. Items are trimmed.
func SplitList(s string) []string {
	var items []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = skipQuoted(s, i)
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" || len(items) > 0 {
		items = append(items, tail)
	}
	return items
}

// IndexOutsideQuotes returns the offset of the first case-insensitive match
// of keyword in s that is not inside a quoted literal, or -1. The keyword must
// be bounded by non-identifier bytes.
func IndexOutsideQuotes(s, keyword string) int {
	upper := strings.ToUpper(s)
	kw := strings.ToUpper(keyword)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'', '"', '`':
			i = skipQuoted(s, i)
			continue
		}
		if strings.HasPrefix(upper[i:], kw) {
			before := i == 0 || !isIdentByte(s[i-1], false)
			end := i + len(kw)
			after := end >= len(s) || !isIdentByte(s[end], false)
			if before && after {
				return i
			}
		}
	}
	return -1
}
