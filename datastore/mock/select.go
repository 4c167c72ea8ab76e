/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

const itemNameFunc = "itemname()"

// selectQuery is a parsed select expression. Conditions are a disjunction
// of conjunctions of simple predicates; parentheses are not supported.
type selectQuery struct {
	domain   string
	count    bool
	itemOnly bool
	columns  []string
	where    [][]predicate
	orderBy  string
	desc     bool
	limit    int
}

type predicate struct {
	field  string
	op     string
	values []string
}

func parseSelect(expr string) (*selectQuery, error) {
	s := strings.TrimSpace(expr)
	if len(s) < 6 || !strings.EqualFold(s[:6], "select") {
		return nil, fmt.Errorf("InvalidQueryExpression: %q is not a select", expr)
	}
	from := sqlbuilder.IndexOutsideQuotes(s, "from")
	if from < 0 {
		return nil, fmt.Errorf("InvalidQueryExpression: no from in %q", expr)
	}

	q := &selectQuery{}
	proj := strings.TrimSpace(s[6:from])
	switch strings.ToLower(strings.ReplaceAll(proj, " ", "")) {
	case "*":
	case "count(*)":
		q.count = true
	case itemNameFunc:
		q.itemOnly = true
	default:
		for _, c := range sqlbuilder.SplitList(proj) {
			q.columns = append(q.columns, sqlbuilder.Unquote(c))
		}
	}

	rest := strings.TrimSpace(s[from+4:])
	end := len(rest)
	limitAt := sqlbuilder.IndexOutsideQuotes(rest, "limit")
	if limitAt >= 0 {
		fields := strings.Fields(rest[limitAt+5:])
		if len(fields) == 0 {
			return nil, fmt.Errorf("InvalidQueryExpression: limit without a number")
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("InvalidQueryExpression: bad limit %q", fields[0])
		}
		q.limit = n
		end = limitAt
	}
	orderAt := sqlbuilder.IndexOutsideQuotes(rest[:end], "order")
	if orderAt >= 0 {
		ob := strings.Fields(rest[orderAt+5 : end])
		if len(ob) < 2 || !strings.EqualFold(ob[0], "by") {
			return nil, fmt.Errorf("InvalidQueryExpression: malformed order by")
		}
		q.orderBy = sqlbuilder.Unquote(ob[1])
		q.desc = len(ob) > 2 && strings.EqualFold(ob[2], "desc")
		end = orderAt
	}
	whereAt := sqlbuilder.IndexOutsideQuotes(rest[:end], "where")
	tableEnd := end
	if whereAt >= 0 {
		tableEnd = whereAt
		var err error
		if q.where, err = parseCondition(rest[whereAt+5 : end]); err != nil {
			return nil, err
		}
	}
	q.domain = sqlbuilder.Unquote(rest[:tableEnd])
	return q, nil
}

// splitKeyword splits s at every standalone keyword outside quotes.
func splitKeyword(s, keyword string) []string {
	var parts []string
	for {
		i := sqlbuilder.IndexOutsideQuotes(s, keyword)
		if i < 0 {
			return append(parts, s)
		}
		parts = append(parts, s[:i])
		s = s[i+len(keyword):]
	}
}

func parseCondition(cond string) ([][]predicate, error) {
	var out [][]predicate
	for _, disjunct := range splitKeyword(cond, "or") {
		var conj []predicate
		for _, raw := range splitKeyword(disjunct, "and") {
			p, err := parsePredicate(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			conj = append(conj, p)
		}
		out = append(out, conj)
	}
	return out, nil
}

var operators = []string{"is not null", "is null", "not like", "like", "in", "!=", "<>", ">=", "<=", "=", "<", ">"}

func parsePredicate(s string) (predicate, error) {
	var field, rest string
	if strings.HasPrefix(s, "`") {
		j := sqlbuilder.QuotedEnd(s, 0)
		field, rest = sqlbuilder.Unquote(s[:j+1]), strings.TrimSpace(s[j+1:])
	} else if strings.HasPrefix(strings.ToLower(s), itemNameFunc) {
		field, rest = itemNameFunc, strings.TrimSpace(s[len(itemNameFunc):])
	} else {
		j := strings.IndexAny(s, " !=<>")
		if j <= 0 {
			return predicate{}, fmt.Errorf("InvalidQueryExpression: malformed predicate %q", s)
		}
		field, rest = s[:j], strings.TrimSpace(s[j:])
	}

	lower := strings.ToLower(rest)
	for _, op := range operators {
		if !strings.HasPrefix(lower, op) {
			continue
		}
		rhs := strings.TrimSpace(rest[len(op):])
		p := predicate{field: field, op: op}
		switch op {
		case "is null", "is not null":
		case "in":
			inner := strings.TrimSuffix(strings.TrimPrefix(rhs, "("), ")")
			for _, v := range sqlbuilder.SplitList(inner) {
				p.values = append(p.values, sqlbuilder.Unquote(v))
			}
		default:
			p.values = []string{sqlbuilder.Unquote(rhs)}
		}
		return p, nil
	}
	return predicate{}, fmt.Errorf("InvalidQueryExpression: unknown operator in %q", s)
}

func (q *selectQuery) match(d *domain) ([]string, error) {
	var out []string
	for _, name := range d.order {
		ok, err := q.matches(name, d.items[name])
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, name)
		}
	}
	if q.orderBy != "" {
		key := func(name string) string {
			if strings.EqualFold(q.orderBy, itemNameFunc) {
				return name
			}
			vals := attrValues(d.items[name], q.orderBy)
			if len(vals) == 0 {
				return ""
			}
			return vals[0]
		}
		sort.SliceStable(out, func(i, j int) bool {
			if q.desc {
				return key(out[i]) > key(out[j])
			}
			return key(out[i]) < key(out[j])
		})
	}
	return out, nil
}

func (q *selectQuery) matches(name string, attrs []storagemodels.Attribute) (bool, error) {
	if len(q.where) == 0 {
		return true, nil
	}
	for _, conj := range q.where {
		all := true
		for _, p := range conj {
			ok, err := p.eval(name, attrs)
			if err != nil {
				return false, err
			}
			if !ok {
				all = false
				break
			}
		}
		if all {
			return true, nil
		}
	}
	return false, nil
}

func attrValues(attrs []storagemodels.Attribute, field string) []string {
	var out []string
	for _, a := range attrs {
		if a.Name == field {
			out = append(out, a.Value)
		}
	}
	return out
}

// eval compares as strings, the way the store does. A multi-valued
// attribute matches when any of its values does.
func (p predicate) eval(name string, attrs []storagemodels.Attribute) (bool, error) {
	var vals []string
	if p.field == itemNameFunc {
		vals = []string{name}
	} else {
		vals = attrValues(attrs, p.field)
	}
	switch p.op {
	case "is null":
		return len(vals) == 0, nil
	case "is not null":
		return len(vals) > 0, nil
	}
	var re *regexp.Regexp
	if p.op == "like" || p.op == "not like" {
		pattern := regexp.QuoteMeta(p.values[0])
		pattern = strings.ReplaceAll(pattern, "%", ".*")
		pattern = strings.ReplaceAll(pattern, "_", ".")
		var err error
		if re, err = regexp.Compile("^" + pattern + "$"); err != nil {
			return false, err
		}
	}
	for _, v := range vals {
		var ok bool
		switch p.op {
		case "=":
			ok = v == p.values[0]
		case "!=", "<>":
			ok = v != p.values[0]
		case "<":
			ok = v < p.values[0]
		case ">":
			ok = v > p.values[0]
		case "<=":
			ok = v <= p.values[0]
		case ">=":
			ok = v >= p.values[0]
		case "like":
			ok = re.MatchString(v)
		case "not like":
			ok = !re.MatchString(v)
		case "in":
			for _, want := range p.values {
				if v == want {
					ok = true
					break
				}
			}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (q *selectQuery) project(attrs []storagemodels.Attribute) []storagemodels.Attribute {
	if q.itemOnly {
		return nil
	}
	if len(q.columns) == 0 {
		return append([]storagemodels.Attribute(nil), attrs...)
	}
	want := make(map[string]bool, len(q.columns))
	for _, c := range q.columns {
		want[c] = true
	}
	var out []storagemodels.Attribute
	for _, a := range attrs {
		if want[a.Name] {
			out = append(out, a)
		}
	}
	return out
}
