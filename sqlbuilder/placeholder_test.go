/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuilder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
)

func TestPlaceholders_SkipsLiteralsAndCasts(t *testing.T) {
	marks := Placeholders(`SELECT * FROM t WHERE a = ? AND b = '?' AND c = :c AND d::int = "x?" AND e = :e1`)
	require.Len(t, marks, 3)
	assert.Equal(t, "", marks[0].Name)
	assert.Equal(t, "c", marks[1].Name)
	assert.Equal(t, "e1", marks[2].Name)
}

func TestBind_NamedCollision(t *testing.T) {
	q, args, err := Bind("brand = :brand OR brand = :brandname",
		nil, map[string]any{"brand": "Fiat", "brandname": "Lancia"})
	require.NoError(t, err)
	assert.Equal(t, "brand = ? OR brand = ?", q)
	assert.Equal(t, []any{"Fiat", "Lancia"}, args)
}

func TestBind_Mismatch(t *testing.T) {
	_, _, err := Bind("a = ? AND b = ?", []any{1}, nil)
	assert.True(t, errors.IsValidationError(err))

	_, _, err = Bind("a = ?", []any{1, 2}, nil)
	assert.True(t, errors.IsValidationError(err))

	_, _, err = Bind("a = :a", nil, map[string]any{"b": 1})
	assert.True(t, errors.IsValidationError(err))

	_, _, err = Bind("a = 1", []any{1}, nil)
	assert.True(t, errors.IsValidationError(err))

	q, args, err := Bind("a = 1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "a = 1", q)
	assert.Empty(t, args)
}

func TestInterpolate_EscapesQuotes(t *testing.T) {
	literal := func(v any) string { return QuoteString(fmt.Sprint(v)) }

	q, err := Interpolate("select * from `cars` where `brand` = ? and `model` = ?",
		[]any{"Alfa Romeo", "Giulia's"}, literal)
	require.NoError(t, err)
	assert.Equal(t, "select * from `cars` where `brand` = 'Alfa Romeo' and `model` = 'Giulia''s'", q)

	_, err = Interpolate("a = ?", nil, literal)
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = '?' AND c = $2", Postgres.Rebind("a = ? AND b = '?' AND c = ?"))
	assert.Equal(t, "a = ?", SQLite.Rebind("a = ?"))
}

func TestSplitListAndUnquote(t *testing.T) {
	items := SplitList(`'a, b', 3, "c", f(1, 2)`)
	assert.Equal(t, []string{`'a, b'`, "3", `"c"`, "f(1, 2)"}, items)
	assert.Equal(t, "it's", Unquote(`'it''s'`))
	assert.Equal(t, "id", Unquote("`id`"))
	assert.Equal(t, "42", Unquote(" 42 "))
	assert.Empty(t, SplitList("  "))
}

func TestIndexOutsideQuotes(t *testing.T) {
	s := "UPDATE t SET a = 'x where y' WHERE id = 1"
	assert.Equal(t, 29, IndexOutsideQuotes(s, "where"))
	assert.Equal(t, -1, IndexOutsideQuotes("SET somewhere = 1", "where"))
}

func TestQuotedEnd(t *testing.T) {
	s := "a = 'it''s' AND b"
	assert.Equal(t, 10, QuotedEnd(s, 4))
	assert.Equal(t, len(s)-1, QuotedEnd("'open", 0))
}
