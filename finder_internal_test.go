/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFinder(t *testing.T) {
	testCases := []struct {
		method string
		kind   finderKind
		field  string
		ok     bool
	}{
		{"FindByBrand", findOne, "brand", true},
		{"FindAllByDoors", findAll, "doors", true},
		{"CountFindAllByOwner_id", countAll, "owner_id", true},
		{"FindByÉtat", findOne, "état", true},
		{"FindBy", 0, "", false},
		{"CountBy", 0, "", false},
		{"Fetch", 0, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.method, func(t *testing.T) {
			kind, field, ok := parseFinder(tc.method)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestToInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, int32(7), float64(7), "7", []byte(" 7 ")} {
		n, err := toInt64(v)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), n)
	}
	_, err := toInt64(true)
	assert.Error(t, err)
}
