/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlbuilder

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/storagemodels"
)

func TestBuildSelect_Golden(t *testing.T) {
	g := goldie.New(t)

	joined, err := BuildSelect(SQLite, SelectSpec{
		Table:   "cars",
		Alias:   "Car",
		Columns: []string{"id", "brand", "owner_id"},
		Joins: []Join{{
			Table:      "owners",
			Alias:      "Owner",
			ForeignKey: "owner_id",
			PrimaryKey: "id",
			Columns:    []string{"id", "name"},
		}},
	})
	require.NoError(t, err)
	g.Assert(t, "select_join_sqlite", []byte(joined))

	window, err := BuildSelect(MySQL, SelectSpec{
		Table:  "cars",
		Alias:  "Car",
		Where:  "brand = ?",
		Order:  "doors DESC",
		Limit:  storagemodels.Int(10),
		Offset: storagemodels.Int(20),
	})
	require.NoError(t, err)
	g.Assert(t, "select_window_mysql", []byte(window))

	insert := Postgres.Rebind(BuildInsert(Postgres, "cars", []string{"brand", "doors"}, "id"))
	g.Assert(t, "insert_postgres", []byte(insert))
}

func TestBuildSelect_CountIgnoresJoinsAndOrder(t *testing.T) {
	q, err := BuildSelect(SQLite, SelectSpec{
		Table:     "cars",
		Alias:     "Car",
		Joins:     []Join{{Table: "owners", Alias: "Owner", ForeignKey: "owner_id", PrimaryKey: "id"}},
		Where:     "doors = ?",
		Order:     "id",
		Limit:     storagemodels.Int(5),
		CountOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "cars" AS "Car" WHERE doors = ?`, q)
}

func TestBuildSelect_KeepsWhereAndOrder(t *testing.T) {
	q, err := BuildSelect(SQLite, SelectSpec{Table: "cars", Alias: "Car", Where: "  brand = 'x' ", Order: "brand"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "cars" AS "Car" WHERE brand = 'x' ORDER BY brand`, q)
}

func TestBuildSelect_JoinNeedsColumns(t *testing.T) {
	_, err := BuildSelect(SQLite, SelectSpec{
		Table: "cars",
		Alias: "Car",
		Joins: []Join{{Table: "owners", Alias: "Owner", ForeignKey: "owner_id", PrimaryKey: "id"}},
	})
	assert.Error(t, err)

	_, err = BuildSelect(SDB, SelectSpec{
		Table:   "cars",
		Columns: []string{"id"},
		Joins:   []Join{{Table: "owners", Alias: "Owner", Columns: []string{"id"}}},
	})
	assert.Error(t, err, "the key-attribute dialect cannot join")
}

func TestBuildSelect_SDBHasNoAlias(t *testing.T) {
	q, err := BuildSelect(SDB, SelectSpec{
		Table: "cars",
		Alias: "Car",
		Where: "`brand` = ?",
		Limit: storagemodels.Int(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `cars` WHERE `brand` = ? LIMIT 10", q)
}

func TestLimitClause(t *testing.T) {
	testCases := []struct {
		name    string
		dialect *Dialect
		limit   *int
		offset  *int
		want    string
	}{
		{"none", SQLite, nil, nil, ""},
		{"limit only", SQLite, storagemodels.Int(3), nil, " LIMIT 3"},
		{"limit zero offset", MySQL, storagemodels.Int(3), storagemodels.Int(0), " LIMIT 3"},
		{"both", Postgres, storagemodels.Int(3), storagemodels.Int(6), " LIMIT 3 OFFSET 6"},
		{"offset sqlite", SQLite, nil, storagemodels.Int(6), " LIMIT -1 OFFSET 6"},
		{"offset mysql", MySQL, nil, storagemodels.Int(6), " LIMIT 18446744073709551615 OFFSET 6"},
		{"offset postgres", Postgres, nil, storagemodels.Int(6), " OFFSET 6"},
		{"offset sdb", SDB, nil, storagemodels.Int(6), " OFFSET 6"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.dialect.LimitClause(tc.limit, tc.offset))
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	assert.Equal(t, "", BuildUpdate(SQLite, "cars", "id", nil), "no changed fields means no statement")
	assert.Equal(t,
		`UPDATE "cars" SET "doors" = ? WHERE "id" = ?`,
		BuildUpdate(SQLite, "cars", "id", []string{"doors"}))
	assert.Equal(t,
		"UPDATE `cars` SET `doors` = ?, `brand` = ? WHERE `id` = ?",
		BuildUpdate(MySQL, "cars", "id", []string{"doors", "brand"}))
}

func TestBuildInsertAndDelete(t *testing.T) {
	assert.Equal(t, `INSERT INTO "cars" DEFAULT VALUES`, BuildInsert(SQLite, "cars", nil, "id"))
	assert.Equal(t, "INSERT INTO `cars` () VALUES ()", BuildInsert(MySQL, "cars", nil, "id"))
	assert.Equal(t, `INSERT INTO "cars" ("brand") VALUES (?)`, BuildInsert(SQLite, "cars", []string{"brand"}, "id"),
		"RETURNING is only used by dialects that need it")
	assert.Equal(t, `DELETE FROM "cars" WHERE "id" = ?`, BuildDelete(SQLite, "cars", "id"))
	assert.Equal(t, "DELETE FROM `cars` WHERE `doors` > 2", BuildDeleteWhere(SDB, "cars", "`doors` > 2"))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"Car"."id"`, SQLite.Quote("Car.id"))
	assert.Equal(t, `"Car.id"`, SQLite.QuoteAlias("Car.id"))
	assert.Equal(t, "`we``ird`", MySQL.Quote("we`ird"))
	assert.Equal(t, `"Car".*`, SQLite.Quote("Car.*"))
	assert.Equal(t, "`id`", SDB.Column("Car", "id"))
}

func TestForName(t *testing.T) {
	for name, want := range map[string]*Dialect{
		"sqlite3":  SQLite,
		"MySQL":    MySQL,
		"pgx":      Postgres,
		"dynamodb": SDB,
	} {
		got, ok := ForName(name)
		require.True(t, ok, name)
		assert.Same(t, want, got)
	}
	_, ok := ForName("oracle")
	assert.False(t, ok)
}
