/*
Package sqlbuilder constructs the SQL text modelstore executes.

Statements are built from plain specs so the output is deterministic and can
be cached by text:

	q, err := sqlbuilder.BuildSelect(sqlbuilder.SQLite, sqlbuilder.SelectSpec{
	    Table: "cars",
	    Alias: "Car",
	    Where: "brand = ?",
	    Order: "id DESC",
	    Limit: storagemodels.Int(10),
	})
	// SELECT * FROM "cars" AS "Car" WHERE brand = ? ORDER BY id DESC LIMIT 10

Every builder emits ? placeholders; Dialect.Rebind rewrites them for drivers
that number their parameters. The placeholder tokenizer understands quoted
literals and named parameters, so ":brand" is never confused with
":brandname" and a '?' inside a string literal is not a parameter.
*/
package sqlbuilder
