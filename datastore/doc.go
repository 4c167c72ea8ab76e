/*
Package datastore defines the narrow driver contract the modelstore lifecycle
runs on.

	type Conn interface {
	    Name() string
	    Dialect() *sqlbuilder.Dialect
	    Prepare(ctx context.Context, query string) (Stmt, error)
	    Close() error
	}

A Stmt is executed with Query or Exec and returns Rows or a Result. Rows are
read column-by-column per row so backends without a fixed schema can report
the attributes each item actually has.

Implementations:
  - sqldb: database/sql backed relational connections with a statement cache
  - sdb: SQL emulation over a SELECT-only key-attribute service
  - mock: in-memory doubles for testing
*/
package datastore
