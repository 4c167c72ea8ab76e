/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/sqlbuilder"
)

const pingTimeout = 5 * time.Second

// DB is a relational connection for one config group. Statements are
// prepared once per distinct SQL text and reused until Clear or Close.
type DB struct {
	name    string
	dialect *sqlbuilder.Dialect
	db      *sql.DB

	mu    sync.Mutex
	stmts map[string]*sql.Stmt

	schemaMu sync.Mutex
	columns  map[string][]string
	types    map[string]map[string]string
}

var (
	_ datastore.Conn         = (*DB)(nil)
	_ datastore.Introspector = (*DB)(nil)
)

// Open connects the group name described by cfg and pings it. Any failure
// is a configuration error.
func Open(ctx context.Context, name string, cfg config.Database) (*DB, error) {
	dialect, ok := sqlbuilder.ForName(cfg.Type)
	if !ok || dialect == sqlbuilder.SDB {
		return nil, errors.NewConfigurationError(name, fmt.Sprintf("unsupported relational type %q", cfg.Type), nil)
	}
	driver, dsn, err := driverDSN(dialect, cfg)
	if err != nil {
		return nil, errors.NewConfigurationError(name, "cannot build connection string", err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.NewConfigurationError(name, "open failed", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if errPing := db.PingContext(ctxPing); errPing != nil {
		_ = db.Close()
		return nil, errors.NewConfigurationError(name, "connection negotiation failed", errPing)
	}
	log.WithField("group", name).Infof("opened %s connection", dialect.Name)
	return New(name, db, dialect), nil
}

// New wraps an open *sql.DB.
func New(name string, db *sql.DB, dialect *sqlbuilder.Dialect) *DB {
	return &DB{
		name:    name,
		dialect: dialect,
		db:      db,
		stmts:   make(map[string]*sql.Stmt),
		columns: make(map[string][]string),
		types:   make(map[string]map[string]string),
	}
}

func driverDSN(d *sqlbuilder.Dialect, cfg config.Database) (string, string, error) {
	switch d {
	case sqlbuilder.SQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Name
		}
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite needs a dsn or a database name")
		}
		return "sqlite3", dsn, nil
	case sqlbuilder.MySQL:
		if cfg.DSN != "" {
			return "mysql", cfg.DSN, nil
		}
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Address()
		mc.DBName = cfg.Name
		mc.ParseTime = true
		return "mysql", mc.FormatDSN(), nil
	case sqlbuilder.Postgres:
		if cfg.DSN != "" {
			return "pgx", cfg.DSN, nil
		}
		u := url.URL{Scheme: "postgres", Host: cfg.Address(), Path: "/" + cfg.Name}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		return "pgx", u.String(), nil
	}
	return "", "", fmt.Errorf("no driver for dialect %s", d.Name)
}

// Name returns the config group.
func (c *DB) Name() string { return c.name }

// Dialect returns the SQL dialect of the connection.
func (c *DB) Dialect() *sqlbuilder.Dialect { return c.dialect }

// DB exposes the underlying pool.
func (c *DB) DB() *sql.DB { return c.db }

// Prepare returns the cached statement for query, preparing it on first use.
// Administrative statements are never cached.
func (c *DB) Prepare(ctx context.Context, query string) (datastore.Stmt, error) {
	if isAdministrative(query) {
		return &directStmt{conn: c, query: query}, nil
	}
	st, err := c.GetOrPrepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return &cachedStmt{conn: c, query: query, stmt: st}, nil
}

// GetOrPrepare returns the one *sql.Stmt held for query.
func (c *DB) GetOrPrepare(ctx context.Context, query string) (*sql.Stmt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.stmts[query]; ok {
		return st, nil
	}
	st, err := c.db.PrepareContext(ctx, c.dialect.Rebind(query))
	if err != nil {
		return nil, mapError(query, err)
	}
	log.WithField("group", c.name).Debugf("prepared statement: %s", query)
	c.stmts[query] = st
	return st, nil
}

// CachedStatements returns the number of prepared statements held.
func (c *DB) CachedStatements() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stmts)
}

// Clear closes every cached statement and forgets cached schema.
func (c *DB) Clear() {
	c.mu.Lock()
	for q, st := range c.stmts {
		if err := st.Close(); err != nil {
			log.WithError(err).WithField("group", c.name).Warn("failed to close statement")
		}
		delete(c.stmts, q)
	}
	c.mu.Unlock()

	c.schemaMu.Lock()
	c.columns = make(map[string][]string)
	c.types = make(map[string]map[string]string)
	c.schemaMu.Unlock()
}

// Close clears the statement cache and closes the pool.
func (c *DB) Close() error {
	c.Clear()
	return c.db.Close()
}

func isAdministrative(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "PRAGMA", "SHOW", "DESCRIBE", "DESC", "EXPLAIN":
		return true
	}
	return false
}

// cachedStmt runs a statement from the cache.
type cachedStmt struct {
	conn  *DB
	query string
	stmt  *sql.Stmt
}

func (s *cachedStmt) Query(ctx context.Context, args ...any) (datastore.Rows, error) {
	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, mapError(s.query, err)
	}
	return newRows(rows)
}

func (s *cachedStmt) Exec(ctx context.Context, args ...any) (datastore.Result, error) {
	if s.conn.dialect.UsesReturning() && hasReturning(s.query) {
		var id any
		if err := s.stmt.QueryRowContext(ctx, args...).Scan(&id); err != nil {
			return nil, mapError(s.query, err)
		}
		return datastore.StaticResult{ID: id, Affected: 1}, nil
	}
	res, err := s.stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, mapError(s.query, err)
	}
	return sqlResult{res}, nil
}

// directStmt executes its text on every call without preparing it.
type directStmt struct {
	conn  *DB
	query string
}

func (s *directStmt) Query(ctx context.Context, args ...any) (datastore.Rows, error) {
	rows, err := s.conn.db.QueryContext(ctx, s.conn.dialect.Rebind(s.query), args...)
	if err != nil {
		return nil, mapError(s.query, err)
	}
	return newRows(rows)
}

func (s *directStmt) Exec(ctx context.Context, args ...any) (datastore.Result, error) {
	res, err := s.conn.db.ExecContext(ctx, s.conn.dialect.Rebind(s.query), args...)
	if err != nil {
		return nil, mapError(s.query, err)
	}
	return sqlResult{res}, nil
}

func hasReturning(query string) bool {
	return sqlbuilder.IndexOutsideQuotes(query, "RETURNING") >= 0
}

type sqlResult struct {
	res sql.Result
}

func (r sqlResult) LastInsertID() (any, error) {
	id, err := r.res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (r sqlResult) RowsAffected() (int64, error) {
	return r.res.RowsAffected()
}

// rows adapts *sql.Rows. Column names are fixed for the whole result.
type rows struct {
	rows    *sql.Rows
	columns []string
}

func newRows(r *sql.Rows) (*rows, error) {
	cols, err := r.Columns()
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return &rows{rows: r, columns: cols}, nil
}

func (r *rows) Next() bool { return r.rows.Next() }

func (r *rows) Columns() ([]string, error) { return r.columns, nil }

func (r *rows) Values() ([]any, error) {
	vals := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return vals, nil
}

func (r *rows) Err() error { return r.rows.Err() }

func (r *rows) Close() error { return r.rows.Close() }

// scalarString renders a schema query value.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
