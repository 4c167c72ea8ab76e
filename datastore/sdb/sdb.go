/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

// countColumn is the column name of a COUNT(*) result.
const countColumn = "COUNT(*)"

// Conn emulates a SQL connection over a key-attribute Service.
type Conn struct {
	name   string
	svc    Service
	opts   storagemodels.PageOptions
	tokens *TokenCache
	keyOf  func(table string) string
	newKey func() string
	cache  cache.Provider
}

var _ datastore.Conn = (*Conn)(nil)

// Option configures a Conn.
type Option func(*Conn)

// WithPageOptions adjusts paging, chunking and key generation bounds.
func WithPageOptions(opts ...storagemodels.PageOption) Option {
	return func(c *Conn) {
		for _, o := range opts {
			o(&c.opts)
		}
	}
}

// WithCache stores continuation tokens in p.
func WithCache(p cache.Provider) Option {
	return func(c *Conn) { c.cache = p }
}

// WithKeyResolver names the key field of each domain. The default is "id".
func WithKeyResolver(f func(table string) string) Option {
	return func(c *Conn) { c.keyOf = f }
}

// WithKeyGenerator replaces the random item name generator used by inserts.
func WithKeyGenerator(f func() string) Option {
	return func(c *Conn) { c.newKey = f }
}

// New returns a connection named name over svc.
func New(name string, svc Service, opts ...Option) *Conn {
	c := &Conn{
		name:   name,
		svc:    svc,
		opts:   storagemodels.DefaultPageOptions(),
		keyOf:  func(string) string { return "id" },
		newKey: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	c.tokens = NewTokenCache(c.cache, c.opts.TokenTTL)
	return c
}

// Name returns the config group.
func (c *Conn) Name() string { return c.name }

// Dialect returns the select dialect of the store.
func (c *Conn) Dialect() *sqlbuilder.Dialect { return sqlbuilder.SDB }

// Tokens exposes the continuation token cache.
func (c *Conn) Tokens() *TokenCache { return c.tokens }

// Close forgets cached token positions.
func (c *Conn) Close() error {
	c.tokens.Reset()
	return nil
}

// Prepare classifies query. Nothing is sent to the service until the
// statement runs.
func (c *Conn) Prepare(_ context.Context, query string) (datastore.Stmt, error) {
	switch kind := statementKind(query); kind {
	case kindSelect, kindInsert, kindUpdate, kindDelete:
		return &Stmt{conn: c, query: query, kind: kind}, nil
	default:
		return nil, errors.NewValidationError("query", fmt.Sprintf("unsupported statement %q", kind))
	}
}

// Stmt is a prepared emulated statement.
type Stmt struct {
	conn  *Conn
	query string
	kind  string
}

// Query runs a SELECT.
func (s *Stmt) Query(ctx context.Context, args ...any) (datastore.Rows, error) {
	if s.kind != kindSelect {
		return nil, errors.NewValidationError("query", s.kind+" statements cannot return rows")
	}
	return s.conn.selectRows(ctx, s.query, args)
}

// Exec runs an INSERT, UPDATE or DELETE.
func (s *Stmt) Exec(ctx context.Context, args ...any) (datastore.Result, error) {
	switch s.kind {
	case kindInsert:
		return s.conn.insert(ctx, s.query, args)
	case kindUpdate:
		return s.conn.update(ctx, s.query, args)
	case kindDelete:
		return s.conn.delete(ctx, s.query, args)
	}
	return nil, errors.NewValidationError("query", "use Query for SELECT statements")
}

// selectRows binds args into the expression, then walks pages until the
// requested window is filled.
func (c *Conn) selectRows(ctx context.Context, query string, args []any) (datastore.Rows, error) {
	table, _, err := identAfter(query, "FROM")
	if err != nil {
		return nil, err
	}
	pk := c.keyOf(table)

	bound, err := sqlbuilder.Interpolate(rewriteKey(query, pk), args, literal)
	if err != nil {
		return nil, err
	}
	base, win, err := splitWindow(bound)
	if err != nil {
		return nil, err
	}

	if isCount(base) {
		n, err := c.count(ctx, base)
		if err != nil {
			return nil, err
		}
		return datastore.NewSliceRows([][]string{{countColumn}}, [][]any{{n}}), nil
	}

	items, err := c.collect(ctx, base, win)
	if err != nil {
		return nil, err
	}
	rows := datastore.NewSliceRows(nil, nil)
	for _, item := range items {
		order, values := reassemble(item.Attributes)
		cols := make([]string, 0, len(order)+1)
		vals := make([]any, 0, len(order)+1)
		cols = append(cols, pk)
		vals = append(vals, item.Name)
		for _, f := range order {
			if f == pk {
				continue
			}
			cols = append(cols, f)
			vals = append(vals, values[f])
		}
		rows.Append(cols, vals)
	}
	return rows, nil
}

// collect returns the items of base within win. Every page is requested at
// the configured page size whatever the window: a service limit bounds the
// items evaluated before the filter, so a small limit would return mostly
// empty pages. Pages are requested with the same consistency mode throughout
// and a failed page aborts the call.
func (c *Conn) collect(ctx context.Context, base string, win window) ([]storagemodels.Item, error) {
	if win.limit != nil && *win.limit <= 0 {
		return nil, nil
	}
	pageSize := c.opts.PageSize
	expr := base + " limit " + strconv.Itoa(pageSize)
	consistent := ConsistentRead(ctx)

	pos, token := 0, ""
	if win.offset > 0 {
		pos, token = c.tokens.Nearest(ctx, base, pageSize, win.offset)
	}
	skip := win.offset - pos
	logger := log.WithField("group", c.name).WithField("query", expr)
	if pos > 0 {
		logger.Debugf("resuming at position %d for offset %d", pos, win.offset)
	}

	var items []storagemodels.Item
	for queries := 0; ; queries++ {
		if queries >= c.opts.MaxQueries {
			return nil, errors.NewStorageError(expr, queryBoundError(queries, pos))
		}
		page, err := c.svc.Select(ctx, storagemodels.SelectRequest{
			Expression:     expr,
			NextToken:      token,
			ConsistentRead: consistent,
		})
		if err != nil {
			return nil, errors.NewStorageError(expr, err)
		}

		n := len(page.Items)
		if skip >= n {
			skip -= n
		} else {
			items = append(items, page.Items[skip:]...)
			skip = 0
		}
		pos += n
		token = page.NextToken
		if token == "" {
			break
		}
		c.tokens.Store(ctx, base, pageSize, pos, token)
		if win.limit != nil && len(items) >= *win.limit {
			break
		}
	}

	if win.limit != nil && len(items) > *win.limit {
		items = items[:*win.limit]
	}
	return items, nil
}

// queryBoundError reports a scan cut short while a continuation token was
// still pending.
func queryBoundError(queries, pos int) error {
	return fmt.Errorf("%w: stopped after %d page requests at position %d with results pending",
		errors.ErrQueryBoundExceeded, queries, pos)
}

// count sums the per-page counts of a COUNT(*) expression.
func (c *Conn) count(ctx context.Context, base string) (int64, error) {
	expr := base + " limit " + strconv.Itoa(c.opts.PageSize)
	consistent := ConsistentRead(ctx)
	var total int64
	token := ""
	for queries := 0; ; queries++ {
		if queries >= c.opts.MaxQueries {
			return 0, errors.NewStorageError(expr, queryBoundError(queries, int(total)))
		}
		page, err := c.svc.Select(ctx, storagemodels.SelectRequest{
			Expression:     expr,
			NextToken:      token,
			ConsistentRead: consistent,
		})
		if err != nil {
			return 0, errors.NewStorageError(expr, err)
		}
		for _, item := range page.Items {
			for _, a := range item.Attributes {
				if strings.EqualFold(a.Name, "Count") {
					n, err := strconv.ParseInt(a.Value, 10, 64)
					if err != nil {
						return 0, errors.NewStorageError(expr, err)
					}
					total += n
				}
			}
		}
		token = page.NextToken
		if token == "" {
			return total, nil
		}
	}
}

// encodeAttributes renders fields for a put. NULL values are left out since
// the store has no null.
func (c *Conn) encodeAttributes(fields []string, values map[string]any) []storagemodels.Attribute {
	var attrs []storagemodels.Attribute
	for _, f := range fields {
		v := values[f]
		if v == nil {
			continue
		}
		attrs = append(attrs, chunk(f, EncodeValue(v), c.opts.ChunkSize)...)
	}
	return attrs
}

func (c *Conn) insert(ctx context.Context, query string, args []any) (datastore.Result, error) {
	st, err := parseInsert(query, args)
	if err != nil {
		return nil, err
	}
	pk := c.keyOf(st.table)

	var key string
	fields := st.fields
	if v, ok := st.values[pk]; ok && v != nil {
		key = EncodeValue(v)
		fields = without(fields, pk)
	} else {
		if key, err = c.freshKey(ctx, st.table); err != nil {
			return nil, err
		}
	}

	attrs := c.encodeAttributes(fields, st.values)
	if err := c.svc.PutAttributes(ctx, st.table, key, attrs, false); err != nil {
		return nil, errors.NewMutationError("insert", st.table, err.Error(), err)
	}
	return datastore.StaticResult{ID: key, Affected: 1}, nil
}

// freshKey draws random item names until one is unused.
func (c *Conn) freshKey(ctx context.Context, table string) (string, error) {
	attempts := c.opts.MaxKeyAttempts
	for i := 0; i < attempts; i++ {
		candidate := c.newKey()
		existing, err := c.svc.GetAttributes(ctx, table, candidate, true)
		if err != nil {
			return "", errors.NewStorageError("GetAttributes "+table+" "+candidate, err)
		}
		if len(existing) == 0 {
			return candidate, nil
		}
		log.WithField("domain", table).Debugf("item name %s taken", candidate)
	}
	return "", errors.NewKeyGenerationError(table, attempts)
}

// update replaces the changed attributes of one item and removes chunks
// left over from its previous values.
func (c *Conn) update(ctx context.Context, query string, args []any) (datastore.Result, error) {
	st, err := parseUpdate(query, args, c.keyOf)
	if err != nil {
		return nil, err
	}

	existing, err := c.svc.GetAttributes(ctx, st.table, st.key, true)
	if err != nil {
		return nil, errors.NewStorageError(query, err)
	}

	pk := c.keyOf(st.table)
	fields := without(st.fields, pk)
	attrs := c.encodeAttributes(fields, st.values)

	written := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		written[a.Name] = true
	}
	touched := make(map[string]bool, len(fields))
	for _, f := range fields {
		touched[f] = true
	}
	var stale []string
	staleSeen := make(map[string]bool)
	for _, a := range existing {
		if touched[fieldOf(a.Name)] && !written[a.Name] && !staleSeen[a.Name] {
			staleSeen[a.Name] = true
			stale = append(stale, a.Name)
		}
	}

	if len(attrs) > 0 {
		if err := c.svc.PutAttributes(ctx, st.table, st.key, attrs, true); err != nil {
			return nil, errors.NewMutationError("update", st.table, err.Error(), err)
		}
	}
	if len(stale) > 0 {
		if err := c.svc.DeleteAttributes(ctx, st.table, st.key, stale...); err != nil {
			return nil, errors.NewMutationError("update", st.table, err.Error(), err)
		}
	}
	var affected int64
	if len(existing) > 0 {
		affected = 1
	}
	return datastore.StaticResult{ID: st.key, Affected: affected}, nil
}

// delete removes one item by key, or discovers matching items in bounded
// batches and removes them until none match. Discovery follows continuation
// tokens past pages that evaluated items without matching any, and starts
// over after every batch since deletions move the scan.
func (c *Conn) delete(ctx context.Context, query string, args []any) (datastore.Result, error) {
	st, err := parseDelete(query, args, c.keyOf)
	if err != nil {
		return nil, err
	}
	if st.byKey {
		if err := c.svc.DeleteAttributes(ctx, st.table, st.key); err != nil {
			return nil, errors.NewMutationError("delete", st.table, err.Error(), err)
		}
		return datastore.StaticResult{ID: st.key, Affected: 1}, nil
	}

	expr := "select itemName() from " + sqlbuilder.SDB.Quote(st.table)
	if st.where != "" {
		expr += " where " + st.where
	}
	expr += " limit " + strconv.Itoa(c.opts.DeleteBatch)
	consistent := ConsistentRead(ctx)

	var total int64
	token := ""
	for queries := 0; ; queries++ {
		if queries >= c.opts.MaxQueries {
			return nil, errors.NewStorageError(expr, queryBoundError(queries, int(total)))
		}
		page, err := c.svc.Select(ctx, storagemodels.SelectRequest{
			Expression:     expr,
			NextToken:      token,
			ConsistentRead: consistent,
		})
		if err != nil {
			return nil, errors.NewStorageError(expr, err)
		}
		if len(page.Items) == 0 {
			if page.NextToken == "" {
				break
			}
			token = page.NextToken
			continue
		}

		names := make([]string, len(page.Items))
		for i, item := range page.Items {
			names[i] = item.Name
		}
		if err := c.svc.BatchDeleteAttributes(ctx, st.table, names); err != nil {
			return nil, errors.NewMutationError("delete", st.table, err.Error(), err)
		}
		total += int64(len(names))
		if page.NextToken == "" {
			break
		}
		token = ""
	}
	return datastore.StaticResult{Affected: total}, nil
}

func without(fields []string, name string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != name {
			out = append(out, f)
		}
	}
	return out
}
