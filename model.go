/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/sdb"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

// Model is the handle of one registered model type.
type Model struct {
	store *Store
	desc  *registry.Descriptor
}

// Descriptor returns the model's metadata.
func (m *Model) Descriptor() *registry.Descriptor { return m.desc }

// New returns an unsaved record holding values. Every field counts as
// changed until the record is saved.
func (m *Model) New(values map[string]any) *record.Record {
	rec := m.desc.NewRecord()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rec.Set(name, values[name])
	}
	return rec
}

// conn returns the model's connection and a context carrying its read
// consistency.
func (m *Model) conn(ctx context.Context) (datastore.Conn, context.Context, error) {
	conn, err := m.store.conns.Get(ctx, m.desc.Database)
	if err != nil {
		return nil, ctx, err
	}
	return conn, sdb.WithConsistentRead(ctx, m.desc.ConsistentRead), nil
}

// Find returns one record. idOrOptions is either a key value or query
// options, in which case at most one row is read. A missing record is
// (nil, nil).
func (m *Model) Find(ctx context.Context, idOrOptions any, with ...string) (*record.Record, error) {
	var opts *storagemodels.Options
	switch v := idOrOptions.(type) {
	case nil:
		return nil, errors.NewValidationError(m.desc.PrimaryKey, "Find needs a key or query options")
	case *storagemodels.Options:
		opts = v.Clone()
	case storagemodels.Options:
		opts = v.Clone()
	default:
		return m.findByKey(ctx, v, with)
	}
	opts.Limit = storagemodels.Int(1)
	recs, err := m.find(ctx, opts, with)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return recs[0], nil
}

func (m *Model) findByKey(ctx context.Context, id any, with []string) (*record.Record, error) {
	if len(with) == 0 {
		if rec := m.cached(ctx, id); rec != nil {
			if err := m.desc.Hooks.AfterGet(ctx, rec); err != nil {
				return nil, err
			}
			return rec, nil
		}
	}

	conn, _, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	opts := &storagemodels.Options{
		Where:  m.column(conn, m.desc.PrimaryKey) + " = ?",
		Values: []any{id},
		Limit:  storagemodels.Int(1),
	}
	recs, err := m.find(ctx, opts, with)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	if len(with) == 0 {
		m.cachePut(ctx, recs[0])
	}
	return recs[0], nil
}

// FindAll returns every record matching opts in result order. A nil opts
// reads the whole table.
func (m *Model) FindAll(ctx context.Context, opts *storagemodels.Options, with ...string) ([]*record.Record, error) {
	return m.find(ctx, opts.Clone(), with)
}

// Count returns the number of records matching opts.
func (m *Model) Count(ctx context.Context, opts *storagemodels.Options) (int64, error) {
	conn, ctx, err := m.conn(ctx)
	if err != nil {
		return 0, err
	}
	q, args, _, err := m.buildSelect(ctx, conn, opts.Clone(), nil, true)
	if err != nil {
		return 0, err
	}
	rows, err := m.query(ctx, conn, q, args)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, errors.NewStorageError(q, err)
		}
		return 0, nil
	}
	vals, err := rows.Values()
	if err != nil {
		return 0, errors.NewStorageError(q, err)
	}
	if len(vals) == 0 {
		return 0, errors.NewStorageError(q, fmt.Errorf("count returned no columns"))
	}
	return toInt64(vals[0])
}

// Exists reports whether a record with key id is stored.
func (m *Model) Exists(ctx context.Context, id any) (bool, error) {
	conn, _, err := m.conn(ctx)
	if err != nil {
		return false, err
	}
	n, err := m.Count(ctx, &storagemodels.Options{
		Where:  m.column(conn, m.desc.PrimaryKey) + " = ?",
		Values: []any{id},
	})
	return n > 0, err
}

// Destroy deletes the record with key id without loading it, so no
// BeforeDelete hook runs.
func (m *Model) Destroy(ctx context.Context, id any) error {
	conn, ctx, err := m.conn(ctx)
	if err != nil {
		return err
	}
	q := sqlbuilder.BuildDelete(conn.Dialect(), m.desc.Table, m.desc.PrimaryKey)
	if _, err := m.exec(ctx, conn, q, []any{id}); err != nil {
		return err
	}
	m.invalidate(ctx, id)
	return nil
}

// DestroyAll deletes every record matching the condition of opts without
// loading them, so no BeforeDelete hook runs. Order, limit and offset do not
// apply, and a nil opts empties the table. It returns the number of records
// removed.
func (m *Model) DestroyAll(ctx context.Context, opts *storagemodels.Options) (int64, error) {
	conn, ctx, err := m.conn(ctx)
	if err != nil {
		return 0, err
	}
	opts = opts.Clone()
	where, args, err := sqlbuilder.Bind(opts.Where, opts.Values, opts.Params)
	if err != nil {
		return 0, err
	}
	ids, err := m.cachedKeys(ctx, conn, opts)
	if err != nil {
		return 0, err
	}

	q := sqlbuilder.BuildDeleteWhere(conn.Dialect(), m.desc.Table, where)
	res, err := m.exec(ctx, conn, q, args)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageError(q, err)
	}
	for _, id := range ids {
		m.invalidate(ctx, id)
	}
	log.WithField("model", m.desc.Name).Debugf("destroyed %d records", n)
	return n, nil
}

// find runs a select and hydrates its rows. Related models come from a join
// when the dialect has one, otherwise from one lookup per record.
func (m *Model) find(ctx context.Context, opts *storagemodels.Options, with []string) ([]*record.Record, error) {
	conn, ctx, err := m.conn(ctx)
	if err != nil {
		return nil, err
	}
	q, args, followUps, err := m.buildSelect(ctx, conn, opts, with, false)
	if err != nil {
		return nil, err
	}
	rows, err := m.query(ctx, conn, q, args)
	if err != nil {
		return nil, err
	}
	recs, err := m.store.decoder.DecodeAll(rows, m.desc.Name)
	if err != nil {
		return nil, err
	}

	for _, rec := range recs {
		for _, alias := range rec.RelatedAliases() {
			if err := m.afterGet(ctx, rec.Related(alias)); err != nil {
				return nil, err
			}
		}
		if err := m.attach(ctx, rec, followUps); err != nil {
			return nil, err
		}
		if err := m.desc.Hooks.AfterGet(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// afterGet fires the AfterGet hook of the model sub belongs to.
func (m *Model) afterGet(ctx context.Context, sub *record.Record) error {
	d, err := m.store.reg.Lookup(sub.Model())
	if err != nil {
		return err
	}
	return d.Hooks.AfterGet(ctx, sub)
}

// attach loads each related model by the foreign key stored on rec.
func (m *Model) attach(ctx context.Context, rec *record.Record, related []*registry.Descriptor) error {
	for _, rd := range related {
		fk := rec.Value(m.desc.ForeignKey(rd))
		if fk == nil || fk == "" {
			continue
		}
		rm := &Model{store: m.store, desc: rd}
		sub, err := rm.findByKey(ctx, fk, nil)
		if err != nil {
			return err
		}
		if sub != nil {
			rec.SetRelated(rd.ShortName(), sub)
		}
	}
	return nil
}

// buildSelect renders the select for opts. The returned descriptors are the
// related models left for follow-up lookups.
func (m *Model) buildSelect(ctx context.Context, conn datastore.Conn, opts *storagemodels.Options, with []string, countOnly bool) (string, []any, []*registry.Descriptor, error) {
	d := conn.Dialect()
	where, args, err := sqlbuilder.Bind(opts.Where, opts.Values, opts.Params)
	if err != nil {
		return "", nil, nil, err
	}
	spec := sqlbuilder.SelectSpec{
		Table:     m.desc.Table,
		Alias:     m.desc.ShortName(),
		Where:     where,
		Order:     opts.Order,
		Limit:     opts.Limit,
		Offset:    opts.Offset,
		CountOnly: countOnly,
	}

	var followUps []*registry.Descriptor
	if len(with) > 0 && !countOnly {
		related, err := m.related(with)
		if err != nil {
			return "", nil, nil, err
		}
		if d.SupportsJoins() {
			if spec.Columns, spec.Joins, err = m.joins(ctx, conn, related); err != nil {
				return "", nil, nil, err
			}
		} else {
			followUps = related
		}
	}

	q, err := sqlbuilder.BuildSelect(d, spec)
	if err != nil {
		return "", nil, nil, err
	}
	return q, args, followUps, nil
}

func (m *Model) related(with []string) ([]*registry.Descriptor, error) {
	out := make([]*registry.Descriptor, 0, len(with))
	for _, name := range with {
		rd, err := m.store.reg.Lookup(name)
		if err != nil {
			return nil, errors.NewRelatedTypeNotFoundError(m.desc.Name, name)
		}
		out = append(out, rd)
	}
	return out, nil
}

// joins lists the columns of the base and related tables, which a joined
// projection has to name one by one.
func (m *Model) joins(ctx context.Context, conn datastore.Conn, related []*registry.Descriptor) ([]string, []sqlbuilder.Join, error) {
	in, ok := conn.(datastore.Introspector)
	if !ok {
		return nil, nil, fmt.Errorf("connection %s cannot list columns for a join", conn.Name())
	}
	base, err := in.FieldNames(ctx, m.desc.Table)
	if err != nil {
		return nil, nil, err
	}
	joins := make([]sqlbuilder.Join, 0, len(related))
	for _, rd := range related {
		cols, err := in.FieldNames(ctx, rd.Table)
		if err != nil {
			return nil, nil, err
		}
		joins = append(joins, sqlbuilder.Join{
			Table:      rd.Table,
			Alias:      rd.ShortName(),
			ForeignKey: m.desc.ForeignKey(rd),
			PrimaryKey: rd.PrimaryKey,
			Columns:    cols,
		})
	}
	return base, joins, nil
}

// column qualifies field with the model alias where the dialect allows it.
func (m *Model) column(conn datastore.Conn, field string) string {
	return conn.Dialect().Column(m.desc.ShortName(), field)
}

func (m *Model) query(ctx context.Context, conn datastore.Conn, q string, args []any) (datastore.Rows, error) {
	st, err := conn.Prepare(ctx, q)
	if err != nil {
		return nil, m.withTable(err)
	}
	rows, err := st.Query(ctx, args...)
	if err != nil {
		return nil, m.withTable(err)
	}
	return rows, nil
}

func (m *Model) exec(ctx context.Context, conn datastore.Conn, q string, args []any) (datastore.Result, error) {
	st, err := conn.Prepare(ctx, q)
	if err != nil {
		return nil, m.withTable(err)
	}
	res, err := st.Exec(ctx, args...)
	if err != nil {
		return nil, m.withTable(err)
	}
	return res, nil
}

// withTable names the model's table on an invalid field error that lacks it.
func (m *Model) withTable(err error) error {
	var fe *errors.InvalidFieldError
	if stderrors.As(err, &fe) && fe.Table == "" {
		fe.Table = m.desc.Table
	}
	return err
}

// update writes the changed fields of rec.
func (m *Model) update(ctx context.Context, rec *record.Record) (bool, error) {
	hooks := m.desc.Hooks
	if err := hooks.BeforeUpdate(ctx, rec); err != nil {
		return false, err
	}
	if !m.valid(ctx, rec) {
		return false, nil
	}

	pk := m.desc.PrimaryKey
	var fields []string
	var args []any
	for _, f := range rec.Changed() {
		if f == pk {
			continue
		}
		fields = append(fields, f)
		args = append(args, rec.Value(f))
	}

	if len(fields) > 0 {
		conn, ctx, err := m.conn(ctx)
		if err != nil {
			return false, err
		}
		q := sqlbuilder.BuildUpdate(conn.Dialect(), m.desc.Table, pk, fields)
		if _, err := m.exec(ctx, conn, q, append(args, rec.ID())); err != nil {
			return false, err
		}
	}
	if err := hooks.AfterUpdate(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// create inserts the fields present on rec and reads back a generated key.
func (m *Model) create(ctx context.Context, rec *record.Record) (bool, error) {
	hooks := m.desc.Hooks
	if err := hooks.BeforeCreate(ctx, rec); err != nil {
		return false, err
	}
	if !m.valid(ctx, rec) {
		return false, nil
	}

	conn, ctx, err := m.conn(ctx)
	if err != nil {
		return false, err
	}
	columns, err := m.columns(ctx, conn)
	if err != nil {
		return false, err
	}

	pk := m.desc.PrimaryKey
	hasID := rec.HasID()
	var fields []string
	var args []any
	for _, f := range rec.Fields() {
		if f == pk && !hasID {
			continue
		}
		if columns != nil && !columns[f] {
			log.WithField("model", m.desc.Name).Debugf("skipping field %s with no column", f)
			continue
		}
		fields = append(fields, f)
		args = append(args, rec.Value(f))
	}

	q := sqlbuilder.BuildInsert(conn.Dialect(), m.desc.Table, fields, pk)
	res, err := m.exec(ctx, conn, q, args)
	if err != nil {
		return false, err
	}
	if !hasID {
		id, err := res.LastInsertID()
		if err != nil {
			return false, errors.NewStorageError(q, err)
		}
		if id != nil {
			rec.SetID(id)
		}
	}
	if err := hooks.AfterCreate(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// columns returns the column set of the model's table, or nil when the
// connection cannot tell.
func (m *Model) columns(ctx context.Context, conn datastore.Conn) (map[string]bool, error) {
	in, ok := conn.(datastore.Introspector)
	if !ok {
		return nil, nil
	}
	set, err := datastore.ColumnSet(ctx, in, m.desc.Table)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, nil
	}
	return set, nil
}

// valid runs the Validate hook, then reports whether rec has no errors.
func (m *Model) valid(ctx context.Context, rec *record.Record) bool {
	m.desc.Hooks.Validate(ctx, rec)
	return rec.Valid()
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
	}
	return 0, fmt.Errorf("unexpected count value %T", v)
}
