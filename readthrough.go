/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/storagemodels"
)

const cacheKeyPrefix = "modelstore:"

// cachedField is one attribute of a cached record. Fields are kept as a
// list so the record's field order survives the round trip.
type cachedField struct {
	Name  string `json:"n"`
	Value any    `json:"v"`
}

func (m *Model) cacheKey(id any) string {
	return cacheKeyPrefix + m.desc.Name + ":" + fmt.Sprint(id)
}

// cached returns the record with key id from the cache, or nil. Cache
// failures are logged and treated as a miss.
func (m *Model) cached(ctx context.Context, id any) *record.Record {
	b, ok, err := m.store.cache.Get(ctx, m.cacheKey(id))
	if err != nil {
		log.WithError(err).WithField("model", m.desc.Name).Warn("record cache read failed")
		return nil
	}
	if !ok {
		return nil
	}

	var fields []cachedField
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		log.WithError(err).WithField("model", m.desc.Name).Warn("dropping undecodable cached record")
		_ = m.store.cache.Delete(ctx, m.cacheKey(id))
		return nil
	}
	rec := m.desc.NewRecord()
	for _, f := range fields {
		rec.Set(f.Name, f.Value)
	}
	rec.Snapshot()
	return rec
}

func (m *Model) cachePut(ctx context.Context, rec *record.Record) {
	if !rec.HasID() {
		return
	}
	names := rec.Fields()
	fields := make([]cachedField, len(names))
	for i, name := range names {
		fields[i] = cachedField{Name: name, Value: rec.Value(name)}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		log.WithError(err).WithField("model", m.desc.Name).Warn("record not cacheable")
		return
	}
	if err := m.store.cache.Set(ctx, m.cacheKey(rec.ID()), b, m.store.cacheTTL); err != nil {
		log.WithError(err).WithField("model", m.desc.Name).Warn("record cache write failed")
	}
}

// invalidate drops the cached record with key id.
func (m *Model) invalidate(ctx context.Context, id any) {
	if id == nil {
		return
	}
	if err := m.store.cache.Delete(ctx, m.cacheKey(id)); err != nil {
		log.WithError(err).WithField("model", m.desc.Name).Warn("record cache invalidation failed")
	}
}

// cachedKeys returns the keys of the records matching the condition of opts
// when the record cache is on, so a bulk delete can drop their entries.
func (m *Model) cachedKeys(ctx context.Context, conn datastore.Conn, opts *storagemodels.Options) ([]any, error) {
	if _, off := m.store.cache.(cache.Nop); off {
		return nil, nil
	}
	cond := &storagemodels.Options{Where: opts.Where, Values: opts.Values, Params: opts.Params}
	q, args, _, err := m.buildSelect(ctx, conn, cond, nil, false)
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
	ids := make([]any, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID())
	}
	return ids, nil
}
