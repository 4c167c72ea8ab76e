/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/fieldset"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/registry"
)

// DefaultCacheTTL is how long Find keeps a record in the read-through cache.
const DefaultCacheTTL = 5 * time.Minute

// Store runs the find, save and delete lifecycle of registered models.
type Store struct {
	reg      *registry.Registry
	conns    *Connections
	cache    cache.Provider
	cacheTTL time.Duration
	decoder  *fieldset.Decoder
}

// Option configures a Store.
type Option func(*Store)

// WithCache enables the read-through record cache above Find.
func WithCache(p cache.Provider) Option {
	return func(s *Store) { s.cache = cache.OrNop(p) }
}

// WithCacheTTL sets the lifetime of cached records.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) { s.cacheTTL = ttl }
}

// NewStore creates a store over reg and conns. A nil registry means
// registry.Default.
func NewStore(reg *registry.Registry, conns *Connections, opts ...Option) *Store {
	if reg == nil {
		reg = registry.Default
	}
	s := &Store{
		reg:      reg,
		conns:    conns,
		cache:    cache.Nop{},
		cacheTTL: DefaultCacheTTL,
		decoder:  fieldset.New(reg),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open builds a store from cfg: the cache section feeds both the record
// cache and the continuation token cache.
func Open(ctx context.Context, cfg *config.Config, reg *registry.Registry) (*Store, error) {
	if cfg == nil {
		return nil, errors.NewConfigurationError("", "no configuration", nil)
	}
	if reg == nil {
		reg = registry.Default
	}
	p, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	conns := NewConnections(cfg, WithTokenCache(p), WithRegistry(reg))
	opts := []Option{WithCache(p)}
	if cfg.Cache.TTL > 0 {
		opts = append(opts, WithCacheTTL(cfg.Cache.TTL))
	}
	return NewStore(reg, conns, opts...), nil
}

// Registry returns the descriptor registry of the store.
func (s *Store) Registry() *registry.Registry { return s.reg }

// Connections returns the connection registry of the store.
func (s *Store) Connections() *Connections { return s.conns }

// Close closes every open connection.
func (s *Store) Close() error {
	return s.conns.Close()
}

// Model returns the handle of the model registered as name.
func (s *Store) Model(name string) (*Model, error) {
	d, err := s.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Model{store: s, desc: d}, nil
}

type saveOptions struct {
	forceCreate bool
}

// SaveOption adjusts a single Save.
type SaveOption func(*saveOptions)

// ForceCreate skips the existence lookup and always inserts.
func ForceCreate() SaveOption {
	return func(o *saveOptions) { o.forceCreate = true }
}

// Save persists rec. A record whose key is set and present in storage is
// updated with its changed fields; any other record is inserted. It returns
// false with a nil error when validation fails, leaving the messages on rec.
func (s *Store) Save(ctx context.Context, rec *record.Record, opts ...SaveOption) (bool, error) {
	var o saveOptions
	for _, opt := range opts {
		opt(&o)
	}
	m, err := s.Model(rec.Model())
	if err != nil {
		return false, err
	}
	hooks := m.desc.Hooks

	if err := hooks.BeforeSave(ctx, rec); err != nil {
		return false, err
	}

	exists := false
	if !o.forceCreate && rec.HasID() {
		if exists, err = m.Exists(ctx, rec.ID()); err != nil {
			return false, err
		}
	}

	var ok bool
	if exists {
		ok, err = m.update(ctx, rec)
	} else {
		ok, err = m.create(ctx, rec)
	}
	if err != nil || !ok {
		return false, err
	}

	rec.Snapshot()
	m.invalidate(ctx, rec.ID())
	if err := hooks.AfterSave(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// SaveAll saves recs one after another in slice order. It reports true only
// when every record was saved. A validation failure does not stop the
// remaining saves; an error does, and records saved before it stay saved.
func (s *Store) SaveAll(ctx context.Context, recs []*record.Record, opts ...SaveOption) (bool, error) {
	all := true
	for i, rec := range recs {
		ok, err := s.Save(ctx, rec, opts...)
		if err != nil {
			return false, fmt.Errorf("failed to save record %d of %d: %w", i+1, len(recs), err)
		}
		if !ok {
			log.WithField("model", rec.Model()).Debugf("record %d of %d failed validation", i+1, len(recs))
			all = false
		}
	}
	return all, nil
}

// Delete fires BeforeDelete and removes rec from storage by key. rec keeps
// its values.
func (s *Store) Delete(ctx context.Context, rec *record.Record) error {
	m, err := s.Model(rec.Model())
	if err != nil {
		return err
	}
	if err := m.desc.Hooks.BeforeDelete(ctx, rec); err != nil {
		return err
	}
	if !rec.HasID() {
		return errors.NewValidationError(rec.PrimaryKey(), "cannot delete a record without a key")
	}
	return m.Destroy(ctx, rec.ID())
}
