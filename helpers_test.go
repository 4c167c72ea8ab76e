/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/mock"
	"github.com/suparena/modelstore/datastore/sqldb"
	"github.com/suparena/modelstore/datastore/testmodels"
	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/registry"
)

// hookLog records lifecycle hook calls. Validate rejects records whose
// brand is empty.
type hookLog struct {
	record.NopHooks

	mu    sync.Mutex
	calls []string
}

func (h *hookLog) add(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, name)
}

func (h *hookLog) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *hookLog) Count(name string) int {
	n := 0
	for _, c := range h.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (h *hookLog) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = nil
}

func (h *hookLog) BeforeSave(context.Context, *record.Record) error {
	h.add("BeforeSave")
	return nil
}

func (h *hookLog) AfterSave(context.Context, *record.Record) error {
	h.add("AfterSave")
	return nil
}

func (h *hookLog) BeforeCreate(context.Context, *record.Record) error {
	h.add("BeforeCreate")
	return nil
}

func (h *hookLog) AfterCreate(context.Context, *record.Record) error {
	h.add("AfterCreate")
	return nil
}

func (h *hookLog) BeforeUpdate(context.Context, *record.Record) error {
	h.add("BeforeUpdate")
	return nil
}

func (h *hookLog) AfterUpdate(context.Context, *record.Record) error {
	h.add("AfterUpdate")
	return nil
}

func (h *hookLog) BeforeDelete(context.Context, *record.Record) error {
	h.add("BeforeDelete")
	return nil
}

func (h *hookLog) AfterGet(context.Context, *record.Record) error {
	h.add("AfterGet")
	return nil
}

func (h *hookLog) Validate(_ context.Context, r *record.Record) {
	h.add("Validate")
	if r.String("brand") == "" {
		r.ValidationError("brand", "brand is required")
	}
}

// fixture is a store over the Car and Owner models.
type fixture struct {
	store     *modelstore.Store
	cars      *modelstore.Model
	owners    *modelstore.Model
	carHooks  *hookLog
	ownerHook *hookLog
}

func newFixture(t *testing.T, conn datastore.Conn, consistent bool, opts ...modelstore.Option) *fixture {
	t.Helper()
	f := &fixture{carHooks: &hookLog{}, ownerHook: &hookLog{}}

	reg := registry.New()
	car := testmodels.CarDescriptor()
	car.Hooks = f.carHooks
	car.ConsistentRead = consistent
	reg.MustRegister(car)
	owner := testmodels.OwnerDescriptor()
	owner.Hooks = f.ownerHook
	owner.ConsistentRead = consistent
	reg.MustRegister(owner)

	conns := modelstore.NewConnections(nil, modelstore.WithRegistry(reg))
	require.NoError(t, conns.Register(registry.DefaultDatabase, conn))
	f.store = modelstore.NewStore(reg, conns, opts...)
	t.Cleanup(func() { _ = f.store.Close() })

	var err error
	f.cars, err = f.store.Model(testmodels.CarModel)
	require.NoError(t, err)
	f.owners, err = f.store.Model(testmodels.OwnerModel)
	require.NoError(t, err)
	return f
}

// newSQLite opens a fresh SQLite database with the fixture schema, wrapped
// in a recorder.
func newSQLite(t *testing.T) (*mock.Recorder, *sqldb.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqldb.Open(ctx, registry.DefaultDatabase, config.Database{
		Type: "sqlite",
		DSN:  filepath.Join(t.TempDir(), "models.db"),
	})
	require.NoError(t, err)
	_, err = db.DB().ExecContext(ctx, testmodels.SQLiteSchema)
	require.NoError(t, err)
	return mock.NewRecorder(db), db
}

func execSQL(t *testing.T, db *sqldb.DB, q string, args ...any) {
	t.Helper()
	_, err := db.DB().ExecContext(context.Background(), q, args...)
	require.NoError(t, err)
}
