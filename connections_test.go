/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore/mock"
	"github.com/suparena/modelstore/datastore/sdb"
	"github.com/suparena/modelstore/datastore/sqldb"
	"github.com/suparena/modelstore/datastore/testmodels"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/sqlbuilder"
	"github.com/suparena/modelstore/storagemodels"
)

func TestConnections_OpensGroupsLazily(t *testing.T) {
	ctx := context.Background()
	conns := modelstore.NewConnections(config.Static{
		"default": {Type: "sqlite", DSN: filepath.Join(t.TempDir(), "lazy.db")},
		"catalog": {Type: "sdb", Region: "eu-west-1", Endpoint: "http://localhost:8000", AccessKey: "local", SecretKey: "local"},
	})
	t.Cleanup(func() { _ = conns.Close() })
	assert.Empty(t, conns.Names())

	conn, err := conns.Get(ctx, "default")
	require.NoError(t, err)
	_, isSQL := conn.(*sqldb.DB)
	assert.True(t, isSQL)
	assert.Same(t, sqlbuilder.SQLite, conn.Dialect())

	again, err := conns.Get(ctx, "default")
	require.NoError(t, err)
	assert.Same(t, conn, again)

	kv, err := conns.Get(ctx, "catalog")
	require.NoError(t, err)
	_, isSDB := kv.(*sdb.Conn)
	assert.True(t, isSDB)
	assert.Equal(t, []string{"catalog", "default"}, conns.Names())

	require.NoError(t, conns.Reset())
	assert.Empty(t, conns.Names())
}

func TestConnections_ConfigurationErrors(t *testing.T) {
	ctx := context.Background()
	conns := modelstore.NewConnections(config.Static{
		"legacy":  {Type: "oracle"},
		"untyped": {DSN: "x"},
		"nowhere": {Type: "sdb"},
	})

	for _, name := range []string{"legacy", "untyped", "nowhere", "missing"} {
		t.Run(name, func(t *testing.T) {
			_, err := conns.Get(ctx, name)
			assert.True(t, errors.IsConfigurationError(err), "got %v", err)
		})
	}

	_, err := modelstore.NewConnections(nil).Get(ctx, "default")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestConnections_RegisterTwice(t *testing.T) {
	conns := modelstore.NewConnections(nil)
	svc := mock.NewSDB()
	require.NoError(t, conns.Register("default", sdb.New("default", svc)))
	assert.Error(t, conns.Register("default", sdb.New("default", svc)))

	conn, err := conns.Get(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, "default", conn.Name())
}

func TestConnections_KeyAttributeFromRegistry(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	reg.MustRegister(registry.Descriptor{Name: "Plate", PrimaryKey: "number"})

	svc := mock.NewSDB()
	svc.SetItem("plates", "AB123CD", storagemodels.Attribute{Name: "region", Value: "MI"})
	conns := modelstore.NewConnections(nil, modelstore.WithRegistry(reg))
	require.NoError(t, conns.Register(registry.DefaultDatabase, sdb.New(registry.DefaultDatabase, svc,
		sdb.WithKeyResolver(func(table string) string {
			if d, ok := reg.ByTable(table); ok {
				return d.PrimaryKey
			}
			return registry.DefaultPrimaryKey
		}))))
	store := modelstore.NewStore(reg, conns)

	plates, err := store.Model("Plate")
	require.NoError(t, err)
	plate, err := plates.Find(ctx, "AB123CD")
	require.NoError(t, err)
	require.NotNil(t, plate)
	assert.Equal(t, "AB123CD", plate.Value("number"))
	assert.Equal(t, "MI", plate.String("region"))
}

func TestOpen_FromConfig(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	cfg, err := config.Parse([]byte(fmt.Sprintf(`
databases:
  default:
    type: sqlite
    dsn: %s
cache:
  type: memory
  ttl: 1m
`, path)))
	require.NoError(t, err)

	reg := registry.New()
	testmodels.Register(reg)
	store, err := modelstore.Open(ctx, cfg, reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	assert.Same(t, reg, store.Registry())

	conn, err := store.Connections().Get(ctx, "default")
	require.NoError(t, err)
	_, err = conn.(*sqldb.DB).DB().ExecContext(ctx, testmodels.SQLiteSchema)
	require.NoError(t, err)

	owners, err := store.Model(testmodels.OwnerModel)
	require.NoError(t, err)
	owner := owners.New(map[string]any{"name": "Ada"})
	ok, err := store.Save(ctx, owner)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := owners.Find(ctx, owner.ID())
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.String("name"))

	_, err = modelstore.Open(ctx, nil, reg)
	assert.True(t, errors.IsConfigurationError(err))
}
