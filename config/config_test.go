/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/errors"
)

const sample = `
databases:
  default:
    type: sqlite
    dsn: ./app.db
  items:
    type: sdb
    region: us-east-1
    key-attribute: pk
    page-size: 50
    token-ttl: 90s
  broken:
    host: localhost
cache:
  type: memory
  ttl: 5m
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	db, err := cfg.Database("default")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", db.Type)
	assert.Equal(t, "./app.db", db.DSN)

	items, err := cfg.Database("items")
	require.NoError(t, err)
	assert.Equal(t, "pk", items.KeyAttribute)
	assert.Equal(t, 50, items.PageSize)
	assert.Equal(t, 90*time.Second, items.TokenTTL)

	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
}

func TestDatabase_MissingGroupIsConfigurationError(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	_, err = cfg.Database("reporting")
	assert.True(t, errors.IsConfigurationError(err))

	_, err = cfg.Database("broken")
	assert.True(t, errors.IsConfigurationError(err), "a group without a type cannot be opened")

	var nilCfg *Config
	_, err = nilCfg.Database("default")
	assert.True(t, errors.IsConfigurationError(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(DSNEnvName("default"), "file:override.db")
	t.Setenv(EnvCacheAddr, "cache:6379")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	db, err := cfg.Database("default")
	require.NoError(t, err)
	assert.Equal(t, "file:override.db", db.DSN)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modelstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Databases, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSNEnvNameAndAddress(t *testing.T) {
	assert.Equal(t, "MODELSTORE_DB_READ_REPLICA_DSN", DSNEnvName("read-replica"))
	assert.Equal(t, "db:3306", Database{Host: "db", Port: 3306}.Address())
	assert.Equal(t, "db", Database{Host: "db"}.Address())

	_, err := Static{"a": {Type: "sqlite"}}.Database("b")
	assert.True(t, errors.IsConfigurationError(err))
}
