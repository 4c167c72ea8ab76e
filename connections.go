/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/suparena/modelstore/cache"
	"github.com/suparena/modelstore/config"
	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/sdb"
	"github.com/suparena/modelstore/datastore/sqldb"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/registry"
	"github.com/suparena/modelstore/sqlbuilder"
)

// Connections holds one datastore connection per config group. Groups are
// opened on first use and kept until Close or Reset.
type Connections struct {
	mu       sync.Mutex
	provider config.Provider
	tokens   cache.Provider
	reg      *registry.Registry
	conns    map[string]datastore.Conn
}

// ConnectionsOption configures Connections.
type ConnectionsOption func(*Connections)

// WithTokenCache stores key-attribute continuation tokens in p.
func WithTokenCache(p cache.Provider) ConnectionsOption {
	return func(c *Connections) { c.tokens = p }
}

// WithRegistry resolves key fields of key-attribute domains through reg
// instead of the default registry.
func WithRegistry(reg *registry.Registry) ConnectionsOption {
	return func(c *Connections) { c.reg = reg }
}

// NewConnections creates a connection registry reading groups from p.
func NewConnections(p config.Provider, opts ...ConnectionsOption) *Connections {
	c := &Connections{
		provider: p,
		reg:      registry.Default,
		conns:    make(map[string]datastore.Conn),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register stores an already open connection under name.
func (c *Connections) Register(name string, conn datastore.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.conns[name]; exists {
		return fmt.Errorf("connection %q already registered", name)
	}
	c.conns[name] = conn
	return nil
}

// Get returns the connection of group name, opening it on first use.
func (c *Connections) Get(ctx context.Context, name string) (datastore.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conn, ok := c.conns[name]; ok {
		return conn, nil
	}
	conn, err := c.open(ctx, name)
	if err != nil {
		return nil, err
	}
	c.conns[name] = conn
	return conn, nil
}

func (c *Connections) open(ctx context.Context, name string) (datastore.Conn, error) {
	if c.provider == nil {
		return nil, errors.NewConfigurationError(name, "no configuration provider", nil)
	}
	cfg, err := c.provider.Database(name)
	if err != nil {
		return nil, err
	}
	d, ok := sqlbuilder.ForName(cfg.Type)
	if !ok {
		return nil, errors.NewConfigurationError(name, fmt.Sprintf("unknown database type %q", cfg.Type), nil)
	}
	if d == sqlbuilder.SDB {
		conn, err := sdb.Open(ctx, name, cfg, c.tokens, sdb.WithKeyResolver(c.keyOf))
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
	conn, err := sqldb.Open(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// keyOf returns the key field of the model stored in table.
func (c *Connections) keyOf(table string) string {
	if d, ok := c.reg.ByTable(table); ok {
		return d.PrimaryKey
	}
	return registry.DefaultPrimaryKey
}

// Names returns the groups with an open connection.
func (c *Connections) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.conns))
	for name := range c.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes and forgets every connection.
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, conn := range c.conns {
		if err := conn.Close(); err != nil {
			log.WithError(err).WithField("group", name).Warn("failed to close connection")
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(c.conns, name)
	}
	return stderrors.Join(errs...)
}

// Reset closes every connection so the next Get opens them afresh.
func (c *Connections) Reset() error {
	return c.Close()
}
