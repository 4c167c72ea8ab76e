/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"context"

	"github.com/suparena/modelstore/storagemodels"
)

// Service is the native surface of a key-attribute store: one SELECT-like
// paginated query plus single-item attribute operations. Domains play the
// role of tables and item names the role of primary keys.
type Service interface {
	// Select runs one page of a select expression. The expression carries
	// literal values and may end with "limit n" to bound the page size.
	Select(ctx context.Context, req storagemodels.SelectRequest) (*storagemodels.SelectPage, error)

	// GetAttributes returns the attributes of an item, or none when the item
	// does not exist.
	GetAttributes(ctx context.Context, domain, item string, consistent bool) ([]storagemodels.Attribute, error)

	// PutAttributes stores attributes on an item. With replace set, existing
	// values of the named attributes are overwritten.
	PutAttributes(ctx context.Context, domain, item string, attrs []storagemodels.Attribute, replace bool) error

	// DeleteAttributes removes the named attributes, or the whole item when
	// no names are given.
	DeleteAttributes(ctx context.Context, domain, item string, names ...string) error

	// BatchDeleteAttributes removes whole items.
	BatchDeleteAttributes(ctx context.Context, domain string, items []string) error
}

type consistentReadKey struct{}

// WithConsistentRead marks ctx so every select issued under it asks for
// strongly consistent reads.
func WithConsistentRead(ctx context.Context, consistent bool) context.Context {
	return context.WithValue(ctx, consistentReadKey{}, consistent)
}

// ConsistentRead reports the read mode requested on ctx.
func ConsistentRead(ctx context.Context) bool {
	v, _ := ctx.Value(consistentReadKey{}).(bool)
	return v
}
