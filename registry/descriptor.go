/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"strings"
	"unicode"

	"github.com/suparena/modelstore/record"
)

// DefaultPrimaryKey is used when a descriptor does not name its key field.
const DefaultPrimaryKey = "id"

// DefaultDatabase is the config group used when a descriptor names none.
const DefaultDatabase = "default"

// Descriptor is the static metadata of a model type.
type Descriptor struct {
	// Name is the model name, also the alias used for its columns in joins.
	Name string
	// Table is the storage table or domain. Defaults to snake_case(Name)+"s".
	Table string
	// PrimaryKey is the key field name. Defaults to "id".
	PrimaryKey string
	// ForeignKeys overrides the field holding the key of a related model,
	// keyed by the related model name.
	ForeignKeys map[string]string
	// Database is the config group of the connection serving this model.
	Database string
	// ConsistentRead asks the key-attribute store for strongly consistent reads.
	ConsistentRead bool
	// Hooks observes the lifecycle. Defaults to record.NopHooks.
	Hooks record.Hooks
}

// withDefaults returns a copy of d with every empty setting resolved.
func (d Descriptor) withDefaults() Descriptor {
	if d.Table == "" {
		d.Table = snakeCase(d.ShortName()) + "s"
	}
	if d.PrimaryKey == "" {
		d.PrimaryKey = DefaultPrimaryKey
	}
	if d.Database == "" {
		d.Database = DefaultDatabase
	}
	if d.Hooks == nil {
		d.Hooks = record.NopHooks{}
	}
	fks := make(map[string]string, len(d.ForeignKeys))
	for k, v := range d.ForeignKeys {
		fks[k] = v
	}
	d.ForeignKeys = fks
	return d
}

// ShortName returns the alias used to qualify this model's columns.
func (d *Descriptor) ShortName() string {
	if i := strings.LastIndexAny(d.Name, `.\/`); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// ForeignKey returns the field of d holding the key of related, using the
// override map or the lower(relatedName)_relatedPK convention.
func (d *Descriptor) ForeignKey(related *Descriptor) string {
	if fk, ok := d.ForeignKeys[related.Name]; ok && fk != "" {
		return fk
	}
	return strings.ToLower(related.ShortName()) + "_" + related.PrimaryKey
}

// NewRecord returns an empty record of this model.
func (d *Descriptor) NewRecord() *record.Record {
	return record.New(d.Name, d.PrimaryKey)
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
