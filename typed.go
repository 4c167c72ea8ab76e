/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/suparena/modelstore/record"
	"github.com/suparena/modelstore/storagemodels"
)

// Typed provides type-safe operations on a model for a struct type T. Struct
// fields map to record fields by their `db` tag; untagged fields use the
// lower-cased field name. A ",omitempty" tag leaves zero values out of
// inserts and updates, and nil pointers are always left out.
type Typed[T any] struct {
	model *Model
}

// NewTyped wraps m for struct type T.
func NewTyped[T any](m *Model) *Typed[T] {
	return &Typed[T]{model: m}
}

// Bind looks up model name in s and wraps it for T.
func Bind[T any](s *Store, name string) (*Typed[T], error) {
	m, err := s.Model(name)
	if err != nil {
		return nil, err
	}
	if rt := reflect.TypeOf((*T)(nil)).Elem(); rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("typed model %s needs a struct type, got %s", name, rt)
	}
	return NewTyped[T](m), nil
}

// Model returns the wrapped model.
func (t *Typed[T]) Model() *Model { return t.model }

// Find returns the decoded record, or nil when none matches.
func (t *Typed[T]) Find(ctx context.Context, idOrOptions any, with ...string) (*T, error) {
	rec, err := t.model.Find(ctx, idOrOptions, with...)
	if err != nil || rec == nil {
		return nil, err
	}
	var out T
	if err := rec.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindAll returns every matching record decoded into T.
func (t *Typed[T]) FindAll(ctx context.Context, opts *storagemodels.Options, with ...string) ([]T, error) {
	recs, err := t.model.FindAll(ctx, opts, with...)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(recs))
	for i, rec := range recs {
		if err := rec.Decode(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Record converts v into an unsaved record of the model.
func (t *Typed[T]) Record(v *T) *record.Record {
	rec := t.model.desc.NewRecord()
	for _, f := range structFields(v) {
		rec.Set(f.name, f.value)
	}
	return rec
}

// Save stores v and copies generated values such as the key back into it.
// Validation messages are only available through Record and Store.Save.
func (t *Typed[T]) Save(ctx context.Context, v *T, opts ...SaveOption) (bool, error) {
	rec := t.Record(v)
	ok, err := t.model.store.Save(ctx, rec, opts...)
	if err != nil || !ok {
		return ok, err
	}
	if err := rec.Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes v through the Delete lifecycle, firing BeforeDelete.
func (t *Typed[T]) Delete(ctx context.Context, v *T) error {
	return t.model.store.Delete(ctx, t.Record(v))
}

type structField struct {
	name  string
	value any
}

// structFields lists the exported fields of the struct v points to, in
// declaration order.
func structFields(v any) []structField {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	rt := rv.Type()
	out := make([]structField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, omitEmpty := parseTag(sf)
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		out = append(out, structField{name: name, value: fv.Interface()})
	}
	return out
}

func parseTag(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("db")
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(sf.Name)
	}
	return name, strings.Contains(opts, "omitempty")
}
