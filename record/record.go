/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-viper/mapstructure/v2"
)

// Record is one model instance: ordered attributes plus change tracking state.
// A Record is not safe for concurrent mutation.
type Record struct {
	model      string
	primaryKey string

	fields   []string
	attrs    map[string]any
	original map[string]any
	errors   map[string]string

	related      map[string]*Record
	relatedOrder []string
}

// New returns an empty record of the given model whose primary key lives in
// the field primaryKey.
func New(model, primaryKey string) *Record {
	if primaryKey == "" {
		primaryKey = "id"
	}
	return &Record{
		model:      model,
		primaryKey: primaryKey,
		attrs:      make(map[string]any),
		original:   make(map[string]any),
		errors:     make(map[string]string),
	}
}

// FromMap builds a record from a values map and snapshots it. Fields are
// ordered by name since map order carries no meaning.
func FromMap(model, primaryKey string, values map[string]any) *Record {
	r := New(model, primaryKey)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.Set(name, values[name])
	}
	r.Snapshot()
	return r
}

// Model returns the model name the record belongs to.
func (r *Record) Model() string { return r.model }

// PrimaryKey returns the name of the primary key field.
func (r *Record) PrimaryKey() string { return r.primaryKey }

// Get returns the value of a field and whether it is present.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.attrs[field]
	return v, ok
}

// Value returns the value of a field or nil.
func (r *Record) Value(field string) any {
	return r.attrs[field]
}

// Has reports whether the field is present on the record.
func (r *Record) Has(field string) bool {
	_, ok := r.attrs[field]
	return ok
}

// Set assigns a field, appending it to the field order when new.
func (r *Record) Set(field string, value any) {
	if _, ok := r.attrs[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.attrs[field] = value
}

// Unset removes a field from the record.
func (r *Record) Unset(field string) {
	if _, ok := r.attrs[field]; !ok {
		return
	}
	delete(r.attrs, field)
	for i, f := range r.fields {
		if f == field {
			r.fields = append(r.fields[:i], r.fields[i+1:]...)
			break
		}
	}
}

// Fields returns the present field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Values returns a copy of the attributes.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}
	return out
}

// ID returns the primary key value.
func (r *Record) ID() any {
	return r.attrs[r.primaryKey]
}

// SetID assigns the primary key value.
func (r *Record) SetID(id any) {
	r.Set(r.primaryKey, id)
}

// HasID reports whether a usable primary key value is set.
func (r *Record) HasID() bool {
	id, ok := r.attrs[r.primaryKey]
	if !ok || id == nil {
		return false
	}
	if s, isString := id.(string); isString && s == "" {
		return false
	}
	return true
}

// Original returns the snapshot value of a field.
func (r *Record) Original(field string) (any, bool) {
	v, ok := r.original[field]
	return v, ok
}

// Snapshot makes the current attributes the last-known-persisted values.
func (r *Record) Snapshot() {
	r.original = make(map[string]any, len(r.attrs))
	for k, v := range r.attrs {
		r.original[k] = v
	}
}

// Changed returns, in field order, the fields that differ from the snapshot.
func (r *Record) Changed() []string {
	var changed []string
	for _, field := range r.fields {
		if r.IsChanged(field) {
			changed = append(changed, field)
		}
	}
	return changed
}

// IsChanged reports whether a single field differs from the snapshot.
func (r *Record) IsChanged(field string) bool {
	cur, present := r.attrs[field]
	orig, known := r.original[field]
	if !present {
		return false
	}
	if !known {
		return true
	}
	return !SameValue(cur, orig)
}

// Valid reports whether the validation error map is empty.
func (r *Record) Valid() bool {
	return len(r.errors) == 0
}

// ValidationError records a validation failure for a field.
func (r *Record) ValidationError(field, message string) {
	r.errors[field] = message
}

// ErrorMessages returns a copy of the validation error map.
func (r *Record) ErrorMessages() map[string]string {
	out := make(map[string]string, len(r.errors))
	for k, v := range r.errors {
		out[k] = v
	}
	return out
}

// ClearValidationErrors empties the validation error map.
func (r *Record) ClearValidationErrors() {
	r.errors = make(map[string]string)
}

// Related returns the sub-record hydrated for alias, or nil.
func (r *Record) Related(alias string) *Record {
	if r.related == nil {
		return nil
	}
	return r.related[alias]
}

// SetRelated attaches a sub-record under alias.
func (r *Record) SetRelated(alias string, sub *Record) {
	if r.related == nil {
		r.related = make(map[string]*Record)
	}
	if _, ok := r.related[alias]; !ok {
		r.relatedOrder = append(r.relatedOrder, alias)
	}
	r.related[alias] = sub
}

// RelatedAliases returns the attached aliases in attachment order.
func (r *Record) RelatedAliases() []string {
	out := make([]string, len(r.relatedOrder))
	copy(out, r.relatedOrder)
	return out
}

// String returns the value of field formatted as a string.
func (r *Record) String(field string) string {
	v, ok := r.attrs[field]
	if !ok || v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case []byte:
		return string(tv)
	default:
		return fmt.Sprint(tv)
	}
}

// Int returns the value of field as an int64.
func (r *Record) Int(field string) (int64, error) {
	switch tv := r.attrs[field].(type) {
	case int:
		return int64(tv), nil
	case int32:
		return int64(tv), nil
	case int64:
		return tv, nil
	case float64:
		return int64(tv), nil
	case nil:
		return 0, fmt.Errorf("field %q is not set", field)
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(r.String(field)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q is not an integer: %w", field, err)
		}
		return n, nil
	}
}

// Time returns the value of field as a time. String values are parsed with
// the date-time formats strfmt accepts.
func (r *Record) Time(field string) (time.Time, error) {
	switch tv := r.attrs[field].(type) {
	case time.Time:
		return tv, nil
	case strfmt.DateTime:
		return time.Time(tv), nil
	case nil:
		return time.Time{}, fmt.Errorf("field %q is not set", field)
	default:
		dt, err := strfmt.ParseDateTime(r.String(field))
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q is not a date-time: %w", field, err)
		}
		return time.Time(dt), nil
	}
}

// Decode copies the attributes onto out, which must be a pointer to a struct
// or map. Struct fields are matched by their `db` tag, then case-insensitively
// by name.
func (r *Record) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			bytesToStringHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			dateTimeHook,
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(r.attrs); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", r.model, err)
	}
	return nil
}

func bytesToStringHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if b, ok := data.([]byte); ok && to.Kind() != reflect.Slice {
		return string(b), nil
	}
	return data, nil
}

var dateTimeType = reflect.TypeOf(strfmt.DateTime{})

// dateTimeHook fills strfmt.DateTime fields from driver times and from the
// strings the key-attribute store returns.
func dateTimeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != dateTimeType {
		return data, nil
	}
	switch v := data.(type) {
	case time.Time:
		return strfmt.DateTime(v), nil
	case string:
		return strfmt.ParseDateTime(v)
	}
	return data, nil
}

// SameValue compares two attribute values the way change tracking does:
// scalars that print the same are equal regardless of their Go type, so an
// int64 loaded from a driver equals the int a caller assigned.
func SameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if ba, ok := a.([]byte); ok {
		a = string(ba)
	}
	if bb, ok := b.([]byte); ok {
		b = string(bb)
	}
	if !isScalar(a) || !isScalar(b) {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func isScalar(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
