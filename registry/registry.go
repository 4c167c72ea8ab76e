/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/modelstore/errors"
)

// Registry maps model names to their descriptors.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[string]*Descriptor
	byTable     map[string]*Descriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		descriptors: make(map[string]*Descriptor),
		byTable:     make(map[string]*Descriptor),
	}
}

// Default is the process-wide registry used by the package-level functions.
var Default = New()

// Register resolves the defaults of d and stores it. Registering the same
// name twice is an error so an accidental override does not go unnoticed.
func (r *Registry) Register(d Descriptor) (*Descriptor, error) {
	if d.Name == "" {
		return nil, errors.NewValidationError("Name", "descriptor needs a model name")
	}
	resolved := d.withDefaults()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[resolved.Name]; exists {
		return nil, fmt.Errorf("registry: model %q already registered", resolved.Name)
	}
	r.descriptors[resolved.Name] = &resolved
	if short := resolved.ShortName(); short != resolved.Name {
		if _, taken := r.descriptors[short]; !taken {
			r.descriptors[short] = &resolved
		}
	}
	r.byTable[resolved.Table] = &resolved
	return &resolved, nil
}

// MustRegister is Register for init() time; it panics on error.
func (r *Registry) MustRegister(d Descriptor) *Descriptor {
	desc, err := r.Register(d)
	if err != nil {
		panic(err)
	}
	return desc
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	if !ok {
		return nil, errors.NewTypeNotFoundError(name)
	}
	return d, nil
}

// ByTable returns the descriptor whose table is table.
func (r *Registry) ByTable(table string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byTable[table]
	return d, ok
}

// Names lists the registered model names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[*Descriptor]bool, len(r.descriptors))
	names := make([]string, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		if seen[d] {
			continue
		}
		seen[d] = true
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors = make(map[string]*Descriptor)
	r.byTable = make(map[string]*Descriptor)
}

// Register adds d to the Default registry.
func Register(d Descriptor) (*Descriptor, error) {
	return Default.Register(d)
}

// MustRegister adds d to the Default registry and panics on error.
func MustRegister(d Descriptor) *Descriptor {
	return Default.MustRegister(d)
}

// Lookup finds a descriptor in the Default registry.
func Lookup(name string) (*Descriptor, error) {
	return Default.Lookup(name)
}
