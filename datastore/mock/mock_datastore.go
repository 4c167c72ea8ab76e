/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides in-memory doubles of the storage layers for testing
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/modelstore/storagemodels"
)

const (
	defaultPageSize = 100
	maxPageSize     = 2500
)

type domain struct {
	order []string
	items map[string][]storagemodels.Attribute
}

type tokenState struct {
	expression string
	pos        int
}

// SDB is an in-memory key-attribute service. It answers select expressions
// page by page with opaque continuation tokens and records every request.
type SDB struct {
	mu         sync.Mutex
	domains    map[string]*domain
	tokens     map[string]tokenState
	tokenSeq   int
	requests   []storagemodels.SelectRequest
	pageLimit  int
	failAfter  int
	failErr    error
	selectFunc func(ctx context.Context, req storagemodels.SelectRequest) (*storagemodels.SelectPage, error)
	putError   error
	deleteErr  error
}

// NewSDB creates an empty service.
func NewSDB() *SDB {
	return &SDB{
		domains:   make(map[string]*domain),
		tokens:    make(map[string]tokenState),
		failAfter: -1,
	}
}

// WithPageLimit caps every page at n items regardless of the requested limit
func (m *SDB) WithPageLimit(n int) *SDB {
	m.pageLimit = n
	return m
}

// WithSelectFunc answers selects with f instead of evaluating them
func (m *SDB) WithSelectFunc(f func(ctx context.Context, req storagemodels.SelectRequest) (*storagemodels.SelectPage, error)) *SDB {
	m.selectFunc = f
	return m
}

// FailSelectAfter makes every select after the first n fail with err
func (m *SDB) FailSelectAfter(n int, err error) *SDB {
	m.failAfter = n
	m.failErr = err
	return m
}

// WithPutError makes PutAttributes return err
func (m *SDB) WithPutError(err error) *SDB {
	m.putError = err
	return m
}

// WithDeleteError makes DeleteAttributes and BatchDeleteAttributes return err
func (m *SDB) WithDeleteError(err error) *SDB {
	m.deleteErr = err
	return m
}

func (m *SDB) domain(name string) *domain {
	d, ok := m.domains[name]
	if !ok {
		d = &domain{items: make(map[string][]storagemodels.Attribute)}
		m.domains[name] = d
	}
	return d
}

// Select evaluates one page of expression.
func (m *SDB) Select(ctx context.Context, req storagemodels.SelectRequest) (*storagemodels.SelectPage, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if m.failAfter >= 0 && len(m.requests) > m.failAfter {
		err := m.failErr
		m.mu.Unlock()
		return nil, err
	}
	f := m.selectFunc
	m.mu.Unlock()
	if f != nil {
		return f(ctx, req)
	}

	q, err := parseSelect(req.Expression)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	start := 0
	if req.NextToken != "" {
		st, ok := m.tokens[req.NextToken]
		if !ok || st.expression != req.Expression {
			return nil, fmt.Errorf("InvalidNextToken: %q does not belong to this query", req.NextToken)
		}
		start = st.pos
	}

	d := m.domains[q.domain]
	var matches []string
	if d != nil {
		matches, err = q.match(d)
		if err != nil {
			return nil, err
		}
	}

	size := q.limit
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	if m.pageLimit > 0 && size > m.pageLimit {
		size = m.pageLimit
	}
	if start > len(matches) {
		start = len(matches)
	}
	end := start + size
	if end > len(matches) {
		end = len(matches)
	}

	page := &storagemodels.SelectPage{}
	if end < len(matches) {
		m.tokenSeq++
		token := fmt.Sprintf("mock-token-%d", m.tokenSeq)
		m.tokens[token] = tokenState{expression: req.Expression, pos: end}
		page.NextToken = token
	}

	if q.count {
		page.Items = []storagemodels.Item{{
			Name:       "Domain",
			Attributes: []storagemodels.Attribute{{Name: "Count", Value: fmt.Sprint(end - start)}},
		}}
		return page, nil
	}
	for _, name := range matches[start:end] {
		page.Items = append(page.Items, storagemodels.Item{Name: name, Attributes: q.project(d.items[name])})
	}
	return page, nil
}

// GetAttributes returns the attributes of an item.
func (m *SDB) GetAttributes(_ context.Context, domain, item string, _ bool) ([]storagemodels.Attribute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domains[domain]
	if d == nil {
		return nil, nil
	}
	return append([]storagemodels.Attribute(nil), d.items[item]...), nil
}

// PutAttributes adds attributes to an item, creating it when missing. With
// replace, existing values of the named attributes are dropped first.
func (m *SDB) PutAttributes(_ context.Context, domain, item string, attrs []storagemodels.Attribute, replace bool) error {
	if m.putError != nil {
		return m.putError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domain(domain)
	existing, ok := d.items[item]
	if !ok {
		d.order = append(d.order, item)
	}
	if replace {
		names := make(map[string]bool, len(attrs))
		for _, a := range attrs {
			names[a.Name] = true
		}
		kept := existing[:0:0]
		for _, a := range existing {
			if !names[a.Name] {
				kept = append(kept, a)
			}
		}
		existing = kept
	}
	d.items[item] = append(existing, attrs...)
	return nil
}

// DeleteAttributes removes named attributes, or the whole item.
func (m *SDB) DeleteAttributes(_ context.Context, domain, item string, names ...string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domains[domain]
	if d == nil {
		return nil
	}
	if len(names) == 0 {
		d.remove(item)
		return nil
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var kept []storagemodels.Attribute
	for _, a := range d.items[item] {
		if !drop[a.Name] {
			kept = append(kept, a)
		}
	}
	if _, ok := d.items[item]; ok {
		d.items[item] = kept
	}
	return nil
}

// BatchDeleteAttributes removes whole items.
func (m *SDB) BatchDeleteAttributes(_ context.Context, domain string, items []string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domains[domain]
	if d == nil {
		return nil
	}
	for _, item := range items {
		d.remove(item)
	}
	return nil
}

func (d *domain) remove(item string) {
	if _, ok := d.items[item]; !ok {
		return
	}
	delete(d.items, item)
	for i, name := range d.order {
		if name == item {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Helper methods for testing

// SetItem stores an item directly, replacing any previous one.
func (m *SDB) SetItem(domain, item string, attrs ...storagemodels.Attribute) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domain(domain)
	if _, ok := d.items[item]; !ok {
		d.order = append(d.order, item)
	}
	d.items[item] = append([]storagemodels.Attribute(nil), attrs...)
}

// Item returns the raw attributes of an item and whether it exists.
func (m *SDB) Item(domain, item string) ([]storagemodels.Attribute, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domains[domain]
	if d == nil {
		return nil, false
	}
	attrs, ok := d.items[item]
	return append([]storagemodels.Attribute(nil), attrs...), ok
}

// ItemNames returns the item names of a domain, sorted.
func (m *SDB) ItemNames(domain string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.domains[domain]
	if d == nil {
		return nil
	}
	names := append([]string(nil), d.order...)
	sort.Strings(names)
	return names
}

// Count returns the number of items in a domain.
func (m *SDB) Count(domain string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := m.domains[domain]; d != nil {
		return len(d.items)
	}
	return 0
}

// SelectCalls returns how many selects were issued.
func (m *SDB) SelectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every select request received.
func (m *SDB) Requests() []storagemodels.SelectRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storagemodels.SelectRequest(nil), m.requests...)
}

// ResetCalls forgets recorded requests.
func (m *SDB) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// Clear removes all data, tokens and recorded requests.
func (m *SDB) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains = make(map[string]*domain)
	m.tokens = make(map[string]tokenState)
	m.requests = nil
}
