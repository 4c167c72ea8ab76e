/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Options defines the filter and window of a Find, FindAll or Count.
type Options struct {
	// Where is the condition, with ? or :name placeholders.
	Where string
	// Values binds positional placeholders in order.
	Values []any
	// Params binds named placeholders.
	Params map[string]any
	// Order is the ORDER BY expression.
	Order string
	// Limit bounds the number of rows; nil means unbounded.
	Limit *int
	// Offset skips rows; nil means 0.
	Offset *int
}

// Int returns a pointer to n, for the Limit and Offset fields.
func Int(n int) *int {
	return &n
}

// Clone returns a copy of o that can be modified without affecting o.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}
	c := *o
	if o.Values != nil {
		c.Values = append([]any(nil), o.Values...)
	}
	if o.Params != nil {
		c.Params = make(map[string]any, len(o.Params))
		for k, v := range o.Params {
			c.Params[k] = v
		}
	}
	if o.Limit != nil {
		c.Limit = Int(*o.Limit)
	}
	if o.Offset != nil {
		c.Offset = Int(*o.Offset)
	}
	return &c
}

// Attribute is one name/value pair of a key-attribute store item. A field may
// be present several times when its value is split into chunks.
type Attribute struct {
	Name  string
	Value string
}

// Item is one key-attribute store item.
type Item struct {
	// Name is the item key.
	Name       string
	Attributes []Attribute
}

// SelectRequest is one page request against the key-attribute service.
type SelectRequest struct {
	// Expression is the select expression with literal values.
	Expression string
	// NextToken resumes a previous page; empty starts from the beginning.
	NextToken string
	// ConsistentRead requests a strongly consistent read.
	ConsistentRead bool
}

// SelectPage is one page answered by the key-attribute service.
type SelectPage struct {
	Items []Item
	// NextToken is set when more results exist.
	NextToken string
}
