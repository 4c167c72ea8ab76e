/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import "context"

// Hooks observes the lifecycle of a model's records. A non-nil error returned
// by a Before* hook aborts the operation. Validate runs before every Valid()
// check and reports failures through Record.ValidationError.
type Hooks interface {
	BeforeSave(ctx context.Context, r *Record) error
	AfterSave(ctx context.Context, r *Record) error
	BeforeCreate(ctx context.Context, r *Record) error
	AfterCreate(ctx context.Context, r *Record) error
	BeforeUpdate(ctx context.Context, r *Record) error
	AfterUpdate(ctx context.Context, r *Record) error
	BeforeDelete(ctx context.Context, r *Record) error
	AfterGet(ctx context.Context, r *Record) error
	Validate(ctx context.Context, r *Record)
}

// NopHooks implements Hooks with no-ops. Embed it to override only some hooks.
type NopHooks struct{}

func (NopHooks) BeforeSave(context.Context, *Record) error   { return nil }
func (NopHooks) AfterSave(context.Context, *Record) error    { return nil }
func (NopHooks) BeforeCreate(context.Context, *Record) error { return nil }
func (NopHooks) AfterCreate(context.Context, *Record) error  { return nil }
func (NopHooks) BeforeUpdate(context.Context, *Record) error { return nil }
func (NopHooks) AfterUpdate(context.Context, *Record) error  { return nil }
func (NopHooks) BeforeDelete(context.Context, *Record) error { return nil }
func (NopHooks) AfterGet(context.Context, *Record) error     { return nil }
func (NopHooks) Validate(context.Context, *Record)           {}

var _ Hooks = NopHooks{}
