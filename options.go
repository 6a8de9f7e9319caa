// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import "github.com/google/uuid"

// OverrideOption configures an Override during creation.
//
// Example:
//
//	ov, err := plugin.Register("footPrint1", node, host, layout,
//	    subscene.WithTrace(),
//	)
type OverrideOption func(*overrideOptions)

type overrideOptions struct {
	trace    bool
	id       uuid.UUID
	onReport func(Report)
}

// WithTrace logs every planner state transition at debug level.
func WithTrace() OverrideOption {
	return func(o *overrideOptions) {
		o.trace = true
	}
}

// WithID sets the override's identifier instead of a random one.
func WithID(id uuid.UUID) OverrideOption {
	return func(o *overrideOptions) {
		o.id = id
	}
}

// WithReportHook calls fn with the report of every Update.
// fn runs on the synchronization path and must not call back into the
// override.
func WithReportHook(fn func(Report)) OverrideOption {
	return func(o *overrideOptions) {
		o.onReport = fn
	}
}

// PluginOption configures a Plugin during creation.
type PluginOption func(*pluginOptions)

type pluginOptions struct {
	trace bool
	newID func() uuid.UUID
}

func defaultPluginOptions() pluginOptions {
	return pluginOptions{newID: uuid.New}
}

// WithPluginTrace enables WithTrace on every override the plugin creates.
func WithPluginTrace() PluginOption {
	return func(o *pluginOptions) {
		o.trace = true
	}
}

// WithIDSource sets the generator of override identifiers.
func WithIDSource(fn func() uuid.UUID) PluginOption {
	return func(o *pluginOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}
