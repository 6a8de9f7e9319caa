// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import "github.com/gogpu/subscene/evalctx"

type stamp struct {
	ctx evalctx.ID
	gen uint64
}

// Cache holds the derived geometry of one logical shape.
//
// A Cache is owned by a single synchronizer and is only touched from the
// synchronization path, so it carries no lock.
type Cache struct {
	view       *View
	stamp      stamp
	recomputes int
}

// Stale reports whether the cached view does not match s.
// Stale never mutates the cache or the shape.
func (c *Cache) Stale(s Shape) bool {
	return c.view == nil || c.stamp != (stamp{s.Context(), s.Generation()})
}

// EnsureFresh returns the view for the current generation of s, rebuilding
// it when the cache is empty or the stamp differs. The second result reports
// whether a rebuild happened. The shape's dirty flag is cleared in either
// case once the returned view is current.
func (c *Cache) EnsureFresh(s Shape) (*View, bool) {
	rebuilt := false
	if c.Stale(s) {
		c.view = Build(s)
		c.stamp = stamp{s.Context(), s.Generation()}
		c.recomputes++
		rebuilt = true
	}
	if s.NeedsUpdate() {
		s.ClearNeedsUpdate()
	}
	return c.view, rebuilt
}

// View returns the cached view without checking freshness, or nil.
func (c *Cache) View() *View {
	return c.view
}

// Recomputes returns how many times the view was rebuilt.
func (c *Cache) Recomputes() int {
	return c.recomputes
}

// Reset empties the cache.
func (c *Cache) Reset() {
	c.view = nil
	c.stamp = stamp{}
}
