// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package geometry derives GPU-ready vertex and index data from a logical
// shape and caches it against the shape's generation stamp.
package geometry

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/evalctx"
)

// Run is an open polyline of outline points.
type Run []mgl32.Vec3

// Shape is the host-side source of truth for one logical shape, as seen
// from a single execution context.
//
// Generation advances whenever a geometry-affecting parameter changes.
// NeedsUpdate is the per-context dirty flag written by the host's
// evaluation path and cleared by the cache after a recompute.
type Shape interface {
	// Context returns the execution context this view of the shape belongs to.
	Context() evalctx.ID

	// Generation returns the current generation stamp.
	Generation() uint64

	// Runs returns the outline polylines, laid out back to back in the
	// vertex stream in the returned order.
	Runs() []Run

	// Scale returns the uniform multiplier applied to every point.
	Scale() float32

	// NeedsUpdate reports whether the host marked geometry dirty.
	NeedsUpdate() bool

	// ClearNeedsUpdate resets the dirty flag for this context.
	ClearNeedsUpdate()
}

// Faceted is implemented by shapes that carry polygon faces in addition to
// their outline. Face indices refer to the concatenated run points.
type Faceted interface {
	Faces() [][]uint32
}
