// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

// ItemSpec describes one render item a shape type needs for an instance.
type ItemSpec struct {
	// Name is the base item name; the override appends the instance key.
	Name   string
	Kind   item.Kind
	Mode   item.DrawMode
	Shader shader.Fingerprint
	Depth  item.DepthPriority

	// Stream names the geometry the item draws.
	Stream string

	// PerInstance gives every instance its own copy of the stream, for
	// geometry that depends on instance state such as component selection.
	PerInstance bool

	Enabled bool
}

// StreamData is the content of one geometry stream.
type StreamData struct {
	// Positions overrides the shape's vertex stream when non-nil.
	Positions []mgl32.Vec3

	Indices []uint32
}

// Layout maps a shape type onto render items and index streams.
// Implementations must be deterministic: equal inputs yield equal output.
type Layout interface {
	// Items returns the items an instance in state st requires.
	Items(st instance.DrawState) []ItemSpec

	// Stream computes the named stream from view. For per-instance streams
	// st is the instance's committed state; for shared streams it is zero.
	Stream(name string, view *geometry.View, st instance.DrawState) StreamData
}
