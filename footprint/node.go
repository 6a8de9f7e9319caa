// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package footprint implements the footprint locator: a flat foot outline
// made of a heel and a sole, scaled by a size attribute.
//
// The node keeps a per-context sizeChanged flag that the host's dirty
// propagation sets and the geometry cache clears once the vertex stream
// reflects the current size.
package footprint

import (
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/geometry"
)

// Attribute names of the size plug.
const (
	PlugSize      = "size"
	PlugSizeShort = "sz"
)

// DefaultSize is the initial value of the size attribute.
const DefaultSize float32 = 1.0

// Outline data, in centimeters at size 1.
var (
	heel = geometry.Run{
		{0.00, 0.0, 0.06},
		{0.13, 0.0, 0.06},
		{0.14, 0.0, 0.15},
		{0.14, 0.0, 0.21},
		{0.13, 0.0, 0.25},
		{0.11, 0.0, 0.28},
		{0.09, 0.0, 0.29},
		{0.04, 0.0, 0.30},
		{0.00, 0.0, 0.30},
		{-0.04, 0.0, 0.30},
		{-0.09, 0.0, 0.29},
		{-0.11, 0.0, 0.28},
		{-0.13, 0.0, 0.25},
		{-0.14, 0.0, 0.21},
		{-0.14, 0.0, 0.15},
		{-0.13, 0.0, 0.06},
		{-0.00, 0.0, 0.06},
	}
	sole = geometry.Run{
		{0.00, 0.0, -0.70},
		{0.04, 0.0, -0.69},
		{0.09, 0.0, -0.65},
		{0.13, 0.0, -0.61},
		{0.16, 0.0, -0.54},
		{0.17, 0.0, -0.46},
		{0.17, 0.0, -0.35},
		{0.16, 0.0, -0.25},
		{0.15, 0.0, -0.14},
		{0.13, 0.0, 0.00},
		{0.00, 0.0, 0.00},
		{-0.13, 0.0, 0.00},
		{-0.15, 0.0, -0.14},
		{-0.16, 0.0, -0.25},
		{-0.17, 0.0, -0.35},
		{-0.17, 0.0, -0.46},
		{-0.16, 0.0, -0.54},
		{-0.13, 0.0, -0.61},
		{-0.09, 0.0, -0.65},
		{-0.04, 0.0, -0.69},
		{-0.00, 0.0, -0.70},
	}

	boxMin = mgl32.Vec3{-0.17, 0, -0.7}
	boxMax = mgl32.Vec3{0.17, 0, 0.3}
)

// HeelCount and SoleCount are the point counts of the two runs.
var (
	HeelCount = len(heel)
	SoleCount = len(sole)
)

// Node is a footprint locator.
type Node struct {
	mu   sync.Mutex
	size float32

	// Context-partitioned state, the equivalent of an internal attribute.
	sizeChanged *evalctx.Slot[bool]
	generation  *evalctx.Slot[uint64]
}

// NewNode creates a footprint of DefaultSize.
func NewNode() *Node {
	return &Node{
		size:        DefaultSize,
		sizeChanged: evalctx.NewSlot(true),
		generation:  evalctx.NewSlot[uint64](0),
	}
}

// Size returns the size attribute.
func (n *Node) Size() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.size
}

// SetSize sets the size attribute from the normal context and propagates
// dirtiness the way an attribute edit does.
func (n *Node) SetSize(v float32) {
	n.mu.Lock()
	same := n.size == v
	n.size = v
	n.mu.Unlock()
	if !same {
		n.SetDependentsDirty(PlugSize)
	}
}

// SetDependentsDirty is the dirty propagation hook of the normal context.
func (n *Node) SetDependentsDirty(plug string) {
	if isSizePlug(plug) {
		n.markSizeChanged(evalctx.Normal)
	}
}

// PostEvaluation is called after the node was evaluated in ec with the
// given dirty plugs. Restored cache evaluations call it too, so the flag is
// set here rather than before evaluation.
func (n *Node) PostEvaluation(ec evalctx.ID, dirty []string) {
	if slices.ContainsFunc(dirty, isSizePlug) {
		n.markSizeChanged(ec)
	}
}

func isSizePlug(p string) bool {
	return p == PlugSize || p == PlugSizeShort
}

func (n *Node) markSizeChanged(ec evalctx.ID) {
	n.sizeChanged.Set(ec, true)
	n.generation.Update(ec, func(g uint64) uint64 { return g + 1 })
}

// SizeChanged reports whether ec has not seen the current size yet.
func (n *Node) SizeChanged(ec evalctx.ID) bool {
	return n.sizeChanged.Get(ec)
}

// BoundingBox returns the footprint bounds at the current size.
func (n *Node) BoundingBox() geometry.Bounds {
	return geometry.Bounds{Min: boxMin, Max: boxMax}.Scale(n.Size())
}

// IsBounded reports that the footprint has finite bounds.
func (n *Node) IsBounded() bool { return true }

// Shape returns the footprint as seen from ec.
func (n *Node) Shape(ec evalctx.ID) geometry.Shape {
	return &shape{node: n, ec: ec}
}

type shape struct {
	node *Node
	ec   evalctx.ID
}

func (s *shape) Context() evalctx.ID { return s.ec }

func (s *shape) Generation() uint64 { return s.node.generation.Get(s.ec) }

func (s *shape) Runs() []geometry.Run { return []geometry.Run{heel, sole} }

func (s *shape) Scale() float32 { return s.node.Size() }

func (s *shape) NeedsUpdate() bool { return s.node.sizeChanged.Get(s.ec) }

func (s *shape) ClearNeedsUpdate() { s.node.sizeChanged.Set(s.ec, false) }
