// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package item holds the retained render items of one logical shape.
package item

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
)

// Kind is the primitive type an item draws.
type Kind uint8

// Primitive kinds.
const (
	Lines Kind = iota
	Triangles
	Points
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	case Points:
		return "points"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// IndicesPerPrimitive returns how many indices make one primitive.
func (k Kind) IndicesPerPrimitive() int {
	switch k {
	case Lines:
		return 2
	case Triangles:
		return 3
	default:
		return 1
	}
}

// DrawMode is a bitmask of viewport modes in which an item is drawn.
type DrawMode uint8

// Draw modes.
const (
	Wireframe DrawMode = 1 << iota
	Shaded
	Textured
	Selection

	// AllModes draws in every mode.
	AllModes = Wireframe | Shaded | Textured
)

var modeNames = []struct {
	bit  DrawMode
	name string
}{
	{Wireframe, "wireframe"},
	{Shaded, "shaded"},
	{Textured, "textured"},
	{Selection, "selection"},
}

// String returns the set modes joined with "|".
func (m DrawMode) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, mn := range modeNames {
		if m&mn.bit != 0 {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseDrawMode parses a "|"-separated list of mode names.
func ParseDrawMode(s string) (DrawMode, error) {
	var m DrawMode
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		found := false
		for _, mn := range modeNames {
			if mn.name == part {
				m |= mn.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("item: unknown draw mode %q", part)
		}
	}
	return m, nil
}

// DepthPriority orders coincident primitives; higher draws on top.
type DepthPriority uint32

// Depth priorities, lowest first.
const (
	DormantFilled DepthPriority = iota
	DormantWire
	HiliteWire
	ActiveWire
	ActiveLine
	ActivePoint
	SelectionDepth
)

// PriorityFor returns the depth priority for an instance status: the
// selected family draws as ActiveWire, everything else as DormantFilled.
func PriorityFor(s instance.Status) DepthPriority {
	if s.Active() {
		return ActiveWire
	}
	return DormantFilled
}

// Spec describes the structural properties of an item.
type Spec struct {
	Name     string
	Instance instance.Key
	Kind     Kind
	Mode     DrawMode
	Shader   gpucore.ShaderID
	Depth    DepthPriority
	Enabled  bool

	// Stream names the geometry stream the item draws.
	Stream string
}

// Item is one retained drawable.
type Item struct {
	Name     string
	Instance instance.Key
	Kind     Kind
	Mode     DrawMode
	Shader   gpucore.ShaderID
	Depth    DepthPriority
	Enabled  bool
	Stream   string

	Transform mgl32.Mat4

	VertexBuffer gpucore.BufferID
	IndexBuffer  gpucore.BufferID
	IndexCount   int
}

// Bound reports whether the item has geometry to draw.
func (it *Item) Bound() bool {
	return it.VertexBuffer != gpucore.InvalidID && it.IndexBuffer != gpucore.InvalidID
}

// Primitives returns the number of primitives the item draws.
func (it *Item) Primitives() int {
	return it.IndexCount / it.Kind.IndicesPerPrimitive()
}

// InstanceName returns the item name for base on instance key. Items shared
// by every instance pass instance.InvalidKey and keep the base name.
func InstanceName(base string, key instance.Key) string {
	if key == instance.InvalidKey {
		return base
	}
	return base + "#" + key.String()
}
