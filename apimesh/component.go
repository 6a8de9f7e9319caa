// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package apimesh

// ComponentType is the kind of a selectable mesh component.
type ComponentType uint8

// Component types.
const (
	VertexComponent ComponentType = iota + 1
	EdgeComponent
	FaceComponent
)

// String returns the component type name.
func (c ComponentType) String() string {
	switch c {
	case VertexComponent:
		return "vertex"
	case EdgeComponent:
		return "edge"
	case FaceComponent:
		return "face"
	default:
		return "unknown"
	}
}

const (
	componentShift = 28
	indexMask      = 1<<componentShift - 1
)

// Component encodes a component of type c with index i as a selection
// entry. Indices are limited to 28 bits.
func Component(c ComponentType, i int) int {
	return int(c)<<componentShift | i&indexMask
}

// Components holds a selection split by component type, each sorted.
type Components struct {
	Vertices []int
	Edges    []int
	Faces    []int
}

// Empty reports whether no component is selected.
func (c Components) Empty() bool {
	return len(c.Vertices) == 0 && len(c.Edges) == 0 && len(c.Faces) == 0
}

// SplitComponents decodes a normalized selection. Entries with an unknown
// type are ignored.
func SplitComponents(sel []int) Components {
	var out Components
	for _, s := range sel {
		i := s & indexMask
		switch ComponentType(s >> componentShift) {
		case VertexComponent:
			out.Vertices = append(out.Vertices, i)
		case EdgeComponent:
			out.Edges = append(out.Edges, i)
		case FaceComponent:
			out.Faces = append(out.Faces, i)
		}
	}
	return out
}
