// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "math"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ShaderID is an opaque handle to a configured shader instance.
// Two ShaderIDs may share one compiled module in the backend.
type ShaderID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 0

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 1

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 2

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 3
)

// Contains reports whether all bits of other are set in u.
func (u BufferUsage) Contains(other BufferUsage) bool {
	return u&other == other
}

// VertexUsage is the usage for position streams.
const VertexUsage = BufferUsageVertex | BufferUsageCopyDst

// IndexUsage is the usage for index streams.
const IndexUsage = BufferUsageIndex | BufferUsageCopyDst

// StockShader identifies a built-in shader a backend can instantiate.
type StockShader uint8

// Stock shaders.
const (
	// StockSolid draws geometry in one flat color.
	StockSolid StockShader = iota + 1

	// StockThickLine draws line primitives with a screen-space width.
	StockThickLine

	// StockFatPoint draws point primitives with a screen-space size.
	StockFatPoint
)

// String returns the stock shader name.
func (s StockShader) String() string {
	switch s {
	case StockSolid:
		return "3dSolid"
	case StockThickLine:
		return "3dThickLine"
	case StockFatPoint:
		return "3dFatPoint"
	default:
		return "unknown"
	}
}

// Shader parameter names understood by every stock shader.
const (
	// ParamSolidColor is the RGBA draw color.
	ParamSolidColor = "solidColor"

	// ParamLineWidth is the line width in pixels (x and y).
	ParamLineWidth = "lineWidth"

	// ParamPointSize is the point size in pixels (x and y).
	ParamPointSize = "pointSize"
)

// Color is a linear RGBA color with float32 components.
// Components are compared bit for bit; see shader.Fingerprint.
type Color struct {
	R, G, B, A float32
}

// RGBA creates a color from its components.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Bits returns the IEEE-754 bit patterns of the four components.
func (c Color) Bits() [4]uint32 {
	return [4]uint32{
		math.Float32bits(c.R),
		math.Float32bits(c.G),
		math.Float32bits(c.B),
		math.Float32bits(c.A),
	}
}

// Equal reports bitwise equality of all four components.
// Unlike ==, NaN equals NaN and -0 differs from +0.
func (c Color) Equal(other Color) bool {
	return c.Bits() == other.Bits()
}

// Opaque returns c with alpha forced to 1.
func (c Color) Opaque() Color {
	c.A = 1
	return c
}

// Slice returns the components as a parameter value.
func (c Color) Slice() []float32 {
	return []float32{c.R, c.G, c.B, c.A}
}
