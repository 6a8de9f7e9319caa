// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/twmb/murmur3"
)

// View is the derived geometry of a shape at one generation.
// A View is immutable once returned by the cache.
type View struct {
	// Positions holds every run point, scaled, back to back.
	Positions []mgl32.Vec3

	// Runs holds the point count of each run.
	Runs []int

	// Faces holds polygon faces for faceted shapes, nil otherwise.
	Faces [][]uint32

	// Generation is the shape generation the view was built from.
	Generation uint64

	bytes  []byte
	bounds Bounds
}

// Build computes the view of s. It does not touch the dirty flag.
func Build(s Shape) *View {
	runs := s.Runs()
	scale := s.Scale()

	total := 0
	for _, r := range runs {
		total += len(r)
	}

	v := &View{
		Positions:  make([]mgl32.Vec3, 0, total),
		Runs:       make([]int, 0, len(runs)),
		Generation: s.Generation(),
	}
	for _, r := range runs {
		for _, p := range r {
			v.Positions = append(v.Positions, p.Mul(scale))
		}
		v.Runs = append(v.Runs, len(r))
	}
	if f, ok := s.(Faceted); ok {
		v.Faces = f.Faces()
	}
	v.bytes = PositionBytes(v.Positions)
	v.bounds = BoundsOf(v.Positions)
	return v
}

// VertexCount returns the number of positions.
func (v *View) VertexCount() int {
	return len(v.Positions)
}

// Bytes returns the vertex stream as little-endian float32 xyz triples.
// The returned slice must not be modified.
func (v *View) Bytes() []byte {
	return v.bytes
}

// Bounds returns the axis-aligned bounds of the positions.
func (v *View) Bounds() Bounds {
	return v.bounds
}

// Digest returns a murmur3 128-bit hash of Bytes.
func (v *View) Digest() Digest {
	return DigestOf(v.bytes)
}

// Digest is a 128-bit content hash.
type Digest [2]uint64

// DigestOf hashes data with murmur3.
func DigestOf(data []byte) Digest {
	h1, h2 := murmur3.Sum128(data)
	return Digest{h1, h2}
}

// String returns the digest as 32 hex digits.
func (d Digest) String() string {
	return fmt.Sprintf("%016x%016x", d[0], d[1])
}

// PositionBytes encodes points as little-endian float32 xyz triples.
func PositionBytes(pts []mgl32.Vec3) []byte {
	buf := make([]byte, len(pts)*12)
	for i, p := range pts {
		o := i * 12
		binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(buf[o+4:], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(buf[o+8:], math.Float32bits(p[2]))
	}
	return buf
}

// IndexBytes encodes indices as little-endian uint32.
func IndexBytes(idx []uint32) []byte {
	buf := make([]byte, len(idx)*4)
	for i, v := range idx {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

// DecodePositions is the inverse of PositionBytes. Trailing bytes that do
// not form a whole point are ignored.
func DecodePositions(b []byte) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(b)/12)
	for i := range out {
		o := i * 12
		out[i] = mgl32.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(b[o:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[o+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(b[o+8:])),
		}
	}
	return out
}

// DecodeIndices is the inverse of IndexBytes.
func DecodeIndices(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// BoundsOf returns the bounds of pts. The bounds of no points is the zero box.
func BoundsOf(pts []mgl32.Vec3) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		for k := range 3 {
			b.Min[k] = min(b.Min[k], p[k])
			b.Max[k] = max(b.Max[k], p[k])
		}
	}
	return b
}

// Scale returns the bounds multiplied by s.
func (b Bounds) Scale(s float32) Bounds {
	return Bounds{Min: b.Min.Mul(s), Max: b.Max.Mul(s)}
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Transform returns the bounds of the box corners transformed by m.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	corners := BoxPositions(b)
	for i, c := range corners {
		corners[i] = mgl32.TransformCoordinate(c, m)
	}
	return BoundsOf(corners)
}
