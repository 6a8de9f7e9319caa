// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geometry

import "github.com/go-gl/mathgl/mgl32"

// LineIndices returns segment pairs connecting consecutive points of each
// run. A run of n points yields n-1 segments; runs never connect.
func LineIndices(runs []int) []uint32 {
	n := 0
	for _, r := range runs {
		if r > 1 {
			n += r - 1
		}
	}
	out := make([]uint32, 0, 2*n)
	offset := uint32(0)
	for _, r := range runs {
		for k := 0; k < r-1; k++ {
			out = append(out, offset+uint32(k), offset+uint32(k)+1)
		}
		offset += uint32(r)
	}
	return out
}

// FanIndices triangulates each run as a fan anchored at its first point.
// A run of n points yields n-2 triangles.
func FanIndices(runs []int) []uint32 {
	n := 0
	for _, r := range runs {
		if r > 2 {
			n += r - 2
		}
	}
	out := make([]uint32, 0, 3*n)
	offset := uint32(0)
	for _, r := range runs {
		for k := 0; k < r-2; k++ {
			out = append(out, offset, offset+uint32(k)+1, offset+uint32(k)+2)
		}
		offset += uint32(r)
	}
	return out
}

// FaceEdgeIndices returns the closed edge loop of every face.
// Edges shared by two faces are emitted once.
func FaceEdgeIndices(faces [][]uint32) []uint32 {
	type edge struct{ a, b uint32 }
	seen := make(map[edge]struct{})
	var out []uint32
	for _, f := range faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			if a > b {
				a, b = b, a
			}
			e := edge{a, b}
			if _, ok := seen[e]; ok || len(f) < 2 {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, f[i], f[(i+1)%len(f)])
		}
	}
	return out
}

// FaceFanIndices triangulates every face as a fan from its first vertex.
func FaceFanIndices(faces [][]uint32) []uint32 {
	var out []uint32
	for _, f := range faces {
		for k := 1; k+1 < len(f); k++ {
			out = append(out, f[0], f[k], f[k+1])
		}
	}
	return out
}

// BoxPositions returns the eight corners of b. Bit 0 of the corner index
// selects x, bit 1 selects y and bit 2 selects z.
func BoxPositions(b Bounds) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, 8)
	for i := range out {
		for k := range 3 {
			if i&(1<<k) != 0 {
				out[i][k] = b.Max[k]
			} else {
				out[i][k] = b.Min[k]
			}
		}
	}
	return out
}

var boxEdges = []uint32{
	0, 1, 2, 3, 4, 5, 6, 7, // x edges
	0, 2, 1, 3, 4, 6, 5, 7, // y edges
	0, 4, 1, 5, 2, 6, 3, 7, // z edges
}

// BoxLineIndices returns the 12 edges of a box laid out by BoxPositions.
func BoxLineIndices() []uint32 {
	out := make([]uint32, len(boxEdges))
	copy(out, boxEdges)
	return out
}
