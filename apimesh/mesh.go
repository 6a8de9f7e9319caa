// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package apimesh implements a polygon mesh shape drawn through a sub-scene
// layout: wireframe, thick selection wire, bounding box, shaded faces and
// per-instance items for active vertices, edges and faces.
package apimesh

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/geometry"
)

// ErrBadFace is returned for faces with fewer than three vertices or with
// indices outside the vertex list.
var ErrBadFace = errors.New("apimesh: bad face")

// Mesh is a polygon mesh node.
type Mesh struct {
	mu       sync.Mutex
	vertices []mgl32.Vec3
	faces    [][]uint32
	gen      uint64

	dirty *evalctx.Slot[bool]
}

// NewMesh creates a mesh. Faces index into vertices.
func NewMesh(vertices []mgl32.Vec3, faces [][]uint32) (*Mesh, error) {
	if err := validate(len(vertices), faces); err != nil {
		return nil, err
	}
	return &Mesh{
		vertices: slices.Clone(vertices),
		faces:    cloneFaces(faces),
		dirty:    evalctx.NewSlot(true),
	}, nil
}

// Cube returns a unit cube centered on the origin with six quad faces.
func Cube(size float32) *Mesh {
	h := size / 2
	verts := make([]mgl32.Vec3, 8)
	for i := range verts {
		for k := range 3 {
			if i&(1<<k) != 0 {
				verts[i][k] = h
			} else {
				verts[i][k] = -h
			}
		}
	}
	m, _ := NewMesh(verts, [][]uint32{
		{0, 2, 3, 1}, // -z
		{4, 5, 7, 6}, // +z
		{0, 1, 5, 4}, // -y
		{2, 6, 7, 3}, // +y
		{0, 4, 6, 2}, // -x
		{1, 3, 7, 5}, // +x
	})
	return m
}

func validate(n int, faces [][]uint32) error {
	for i, f := range faces {
		if len(f) < 3 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrBadFace, i, len(f))
		}
		for _, v := range f {
			if int(v) >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrBadFace, i, v, n)
			}
		}
	}
	return nil
}

func cloneFaces(faces [][]uint32) [][]uint32 {
	out := make([][]uint32, len(faces))
	for i, f := range faces {
		out[i] = slices.Clone(f)
	}
	return out
}

// SetVertices replaces the vertex positions. The count may change only if
// every face stays valid.
func (m *Mesh) SetVertices(vertices []mgl32.Vec3) error {
	m.mu.Lock()
	if err := validate(len(vertices), m.faces); err != nil {
		m.mu.Unlock()
		return err
	}
	m.vertices = slices.Clone(vertices)
	m.gen++
	m.mu.Unlock()

	m.dirty.Set(evalctx.Normal, true)
	return nil
}

// MoveVertex offsets one vertex.
func (m *Mesh) MoveVertex(i int, delta mgl32.Vec3) error {
	m.mu.Lock()
	if i < 0 || i >= len(m.vertices) {
		m.mu.Unlock()
		return fmt.Errorf("apimesh: vertex %d out of range", i)
	}
	m.vertices[i] = m.vertices[i].Add(delta)
	m.gen++
	m.mu.Unlock()

	m.dirty.Set(evalctx.Normal, true)
	return nil
}

// PostEvaluation marks the geometry of ec dirty after an evaluation that
// changed the mesh.
func (m *Mesh) PostEvaluation(ec evalctx.ID) {
	m.dirty.Set(ec, true)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vertices)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.faces)
}

// Bounds returns the bounds of the vertices.
func (m *Mesh) Bounds() geometry.Bounds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return geometry.BoundsOf(m.vertices)
}

// Shape returns the mesh as seen from ec.
func (m *Mesh) Shape(ec evalctx.ID) geometry.Shape {
	return &meshShape{mesh: m, ec: ec}
}

type meshShape struct {
	mesh *Mesh
	ec   evalctx.ID
}

func (s *meshShape) Context() evalctx.ID { return s.ec }

func (s *meshShape) Generation() uint64 {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	return s.mesh.gen
}

// Runs returns the vertex list as a single run.
func (s *meshShape) Runs() []geometry.Run {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	return []geometry.Run{slices.Clone(s.mesh.vertices)}
}

func (s *meshShape) Faces() [][]uint32 {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	return cloneFaces(s.mesh.faces)
}

func (s *meshShape) Scale() float32 { return 1 }

func (s *meshShape) NeedsUpdate() bool { return s.mesh.dirty.Get(s.ec) }

func (s *meshShape) ClearNeedsUpdate() { s.mesh.dirty.Set(s.ec, false) }
