// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scenefile loads a scene description from TOML and keeps a set of
// overrides in step with it.
//
// A scene lists shapes; each shape lists its visible instances with their
// display status, wireframe color, transform and component selection:
//
//	[[shape]]
//	name = "footPrint1"
//	type = "footprint"
//	size = 1.5
//
//	  [[shape.instance]]
//	  key = 1
//	  status = "lead"
//	  color = [1.0, 1.0, 1.0]
//	  translate = [2.0, 0.0, 0.0]
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/apimesh"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
)

// Shape types.
const (
	TypeFootprint = "footprint"
	TypeCube      = "cube"
	TypeMesh      = "mesh"
)

// ErrInvalidScene is returned for scenes that parse but do not validate.
var ErrInvalidScene = errors.New("scenefile: invalid scene")

// Scene is a parsed scene file.
type Scene struct {
	Shapes []Shape `toml:"shape"`
}

// Shape describes one logical shape.
type Shape struct {
	Name string  `toml:"name"`
	Type string  `toml:"type"`
	Size float32 `toml:"size"`

	// Mesh data for type "mesh".
	Vertices [][3]float32 `toml:"vertices"`
	Faces    [][]uint32   `toml:"faces"`

	// ShowBounds adds a bounding box item to meshes.
	ShowBounds bool `toml:"show_bounds"`

	Instances []Instance `toml:"instance"`
}

// Instance describes one visible instance of a shape.
type Instance struct {
	Key       uint32     `toml:"key"`
	Status    string     `toml:"status"`
	Color     []float32  `toml:"color"`
	Translate [3]float32 `toml:"translate"`
	RotateY   float32    `toml:"rotate_y"`
	Scale     float32    `toml:"scale"`

	// Selected lists raw selection entries.
	Selected []int `toml:"selected"`

	// Component selection for meshes.
	Vertices []int `toml:"vertices"`
	Edges    []int `toml:"edges"`
	Faces    []int `toml:"faces"`
}

// Parse decodes and validates a scene.
func Parse(data []byte) (*Scene, error) {
	var sc Scene
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	return Parse(data)
}

// Marshal encodes sc as TOML.
func Marshal(sc *Scene) ([]byte, error) {
	return toml.Marshal(sc)
}

// Validate checks names, types, statuses and colors.
func (sc *Scene) Validate() error {
	seen := make(map[string]bool, len(sc.Shapes))
	for i := range sc.Shapes {
		s := &sc.Shapes[i]
		if s.Name == "" {
			return fmt.Errorf("%w: shape %d has no name", ErrInvalidScene, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate shape %q", ErrInvalidScene, s.Name)
		}
		seen[s.Name] = true

		switch s.Type {
		case TypeFootprint, TypeCube:
		case TypeMesh:
			if _, err := s.mesh(); err != nil {
				return fmt.Errorf("%w: shape %q: %w", ErrInvalidScene, s.Name, err)
			}
		default:
			return fmt.Errorf("%w: shape %q has unknown type %q", ErrInvalidScene, s.Name, s.Type)
		}

		keys := make(map[uint32]bool, len(s.Instances))
		for _, in := range s.Instances {
			if instance.Key(in.Key) == instance.InvalidKey {
				return fmt.Errorf("%w: shape %q: reserved instance key", ErrInvalidScene, s.Name)
			}
			if keys[in.Key] {
				return fmt.Errorf("%w: shape %q: duplicate instance %d", ErrInvalidScene, s.Name, in.Key)
			}
			keys[in.Key] = true
			if _, err := in.DisplayState(); err != nil {
				return fmt.Errorf("%w: shape %q instance %d: %w", ErrInvalidScene, s.Name, in.Key, err)
			}
		}
	}
	return nil
}

// Find returns the shape with the given name.
func (sc *Scene) Find(name string) (*Shape, bool) {
	for i := range sc.Shapes {
		if sc.Shapes[i].Name == name {
			return &sc.Shapes[i], true
		}
	}
	return nil, false
}

// SizeOr returns the shape size, or def when unset.
func (s *Shape) SizeOr(def float32) float32 {
	if s.Size == 0 {
		return def
	}
	return s.Size
}

func (s *Shape) mesh() (*apimesh.Mesh, error) {
	if s.Type == TypeCube {
		return apimesh.Cube(s.SizeOr(1)), nil
	}
	verts := make([]mgl32.Vec3, len(s.Vertices))
	for i, v := range s.Vertices {
		verts[i] = mgl32.Vec3(v)
	}
	return apimesh.NewMesh(verts, s.Faces)
}

// DisplayState converts the instance description.
func (in Instance) DisplayState() (subscene.DisplayState, error) {
	status := instance.StatusDormant
	if in.Status != "" {
		st, ok := instance.ParseStatus(in.Status)
		if !ok {
			return subscene.DisplayState{}, fmt.Errorf("unknown status %q", in.Status)
		}
		status = st
	}
	color, err := parseColor(in.Color)
	if err != nil {
		return subscene.DisplayState{}, err
	}

	sel := append([]int(nil), in.Selected...)
	for _, v := range in.Vertices {
		sel = append(sel, apimesh.Component(apimesh.VertexComponent, v))
	}
	for _, e := range in.Edges {
		sel = append(sel, apimesh.Component(apimesh.EdgeComponent, e))
	}
	for _, f := range in.Faces {
		sel = append(sel, apimesh.Component(apimesh.FaceComponent, f))
	}
	return subscene.DisplayState{Status: status, Color: color, Selected: sel}, nil
}

// Transform returns the world transform: scale, then rotation about Y,
// then translation.
func (in Instance) Transform() mgl32.Mat4 {
	scale := in.Scale
	if scale == 0 {
		scale = 1
	}
	t := mgl32.Translate3D(in.Translate[0], in.Translate[1], in.Translate[2])
	r := mgl32.HomogRotate3DY(mgl32.DegToRad(in.RotateY))
	return t.Mul4(r).Mul4(mgl32.Scale3D(scale, scale, scale))
}

// DefaultColor is the wireframe color of instances without one.
var DefaultColor = gpucore.RGBA(0, 0.016, 0.376, 1)

func parseColor(c []float32) (gpucore.Color, error) {
	switch len(c) {
	case 0:
		return DefaultColor, nil
	case 3:
		return gpucore.RGBA(c[0], c[1], c[2], 1), nil
	case 4:
		return gpucore.RGBA(c[0], c[1], c[2], c[3]), nil
	default:
		return gpucore.Color{}, fmt.Errorf("color needs 3 or 4 components, got %d", len(c))
	}
}
