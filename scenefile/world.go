// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"fmt"
	"slices"

	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/apimesh"
	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/footprint"
)

type worldShape struct {
	desc Shape
	host *Host
	foot *footprint.Node
	mesh *apimesh.Mesh
	ov   *subscene.Override
}

// World registers the shapes of a scene with a plugin and applies later
// versions of the scene as edits.
type World struct {
	plugin *subscene.Plugin
	opts   []subscene.OverrideOption
	shapes map[string]*worldShape
}

// NewWorld registers every shape of sc with p.
func NewWorld(p *subscene.Plugin, sc *Scene, opts ...subscene.OverrideOption) (*World, error) {
	w := &World{
		plugin: p,
		opts:   opts,
		shapes: make(map[string]*worldShape),
	}
	if err := w.Apply(sc); err != nil {
		return nil, err
	}
	return w, nil
}

// Apply brings the world in line with sc. Removed shapes are deregistered,
// new shapes registered. Existing shapes receive size and instance edits;
// a shape whose type or mesh data changed is recreated.
func (w *World) Apply(sc *Scene) error {
	for name := range w.shapes {
		if _, ok := sc.Find(name); !ok {
			if err := w.plugin.Deregister(name); err != nil {
				return err
			}
			delete(w.shapes, name)
		}
	}

	for i := range sc.Shapes {
		desc := sc.Shapes[i]
		ws, ok := w.shapes[desc.Name]
		if ok && !sameTopology(ws.desc, desc) {
			if err := w.plugin.Deregister(desc.Name); err != nil {
				return err
			}
			delete(w.shapes, desc.Name)
			ok = false
		}
		if !ok {
			if err := w.add(desc); err != nil {
				return err
			}
			continue
		}
		if err := w.edit(ws, desc); err != nil {
			return err
		}
	}
	return nil
}

func sameTopology(a, b Shape) bool {
	if a.Type != b.Type || a.ShowBounds != b.ShowBounds {
		return false
	}
	if a.Type == TypeCube && a.SizeOr(1) != b.SizeOr(1) {
		return false
	}
	return slices.Equal(a.Vertices, b.Vertices) && slices.EqualFunc(a.Faces, b.Faces, slices.Equal[[]uint32])
}

func (w *World) add(desc Shape) error {
	host, err := NewHost(&desc)
	if err != nil {
		return err
	}
	ws := &worldShape{desc: desc, host: host}

	switch desc.Type {
	case TypeFootprint:
		ws.foot = footprint.NewNode()
		ws.foot.SetSize(desc.SizeOr(footprint.DefaultSize))
		ws.ov, err = footprint.Register(w.plugin, desc.Name, ws.foot, host, w.opts...)
	default:
		ws.mesh, err = desc.mesh()
		if err != nil {
			return fmt.Errorf("scenefile: shape %q: %w", desc.Name, err)
		}
		l := apimesh.DefaultLayout()
		l.ShowBounds = desc.ShowBounds
		ws.ov, err = apimesh.Register(w.plugin, desc.Name, ws.mesh, host, l, w.opts...)
	}
	if err != nil {
		return err
	}
	w.shapes[desc.Name] = ws
	return nil
}

func (w *World) edit(ws *worldShape, desc Shape) error {
	if ws.foot != nil {
		ws.foot.SetSize(desc.SizeOr(footprint.DefaultSize))
	}
	if err := ws.host.Set(desc.Instances); err != nil {
		return err
	}
	ws.desc = desc
	return nil
}

// Update runs one synchronization cycle for every shape.
func (w *World) Update(ec evalctx.ID) []subscene.Report {
	return w.plugin.Update(ec)
}

// Override returns the override of a shape.
func (w *World) Override(name string) (*subscene.Override, bool) {
	ws, ok := w.shapes[name]
	if !ok {
		return nil, false
	}
	return ws.ov, true
}

// Shapes returns the shape names, sorted.
func (w *World) Shapes() []string {
	names := make([]string, 0, len(w.shapes))
	for name := range w.shapes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
