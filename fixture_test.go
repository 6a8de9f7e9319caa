// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"errors"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

var (
	dormantColor = gpucore.RGBA(0.1, 0.2, 0.6, 1)
	activeColor  = gpucore.RGBA(1, 1, 1, 1)
	errGone      = errors.New("instance gone")
)

// testShape is a two-run outline: 17 points and 21 points, like a heel and
// a sole. It yields 36 line segments and 34 fan triangles.
type testShape struct {
	ctx   evalctx.ID
	gen   uint64
	scale float32
	dirty bool
}

func (s *testShape) Context() evalctx.ID { return s.ctx }
func (s *testShape) Generation() uint64  { return s.gen }
func (s *testShape) Scale() float32      { return s.scale }
func (s *testShape) NeedsUpdate() bool   { return s.dirty }
func (s *testShape) ClearNeedsUpdate()   { s.dirty = false }

func (s *testShape) Runs() []geometry.Run {
	return []geometry.Run{ring(17, 0.2), ring(21, 0.5)}
}

// touch marks a geometry change.
func (s *testShape) touch(scale float32) {
	s.scale = scale
	s.gen++
	s.dirty = true
}

func ring(n int, z float32) geometry.Run {
	r := make(geometry.Run, n)
	for i := range r {
		r[i] = mgl32.Vec3{float32(i) * 0.01, 0, z + float32(i%3)*0.02}
	}
	return r
}

type testNode struct {
	shapes map[evalctx.ID]*testShape
}

func newTestNode() *testNode {
	return &testNode{shapes: map[evalctx.ID]*testShape{
		evalctx.Normal:     {ctx: evalctx.Normal, scale: 1, dirty: true},
		evalctx.Background: {ctx: evalctx.Background, scale: 1, dirty: true},
	}}
}

func (n *testNode) Shape(ec evalctx.ID) geometry.Shape {
	s, ok := n.shapes[ec]
	if !ok {
		return nil
	}
	return s
}

// testHost is a mutable host with optional topology notifications.
type testHost struct {
	mu       sync.Mutex
	refs     []InstanceRef
	states   map[instance.Key]DisplayState
	failKeys map[instance.Key]bool
	err      error

	added, removed func(instance.Key)
	cancelled      bool
}

func newTestHost(keys ...instance.Key) *testHost {
	h := &testHost{
		states:   make(map[instance.Key]DisplayState),
		failKeys: make(map[instance.Key]bool),
	}
	for _, k := range keys {
		h.add(k)
	}
	return h
}

func (h *testHost) add(k instance.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs = append(h.refs, InstanceRef{Key: k, Transform: mgl32.Translate3D(float32(k), 0, 0)})
	h.states[k] = DisplayState{Status: instance.StatusDormant, Color: dormantColor}
}

func (h *testHost) hide(k instance.Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs = slices.DeleteFunc(h.refs, func(r InstanceRef) bool { return r.Key == k })
}

func (h *testHost) set(k instance.Key, ds DisplayState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states[k] = ds
}

func (h *testHost) move(k instance.Key, m mgl32.Mat4) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.refs {
		if h.refs[i].Key == k {
			h.refs[i].Transform = m
		}
	}
}

func (h *testHost) Instances() ([]InstanceRef, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return nil, h.err
	}
	return slices.Clone(h.refs), nil
}

func (h *testHost) DisplayState(k instance.Key) (DisplayState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failKeys[k] {
		return DisplayState{}, errGone
	}
	ds, ok := h.states[k]
	if !ok {
		return DisplayState{}, errGone
	}
	return ds, nil
}

// notifyingHost adds topology notifications to testHost.
type notifyingHost struct {
	*testHost
}

func (h notifyingHost) Subscribe(added, removed func(instance.Key)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added, h.removed = added, removed
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.cancelled = true
		h.added, h.removed = nil, nil
	}
}

func (h notifyingHost) fireRemoved(k instance.Key) {
	h.mu.Lock()
	fn := h.removed
	h.mu.Unlock()
	if fn != nil {
		fn(k)
	}
}

// testLayout draws an outline and a fan for every instance, plus a fat
// point item on the selected outline points of an instance.
type testLayout struct {
	panicOnItems bool
}

const (
	wiresName  = "wires"
	trisName   = "tris"
	pointsName = "points"
)

func (l *testLayout) Items(st instance.DrawState) []ItemSpec {
	if l.panicOnItems {
		panic("layout exploded")
	}
	specs := []ItemSpec{
		{
			Name:    wiresName,
			Kind:    item.Lines,
			Mode:    item.Wireframe,
			Shader:  shader.SolidFingerprint(st.Color),
			Depth:   item.PriorityFor(st.Status),
			Stream:  "outline",
			Enabled: true,
		},
		{
			Name:    trisName,
			Kind:    item.Triangles,
			Mode:    item.Shaded | item.Textured,
			Shader:  shader.SolidFingerprint(st.Color),
			Depth:   item.PriorityFor(st.Status),
			Stream:  "fan",
			Enabled: true,
		},
	}
	if len(st.Selected) > 0 {
		specs = append(specs, ItemSpec{
			Name:        pointsName,
			Kind:        item.Points,
			Mode:        item.AllModes,
			Shader:      shader.FatPointFingerprint(activeColor, 4),
			Depth:       item.ActivePoint,
			Stream:      "selected",
			PerInstance: true,
			Enabled:     true,
		})
	}
	return specs
}

func (l *testLayout) Stream(name string, view *geometry.View, st instance.DrawState) StreamData {
	switch name {
	case "outline":
		return StreamData{Indices: geometry.LineIndices(view.Runs)}
	case "fan":
		return StreamData{Indices: geometry.FanIndices(view.Runs)}
	case "selected":
		idx := make([]uint32, 0, len(st.Selected))
		for _, i := range st.Selected {
			if i >= 0 && i < len(view.Positions) {
				idx = append(idx, uint32(i))
			}
		}
		return StreamData{Indices: idx}
	}
	return StreamData{}
}
