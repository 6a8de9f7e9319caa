// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/backend/memory"
	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

type harness struct {
	ov      *Override
	adapter *memory.Adapter
	node    *testNode
	layout  *testLayout
}

func newHarness(t *testing.T, host Host, opts ...OverrideOption) *harness {
	t.Helper()
	h := &harness{
		adapter: memory.New(),
		node:    newTestNode(),
		layout:  &testLayout{},
	}
	ov, err := NewOverride("shape1", h.node, host, h.layout, h.adapter, nil, opts...)
	if err != nil {
		t.Fatalf("NewOverride failed: %v", err)
	}
	h.ov = ov
	return h
}

// update runs one Normal cycle and returns its report together with the
// adapter mutations it caused.
func (h *harness) update(t *testing.T) (Report, memory.Counters) {
	t.Helper()
	before := h.adapter.Counters()
	rep := h.ov.Update(evalctx.Normal)
	return rep, h.adapter.Counters().Sub(before)
}

func (h *harness) item(t *testing.T, name string) item.Item {
	t.Helper()
	it, err := h.ov.Item(name)
	if err != nil {
		t.Fatalf("Item(%q): %v", name, err)
	}
	return it
}

func TestNewOverrideValidation(t *testing.T) {
	a := memory.New()
	host := newTestHost(1)
	if _, err := NewOverride("x", nil, host, &testLayout{}, a, nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("nil node: got %v, want ErrNilNode", err)
	}
	if _, err := NewOverride("x", newTestNode(), host, &testLayout{}, nil, nil); !errors.Is(err, ErrResourceUnavailable) {
		t.Errorf("nil adapter: got %v, want ErrResourceUnavailable", err)
	}
	empty := &testNode{}
	if _, err := NewOverride("x", empty, host, &testLayout{}, a, nil); !errors.Is(err, ErrInvalidHostHandle) {
		t.Errorf("shapeless node: got %v, want ErrInvalidHostHandle", err)
	}
}

func TestUpdateFirstCycle(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))

	rep, c := h.update(t)
	if rep.Err != nil {
		t.Fatalf("unexpected error: %v", rep.Err)
	}
	want := []State{Idle, StructuralCheckPending, StructuralUpdate, GeometryCheckPending, GeometryUpdate, Idle}
	if !slices.Equal(rep.Path, want) {
		t.Errorf("path = %v, want %v", rep.Path, want)
	}
	if rep.Visible != 2 || rep.Structural != 2 {
		t.Errorf("visible/structural = %d/%d, want 2/2", rep.Visible, rep.Structural)
	}
	if rep.ItemsCreated != 4 {
		t.Errorf("items created = %d, want 4", rep.ItemsCreated)
	}
	if !rep.GeometryRebuilt {
		t.Error("first cycle should build geometry")
	}
	// positions plus the shared outline and fan index streams
	if c.BufferCreates != 3 || c.BufferWrites != 3 {
		t.Errorf("buffer creates/writes = %d/%d, want 3/3", c.BufferCreates, c.BufferWrites)
	}
	// Both instances share one color, so one shader instance.
	if c.ShaderAcquires != 1 {
		t.Errorf("shader acquires = %d, want 1", c.ShaderAcquires)
	}

	for _, it := range h.ov.Items() {
		if !it.Enabled || !it.Bound() {
			t.Errorf("item %s: enabled=%v bound=%v", it.Name, it.Enabled, it.Bound())
		}
	}
}

func TestUpdateOutlineCounts(t *testing.T) {
	h := newHarness(t, newTestHost(1))
	h.update(t)

	wires := h.item(t, item.InstanceName(wiresName, 1))
	if wires.Kind != item.Lines || wires.Primitives() != 36 {
		t.Errorf("wires: kind %v, %d primitives, want lines/36", wires.Kind, wires.Primitives())
	}
	if wires.IndexCount != 72 {
		t.Errorf("wires index count = %d, want 72", wires.IndexCount)
	}
	tris := h.item(t, item.InstanceName(trisName, 1))
	if tris.Kind != item.Triangles || tris.Primitives() != 34 {
		t.Errorf("tris: kind %v, %d primitives, want triangles/34", tris.Kind, tris.Primitives())
	}
	if tris.Mode != item.Shaded|item.Textured {
		t.Errorf("tris mode = %v", tris.Mode)
	}

	b, ok := h.adapter.Buffer(wires.VertexBuffer)
	if !ok || len(b.Data) != 38*12 {
		t.Errorf("position buffer = %d bytes, want %d", len(b.Data), 38*12)
	}
	if wires.VertexBuffer != tris.VertexBuffer {
		t.Error("items of one shape should share the position buffer")
	}
}

func TestUpdateSecondCycleIsIdle(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2, 3))
	h.update(t)
	before := h.ov.Items()

	for i := range 3 {
		rep, c := h.update(t)
		if c.Total() != 0 {
			t.Fatalf("cycle %d: %d mutations, want 0 (%+v)", i+2, c.Total(), c)
		}
		if !slices.Equal(rep.Path, []State{Idle, StructuralCheckPending, Idle}) {
			t.Errorf("cycle %d: path = %v", i+2, rep.Path)
		}
		if rep.Structural != 0 || rep.GeometryUpdated || rep.Mutations() != 0 {
			t.Errorf("cycle %d: report %+v should be idle", i+2, rep)
		}
	}
	if !reflect.DeepEqual(before, h.ov.Items()) {
		t.Error("items changed on an idle cycle")
	}
}

func TestUpdateNoInstances(t *testing.T) {
	h := newHarness(t, newTestHost())
	rep, _ := h.update(t)
	if len(h.ov.Items()) != 0 {
		t.Errorf("got %d items, want 0", len(h.ov.Items()))
	}
	// Geometry is still refreshed because the shape starts dirty.
	if !rep.GeometryUpdated {
		t.Error("dirty shape should enter GeometryUpdate")
	}
	rep, c := h.update(t)
	if c.Total() != 0 || !slices.Equal(rep.Path, []State{Idle}) {
		t.Errorf("second empty cycle: path %v, %d mutations", rep.Path, c.Total())
	}
}

func TestUpdateSelectionTouchesOnlyThatInstance(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)
	bWires := h.item(t, item.InstanceName(wiresName, 2))
	bTris := h.item(t, item.InstanceName(trisName, 2))

	host.set(1, DisplayState{Status: instance.StatusActive, Color: activeColor, Selected: []int{5, 2, 5}})
	rep, c := h.update(t)

	if rep.Structural != 1 {
		t.Errorf("structural = %d, want 1", rep.Structural)
	}
	if rep.ItemsUpdated != 2 || rep.ItemsCreated != 1 {
		t.Errorf("updated/created = %d/%d, want 2/1", rep.ItemsUpdated, rep.ItemsCreated)
	}
	// Only the selection stream of instance 1 is new.
	if c.BufferCreates != 1 || c.BufferWrites != 1 || c.BufferDestroys != 0 {
		t.Errorf("buffer mutations = %+v, want one create and one write", c)
	}
	if c.ShaderAcquires != 2 {
		t.Errorf("shader acquires = %d, want 2 (active solid, fat point)", c.ShaderAcquires)
	}

	aWires := h.item(t, item.InstanceName(wiresName, 1))
	if aWires.Depth != item.ActiveWire {
		t.Errorf("active depth = %v, want %v", aWires.Depth, item.ActiveWire)
	}
	points := h.item(t, item.InstanceName(pointsName, 1))
	if points.IndexCount != 2 {
		t.Errorf("selected points = %d, want 2", points.IndexCount)
	}
	if got := h.item(t, item.InstanceName(wiresName, 2)); !reflect.DeepEqual(got, bWires) {
		t.Errorf("untouched instance wires changed:\n got %+v\nwant %+v", got, bWires)
	}
	if got := h.item(t, item.InstanceName(trisName, 2)); !reflect.DeepEqual(got, bTris) {
		t.Errorf("untouched instance tris changed")
	}
	if _, err := h.ov.Item(item.InstanceName(pointsName, 2)); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("instance 2 has no selection, got %v", err)
	}

	// Deselect: the per-instance item and its stream go away.
	host.set(1, DisplayState{Status: instance.StatusDormant, Color: dormantColor})
	rep, c = h.update(t)
	if rep.ItemsRemoved != 1 {
		t.Errorf("items removed = %d, want 1", rep.ItemsRemoved)
	}
	if c.BufferDestroys != 1 {
		t.Errorf("buffer destroys = %d, want 1", c.BufferDestroys)
	}
}

func TestUpdateShaderParameters(t *testing.T) {
	host := newTestHost(1)
	host.set(1, DisplayState{Status: instance.StatusDormant, Color: gpucore.RGBA(0.1, 0.2, 0.6, 0.25)})
	h := newHarness(t, host)
	h.update(t)

	wires := h.item(t, item.InstanceName(wiresName, 1))
	got, ok := h.adapter.ShaderParam(wires.Shader, "solidColor")
	if !ok {
		t.Fatal("solidColor not set")
	}
	if got[3] != 1 {
		t.Errorf("alpha = %v, want forced to 1", got[3])
	}
	if got[0] != dormantColor.R || got[2] != dormantColor.B {
		t.Errorf("solidColor = %v", got)
	}
}

func TestUpdateTransformOnly(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)

	m := mgl32.Translate3D(9, 0, 0)
	host.move(2, m)
	rep, c := h.update(t)

	if rep.Transforms != 1 || rep.Structural != 0 {
		t.Errorf("transforms/structural = %d/%d, want 1/0", rep.Transforms, rep.Structural)
	}
	if c.Total() != 0 {
		t.Errorf("transform change caused %d mutations", c.Total())
	}
	if got := h.item(t, item.InstanceName(wiresName, 2)).Transform; got != m {
		t.Errorf("transform = %v, want %v", got, m)
	}
	if rep.GeometryUpdated {
		t.Error("transform change should not enter GeometryUpdate")
	}
}

func TestUpdateGeometryChange(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))
	h.update(t)

	h.node.shapes[evalctx.Normal].touch(2)
	rep, c := h.update(t)

	if !rep.GeometryRebuilt {
		t.Fatal("generation bump should rebuild geometry")
	}
	if rep.Structural != 0 || rep.ItemsCreated != 0 || rep.ItemsUpdated != 0 {
		t.Errorf("geometry change touched items: %+v", rep)
	}
	// Same vertex count: the position buffer is reused and rewritten,
	// index streams are unchanged.
	if c.BufferCreates != 0 || c.BufferWrites != 1 {
		t.Errorf("buffer creates/writes = %d/%d, want 0/1", c.BufferCreates, c.BufferWrites)
	}
	if h.ov.Geometry().Generation != 1 {
		t.Errorf("cached generation = %d, want 1", h.ov.Geometry().Generation)
	}
	if h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("dirty flag should be cleared after GeometryUpdate")
	}
}

func TestUpdateDirtyWithoutGenerationChange(t *testing.T) {
	h := newHarness(t, newTestHost(1))
	h.update(t)

	h.node.shapes[evalctx.Normal].dirty = true
	rep, c := h.update(t)
	if !rep.GeometryUpdated || rep.GeometryRebuilt {
		t.Errorf("updated/rebuilt = %v/%v, want true/false", rep.GeometryUpdated, rep.GeometryRebuilt)
	}
	if c.Total() != 0 {
		t.Errorf("%d mutations, want 0", c.Total())
	}
}

func TestUpdateBackgroundContext(t *testing.T) {
	h := newHarness(t, newTestHost(1))
	rep := h.ov.Update(evalctx.Background)
	if rep.Context != evalctx.Background {
		t.Errorf("context = %v", rep.Context)
	}
	if h.node.shapes[evalctx.Background].dirty {
		t.Error("background dirty flag should be cleared")
	}
	if !h.node.shapes[evalctx.Normal].dirty {
		t.Error("normal dirty flag must not be touched by a background cycle")
	}
}

func TestInstanceAddedInvalidatesAll(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)

	host.add(3)
	h.ov.InstanceAdded(3)
	rep, c := h.update(t)

	if rep.Structural != 3 {
		t.Errorf("structural = %d, want every visible instance", rep.Structural)
	}
	if rep.ItemsCreated != 2 || rep.ItemsUpdated != 0 {
		t.Errorf("created/updated = %d/%d, want 2/0", rep.ItemsCreated, rep.ItemsUpdated)
	}
	if c.Total() != 0 {
		t.Errorf("shared streams were rewritten: %+v", c)
	}
	if w := h.item(t, item.InstanceName(wiresName, 3)); !w.Bound() {
		t.Error("new instance items should be bound")
	}
}

func TestInstanceRemovedPrunes(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)

	host.hide(2)
	h.ov.InstanceRemoved(2)
	if !h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("pending removal should require an update")
	}
	rep, _ := h.update(t)

	if rep.Pruned != 1 || rep.ItemsRemoved != 2 {
		t.Errorf("pruned/removed = %d/%d, want 1/2", rep.Pruned, rep.ItemsRemoved)
	}
	for _, it := range h.ov.Items() {
		if it.Instance == 2 {
			t.Errorf("item %s of removed instance survived", it.Name)
		}
	}
	if len(h.ov.Items()) != 2 {
		t.Errorf("got %d items, want 2", len(h.ov.Items()))
	}
}

func TestHiddenInstanceIsDisabled(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)

	host.hide(2)
	if !h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("hidden instance with enabled items should require an update")
	}
	rep, c := h.update(t)
	if rep.Hidden != 1 || rep.Pruned != 0 {
		t.Errorf("hidden/pruned = %d/%d, want 1/0", rep.Hidden, rep.Pruned)
	}
	if c.Total() != 0 {
		t.Errorf("hiding caused %d mutations", c.Total())
	}
	if h.item(t, item.InstanceName(wiresName, 2)).Enabled {
		t.Error("hidden instance items should be disabled")
	}
	if h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("nothing to do once hidden")
	}

	host.add(2)
	rep, _ = h.update(t)
	if rep.Structural != 1 || rep.ItemsUpdated != 2 {
		t.Errorf("structural/updated = %d/%d, want 1/2", rep.Structural, rep.ItemsUpdated)
	}
	if !h.item(t, item.InstanceName(wiresName, 2)).Enabled {
		t.Error("shown instance should be enabled again")
	}
}

func TestHiddenInstanceKeepsBuffers(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	host.set(2, DisplayState{Status: instance.StatusActive, Color: activeColor, Selected: []int{3, 4}})
	h.update(t)
	before := h.item(t, item.InstanceName(pointsName, 2))
	if before.IndexCount != 2 || before.IndexBuffer == gpucore.InvalidID {
		t.Fatalf("selected points = %+v", before)
	}

	host.hide(2)
	h.update(t)

	// A change on another instance runs GeometryUpdate; the hidden
	// instance's selection stream must be left alone.
	host.set(1, DisplayState{Status: instance.StatusActive, Color: activeColor})
	rep, c := h.update(t)
	if !rep.GeometryUpdated {
		t.Fatal("structural change should run the geometry pass")
	}
	if c.BufferCreates+c.BufferWrites+c.BufferDestroys != 0 {
		t.Errorf("buffer mutations = %+v, want none", c)
	}
	got := h.item(t, item.InstanceName(pointsName, 2))
	if got.Enabled || got.IndexBuffer != before.IndexBuffer || got.IndexCount != before.IndexCount {
		t.Errorf("hidden points changed:\n got %+v\nwant disabled %+v", got, before)
	}

	host.add(2)
	host.set(2, DisplayState{Status: instance.StatusActive, Color: activeColor, Selected: []int{3, 4}})
	_, c = h.update(t)
	if c.BufferCreates+c.BufferWrites+c.BufferDestroys != 0 {
		t.Errorf("showing again rewrote buffers: %+v", c)
	}
	if got := h.item(t, item.InstanceName(pointsName, 2)); !got.Enabled || got.IndexBuffer != before.IndexBuffer {
		t.Errorf("shown points = %+v", got)
	}
}

func TestRequiresUpdateIsPure(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)

	if !h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("fresh override should require an update")
	}
	h.update(t)
	for range 3 {
		if h.ov.RequiresUpdate(evalctx.Normal) {
			t.Fatal("synchronized override should not require an update")
		}
	}

	before := h.adapter.Mutations()
	host.set(1, DisplayState{Status: instance.StatusLead, Color: activeColor})
	for range 3 {
		if !h.ov.RequiresUpdate(evalctx.Normal) {
			t.Fatal("status change should require an update")
		}
	}
	if h.adapter.Mutations() != before {
		t.Error("RequiresUpdate mutated GPU resources")
	}
	h.update(t)
	if h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("update should consume the change")
	}
}

func TestInvalidKeyIsIgnored(t *testing.T) {
	host := newTestHost(1, instance.InvalidKey)
	h := newHarness(t, host)

	rep, _ := h.update(t)
	if rep.Skipped != 1 || rep.Visible != 1 {
		t.Errorf("skipped/visible = %d/%d, want 1/1", rep.Skipped, rep.Visible)
	}
	rep, c := h.update(t)
	if rep.Structural != 0 || c.Total() != 0 {
		t.Errorf("second cycle: structural %d, mutations %+v", rep.Structural, c)
	}
	if h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("an invalid key the cycle skips should not require an update")
	}
}

func TestBufferFailureDefersAndRetries(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))
	h.adapter.FailBuffers(true)

	rep, _ := h.update(t)
	if !errors.Is(rep.Err, ErrResourceUnavailable) {
		t.Fatalf("err = %v, want ErrResourceUnavailable", rep.Err)
	}
	if rep.Deferred != 4 {
		t.Errorf("deferred = %d, want 4", rep.Deferred)
	}
	for _, it := range h.ov.Items() {
		if it.Enabled || it.Bound() {
			t.Errorf("item %s should be disabled and unbound", it.Name)
		}
	}
	if !h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("deferred items should require an update")
	}

	h.adapter.FailBuffers(false)
	rep, _ = h.update(t)
	if rep.Err != nil {
		t.Fatalf("retry failed: %v", rep.Err)
	}
	if rep.Structural != 2 {
		t.Errorf("structural = %d, want 2", rep.Structural)
	}
	for _, it := range h.ov.Items() {
		if !it.Enabled || !it.Bound() {
			t.Errorf("item %s not recovered", it.Name)
		}
	}
	if _, c := h.update(t); c.Total() != 0 {
		t.Errorf("cycle after recovery: %d mutations", c.Total())
	}
}

func TestShaderFailureDefersAndRetries(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))
	h.adapter.FailShaders(true)

	rep, _ := h.update(t)
	if !errors.Is(rep.Err, ErrResourceUnavailable) {
		t.Fatalf("err = %v, want ErrResourceUnavailable", rep.Err)
	}
	if rep.ItemsCreated != 0 || rep.Deferred != 4 {
		t.Errorf("created/deferred = %d/%d, want 0/4", rep.ItemsCreated, rep.Deferred)
	}

	h.adapter.FailShaders(false)
	rep, _ = h.update(t)
	if rep.Err != nil || rep.ItemsCreated != 4 {
		t.Errorf("retry: err %v, created %d", rep.Err, rep.ItemsCreated)
	}
}

func TestInstancesErrorRequeuesTopology(t *testing.T) {
	host := newTestHost(1, 2)
	h := newHarness(t, host)
	h.update(t)

	host.hide(2)
	h.ov.InstanceRemoved(2)
	host.err = errors.New("scene locked")

	rep, c := h.update(t)
	if !errors.Is(rep.Err, ErrInvalidHostHandle) {
		t.Errorf("err = %v, want ErrInvalidHostHandle", rep.Err)
	}
	if c.Total() != 0 || len(h.ov.Items()) != 4 {
		t.Error("failed enumeration must not touch items")
	}

	host.err = nil
	rep, _ = h.update(t)
	if rep.Pruned != 1 {
		t.Errorf("removal lost across a failed cycle: pruned = %d", rep.Pruned)
	}
}

func TestDisplayStateErrorSkipsInstance(t *testing.T) {
	host := newTestHost(1, 2)
	host.failKeys[2] = true
	h := newHarness(t, host)

	rep, _ := h.update(t)
	if rep.Skipped != 1 || rep.Visible != 1 {
		t.Errorf("skipped/visible = %d/%d, want 1/1", rep.Skipped, rep.Visible)
	}
	if !errors.Is(rep.Err, ErrInvalidHostHandle) {
		t.Errorf("err = %v, want ErrInvalidHostHandle", rep.Err)
	}
	if len(h.ov.Items()) != 2 {
		t.Errorf("got %d items, want 2", len(h.ov.Items()))
	}

	delete(host.failKeys, 2)
	rep, _ = h.update(t)
	if rep.Structural != 1 || rep.ItemsCreated != 2 {
		t.Errorf("structural/created = %d/%d, want 1/2", rep.Structural, rep.ItemsCreated)
	}
}

func TestUpdateRecoversPanic(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))
	h.update(t)

	h.layout.panicOnItems = true
	// A structural change makes the next cycle consult the layout.
	h.ov.InstanceAdded(7)

	var rep Report
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Update panicked: %v", r)
			}
		}()
		rep = h.ov.Update(evalctx.Normal)
	}()
	if !errors.Is(rep.Err, ErrSyncPanic) {
		t.Fatalf("err = %v, want ErrSyncPanic", rep.Err)
	}

	h.layout.panicOnItems = false
	rep, _ = h.update(t)
	if rep.Err != nil {
		t.Fatalf("recovery cycle failed: %v", rep.Err)
	}
	if rep.Structural != 2 || !rep.GeometryUpdated {
		t.Errorf("recovery cycle should resynchronize everything: %+v", rep)
	}
}

func TestNotifierSubscription(t *testing.T) {
	nh := notifyingHost{newTestHost(1, 2)}
	h := newHarness(t, nh)
	h.update(t)

	nh.hide(2)
	nh.fireRemoved(2)
	rep, _ := h.update(t)
	if rep.Pruned != 1 {
		t.Errorf("pruned = %d, want 1", rep.Pruned)
	}

	if err := h.ov.Close(); err != nil {
		t.Fatal(err)
	}
	if !nh.cancelled {
		t.Error("Close should cancel the subscription")
	}
}

func TestCloseReleasesResources(t *testing.T) {
	h := newHarness(t, newTestHost(1, 2))
	h.update(t)
	if h.adapter.LiveBuffers() == 0 || h.adapter.LiveShaders() == 0 {
		t.Fatal("expected live resources after sync")
	}

	if err := h.ov.Close(); err != nil {
		t.Fatal(err)
	}
	if n := h.adapter.LiveBuffers(); n != 0 {
		t.Errorf("%d buffers leaked", n)
	}
	// No shader cache was passed, so the private one is released too.
	if n := h.adapter.LiveShaders(); n != 0 {
		t.Errorf("%d shaders leaked", n)
	}
	if !h.ov.IsClosed() {
		t.Error("IsClosed = false after Close")
	}
	if err := h.ov.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	rep := h.ov.Update(evalctx.Normal)
	if !errors.Is(rep.Err, ErrOverrideClosed) {
		t.Errorf("Update after Close: %v", rep.Err)
	}
	if h.ov.RequiresUpdate(evalctx.Normal) {
		t.Error("closed override never requires an update")
	}
}

func TestSharedShaderCache(t *testing.T) {
	a := memory.New()
	cache := shader.NewCache(a)

	ov1, err := NewOverride("a", newTestNode(), newTestHost(1), &testLayout{}, a, cache)
	if err != nil {
		t.Fatal(err)
	}
	ov2, err := NewOverride("b", newTestNode(), newTestHost(1), &testLayout{}, a, cache)
	if err != nil {
		t.Fatal(err)
	}
	ov1.Update(evalctx.Normal)
	ov2.Update(evalctx.Normal)

	if a.Counters().ShaderAcquires != 1 {
		t.Errorf("shader acquires = %d, want 1 shared instance", a.Counters().ShaderAcquires)
	}
	_ = ov1.Close()
	if a.LiveShaders() != 1 {
		t.Error("closing one override must not release shared shaders")
	}
	_ = ov2.Close()
	if n := cache.ReleaseAll(); n != 1 {
		t.Errorf("ReleaseAll = %d, want 1", n)
	}
}

func TestUpdateDeterministic(t *testing.T) {
	run := func() ([]item.Item, map[string][]byte) {
		host := newTestHost(3, 1, 2)
		host.set(2, DisplayState{Status: instance.StatusActive, Color: activeColor, Selected: []int{9, 1}})
		h := newHarness(t, host)
		h.update(t)
		items := h.ov.Items()
		data := make(map[string][]byte)
		for _, it := range items {
			b, _ := h.adapter.Buffer(it.IndexBuffer)
			data[it.Name] = b.Data
		}
		return items, data
	}

	items1, data1 := run()
	items2, data2 := run()
	if !reflect.DeepEqual(items1, items2) {
		t.Error("items differ between identical runs")
	}
	if !reflect.DeepEqual(data1, data2) {
		t.Error("index buffers differ between identical runs")
	}
}

func TestReportHook(t *testing.T) {
	var reports []Report
	h := newHarness(t, newTestHost(1), WithReportHook(func(r Report) {
		reports = append(reports, r)
	}))
	h.update(t)
	h.update(t)
	if len(reports) != 2 {
		t.Fatalf("hook called %d times, want 2", len(reports))
	}
	if reports[0].Shape != "shape1" || reports[0].ItemsCreated != 2 {
		t.Errorf("first report = %+v", reports[0])
	}
}

func TestItemNotFound(t *testing.T) {
	h := newHarness(t, newTestHost(1))
	if _, err := h.ov.Item("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("got %v, want ErrKeyNotFound", err)
	}
	if h.ov.Geometry() != nil {
		t.Error("geometry before first update should be nil")
	}
}

func BenchmarkIdleUpdate(b *testing.B) {
	keys := make([]instance.Key, 64)
	for i := range keys {
		keys[i] = instance.Key(i + 1)
	}
	ov, err := NewOverride("bench", newTestNode(), newTestHost(keys...), &testLayout{}, memory.New(), nil)
	if err != nil {
		b.Fatal(err)
	}
	ov.Update(evalctx.Normal)

	for b.Loop() {
		ov.Update(evalctx.Normal)
	}
}
