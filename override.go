// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
	"github.com/gogpu/subscene/item"
	"github.com/gogpu/subscene/shader"
)

// Report summarizes one Update cycle.
type Report struct {
	Shape   string
	Context evalctx.ID

	// Path is the planner state sequence of the cycle.
	Path []State

	Visible    int
	Structural int
	Transforms int
	Hidden     int
	Pruned     int

	// Skipped counts instances whose host query failed.
	Skipped int

	// Deferred counts items left disabled or unbound because a GPU
	// resource was unavailable; they are retried next cycle.
	Deferred int

	ItemsCreated int
	ItemsUpdated int
	ItemsRemoved int

	GeometryUpdated bool
	GeometryRebuilt bool

	BuffersCreated   int
	BuffersWritten   int
	BuffersDestroyed int

	// Err is the first degradation of the cycle, or nil.
	Err error
}

// Mutations returns the number of GPU buffer mutations of the cycle.
func (r Report) Mutations() int {
	return r.BuffersCreated + r.BuffersWritten + r.BuffersDestroyed
}

func (r *Report) fail(err error) {
	if r.Err == nil {
		r.Err = err
	}
}

// bufferSlot is one GPU buffer owned by the override.
type bufferSlot struct {
	id     gpucore.BufferID
	size   int
	length int
	digest geometry.Digest
	valid  bool
}

// stream is a named index stream, optionally with its own positions.
type stream struct {
	name   string
	inst   instance.Key // instance.InvalidKey for shared streams
	vertex bufferSlot   // unused when the stream draws the shape positions
	index  bufferSlot
	own    bool // vertex holds stream-specific positions
	count  int
}

// Override synchronizes the render items of one logical shape with its
// host. Update is the only entry point that touches GPU resources.
type Override struct {
	id     uuid.UUID
	name   string
	node   Node
	host   Host
	layout Layout

	adapter gpucore.GPUAdapter
	shaders *shader.Cache

	registry *instance.Registry
	planner  *Planner
	opts     overrideOptions

	ownsShaders bool

	// Guarded by mu; Update runs at most once at a time per shape.
	mu              sync.Mutex
	cache           geometry.Cache
	items           *item.Set
	positions       bufferSlot
	streams         map[string]*stream
	geometryPending bool
	subscribed      bool
	unsubscribe     func()
	closed          bool
}

// NewOverride creates an override for node. The shader cache is shared
// between overrides and owned by the caller, usually a Plugin. When shaders
// is nil the override creates a private cache and releases it on Close.
func NewOverride(name string, node Node, host Host, layout Layout,
	adapter gpucore.GPUAdapter, shaders *shader.Cache, opts ...OverrideOption) (*Override, error) {
	if node == nil || host == nil || layout == nil {
		return nil, ErrNilNode
	}
	if node.Shape(evalctx.Normal) == nil {
		return nil, fmt.Errorf("%w: node %q has no shape", ErrInvalidHostHandle, name)
	}
	if adapter == nil {
		return nil, fmt.Errorf("subscene: override %q: %w", name, ErrResourceUnavailable)
	}

	var o overrideOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}

	ov := &Override{
		id:       o.id,
		name:     name,
		node:     node,
		host:     host,
		layout:   layout,
		adapter:  adapter,
		shaders:  shaders,
		registry: instance.NewRegistry(),
		opts:     o,
		items:    item.NewSet(),
		streams:  make(map[string]*stream),
	}
	if shaders == nil {
		ov.shaders = shader.NewCache(adapter)
		ov.ownsShaders = true
	}
	if o.trace {
		ov.planner = NewPlanner(func(from, to State) {
			Logger().Debug("subscene: transition", "shape", name, "from", from, "to", to)
		})
	} else {
		ov.planner = NewPlanner(nil)
	}
	return ov, nil
}

func (o *Override) logger() *slog.Logger {
	return Logger().With("shape", o.name, "id", o.id.String())
}

// ID returns the override's identifier.
func (o *Override) ID() uuid.UUID { return o.id }

// Name returns the shape name.
func (o *Override) Name() string { return o.name }

// Node returns the node the override was created for.
func (o *Override) Node() Node { return o.node }

// InstanceAdded records an instance-added notification. It only touches
// the instance registry; items change on the next Update.
func (o *Override) InstanceAdded(key instance.Key) {
	o.registry.Added(key)
}

// InstanceRemoved records an instance-removed notification. It only
// touches the instance registry; items are pruned on the next Update.
func (o *Override) InstanceRemoved(key instance.Key) {
	o.registry.Removed(key)
}

// subscribe registers for topology events on first use.
func (o *Override) subscribe() {
	if o.subscribed {
		return
	}
	o.subscribed = true
	if n, ok := o.host.(Notifier); ok {
		o.unsubscribe = n.Subscribe(o.InstanceAdded, o.InstanceRemoved)
	}
}

type visibleInstance struct {
	ref   InstanceRef
	state DisplayState
}

// Update runs one synchronization cycle for execution context ec.
//
// Update never panics and never returns an error: failures are recorded in
// the Report and degrade to skipping an instance for this cycle or to a
// full resynchronization on the next one. Calling Update twice with no
// intervening change performs no GPU resource mutation the second time.
func (o *Override) Update(ec evalctx.ID) (rep Report) {
	o.mu.Lock()
	defer o.mu.Unlock()

	rep.Shape = o.name
	rep.Context = ec
	defer func() {
		if r := recover(); r != nil {
			rep.fail(fmt.Errorf("%w: %v", ErrSyncPanic, r))
			o.logger().Error("subscene: update recovered", "panic", r)
			o.registry.InvalidateAll()
			o.geometryPending = true
		}
		if o.opts.onReport != nil {
			o.opts.onReport(rep)
		}
	}()

	if o.closed {
		rep.fail(ErrOverrideClosed)
		return rep
	}
	o.subscribe()

	pending := o.registry.Drain()
	refs, err := o.host.Instances()
	if err != nil {
		rep.fail(fmt.Errorf("%w: instances: %w", ErrInvalidHostHandle, err))
		o.logger().Warn("subscene: instance enumeration failed", "err", err)
		o.requeue(pending)
		return rep
	}
	shape := o.node.Shape(ec)
	if shape == nil {
		rep.fail(fmt.Errorf("%w: no shape in context %s", ErrInvalidHostHandle, ec))
		o.requeue(pending)
		return rep
	}

	in := PlanInput{
		Known:         o.items.Instances(),
		Removed:       pending.Removed,
		Invalidated:   pending.Invalidated,
		GeometryStale: o.geometryPending || shape.NeedsUpdate() || o.cache.Stale(shape),
	}
	visible := make(map[instance.Key]visibleInstance, len(refs))
	for _, ref := range refs {
		if ref.Key == instance.InvalidKey {
			rep.Skipped++
			continue
		}
		ds, err := o.host.DisplayState(ref.Key)
		if err != nil {
			rep.Skipped++
			rep.fail(fmt.Errorf("%w: instance %s: %w", ErrInvalidHostHandle, ref.Key, err))
			o.logger().Warn("subscene: instance skipped", "instance", ref.Key, "err", err)
			in.Skipped = append(in.Skipped, ref.Key)
			continue
		}
		visible[ref.Key] = visibleInstance{ref: ref, state: ds}
		in.Visible = append(in.Visible, InstanceInput{
			Key: ref.Key,
			Changed: o.registry.WasChanged(ref.Key, ds.Status, ds.Color) ||
				o.registry.SelectionChanged(ref.Key, ds.Selected),
			TransformChanged: o.registry.TransformChanged(ref.Key, ref.Transform),
		})
	}
	rep.Visible = len(in.Visible)

	plan := o.planner.Plan(in)
	rep.Path = plan.Path

	for _, key := range plan.Structural {
		o.syncInstance(visible[key], &rep)
	}
	for _, key := range plan.Transforms {
		o.syncTransform(visible[key].ref, &rep)
	}
	for _, key := range plan.Hide {
		o.hideInstance(key, &rep)
	}
	for _, key := range plan.Prune {
		o.pruneInstance(key, &rep)
	}
	if plan.Geometry {
		o.syncGeometry(shape, &rep)
	}
	o.collectStreams(&rep)

	if rep.Err != nil {
		o.logger().Warn("subscene: degraded cycle", "err", rep.Err, "skipped", rep.Skipped, "deferred", rep.Deferred)
	}
	return rep
}

// requeue restores topology work drained by a cycle that could not run.
func (o *Override) requeue(p instance.Pending) {
	for _, k := range p.Removed {
		o.registry.Removed(k)
	}
	if p.Invalidated {
		o.registry.InvalidateAll()
	}
}

// syncInstance runs StructuralUpdate for one instance.
func (o *Override) syncInstance(v visibleInstance, rep *Report) {
	key := v.ref.Key
	st := instance.DrawState{
		Status:    v.state.Status,
		Color:     v.state.Color,
		Transform: v.ref.Transform,
		Selected:  instance.NormalizeSelection(v.state.Selected),
	}
	rep.Structural++

	wanted := make(map[string]struct{})
	deferred := false
	for _, spec := range o.layout.Items(st) {
		name := item.InstanceName(spec.Name, key)
		wanted[name] = struct{}{}

		sid, err := o.shaders.Get(spec.Shader)
		if err != nil {
			rep.fail(fmt.Errorf("item %s: %w", name, err))
			rep.Deferred++
			deferred = true
			o.items.Disable(name)
			continue
		}

		streamKey := spec.Stream
		inst := instance.InvalidKey
		if spec.PerInstance {
			streamKey = item.InstanceName(spec.Stream, key)
			inst = key
		}
		if _, ok := o.streams[streamKey]; !ok {
			o.streams[streamKey] = &stream{name: spec.Stream, inst: inst}
		}

		it, change := o.items.CreateOrUpdate(item.Spec{
			Name:     name,
			Instance: key,
			Kind:     spec.Kind,
			Mode:     spec.Mode,
			Shader:   sid,
			Depth:    spec.Depth,
			Enabled:  spec.Enabled,
			Stream:   streamKey,
		})
		switch change {
		case item.Created:
			rep.ItemsCreated++
		case item.Updated:
			rep.ItemsUpdated++
		}
		o.items.SetTransform(it, v.ref.Transform)
	}

	for _, it := range o.items.ByInstance(key) {
		if _, ok := wanted[it.Name]; !ok {
			o.items.Remove(it.Name)
			rep.ItemsRemoved++
		}
	}

	if deferred {
		// Leave the entry uncommitted so the next cycle retries.
		o.registry.Forget(key)
		return
	}
	o.registry.Commit(key, st.Status, st.Color)
	o.registry.CommitSelection(key, st.Selected)
	o.registry.CommitTransform(key, st.Transform)
}

func (o *Override) syncTransform(ref InstanceRef, rep *Report) {
	for _, it := range o.items.ByInstance(ref.Key) {
		o.items.SetTransform(it, ref.Transform)
	}
	o.registry.CommitTransform(ref.Key, ref.Transform)
	rep.Transforms++
}

func (o *Override) hideInstance(key instance.Key, rep *Report) {
	hidden := false
	for _, it := range o.items.ByInstance(key) {
		if o.items.Disable(it.Name) {
			hidden = true
		}
	}
	if hidden {
		o.registry.Forget(key)
		rep.Hidden++
	}
}

func (o *Override) pruneInstance(key instance.Key, rep *Report) {
	rep.ItemsRemoved += len(o.items.RemoveInstance(key))
	o.registry.Forget(key)
	rep.Pruned++
}

// syncGeometry runs GeometryUpdate: refresh the cache, upload streams whose
// content changed and bind every item to its buffers.
func (o *Override) syncGeometry(shape geometry.Shape, rep *Report) {
	rep.GeometryUpdated = true
	view, rebuilt := o.cache.EnsureFresh(shape)
	rep.GeometryRebuilt = rebuilt
	o.geometryPending = false

	posErr := o.upload(&o.positions, o.name+".positions", gpucore.VertexUsage, view.Bytes(), rep)
	if posErr != nil {
		rep.fail(posErr)
		o.geometryPending = true
	}

	byStream := make(map[string][]*item.Item)
	o.items.Each(func(it *item.Item) {
		byStream[it.Stream] = append(byStream[it.Stream], it)
	})

	keys := make([]string, 0, len(o.streams))
	for k := range o.streams {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		s := o.streams[key]
		items := byStream[key]
		if len(items) == 0 {
			continue
		}
		if s.inst != instance.InvalidKey && !anyEnabled(items) {
			// Hidden instance: its buffers and bindings wait for it to return.
			continue
		}
		var st instance.DrawState
		if s.inst != instance.InvalidKey {
			st, _ = o.registry.GetOrCreate(s.inst)
		}
		data := o.layout.Stream(s.name, view, st)

		err := posErr
		if err == nil {
			err = o.uploadStream(key, s, data, rep)
		}
		if err != nil {
			rep.fail(err)
			o.geometryPending = true
			for _, it := range items {
				o.items.BindGeometry(it, gpucore.InvalidID, gpucore.InvalidID, 0)
				if o.items.Disable(it.Name) {
					rep.Deferred++
				}
				// Re-enable through a structural pass once buffers exist.
				o.registry.Forget(it.Instance)
			}
			continue
		}

		vb := o.positions.id
		if s.own {
			vb = s.vertex.id
		}
		for _, it := range items {
			o.items.BindGeometry(it, vb, s.index.id, s.count)
		}
	}
}

func anyEnabled(items []*item.Item) bool {
	for _, it := range items {
		if it.Enabled {
			return true
		}
	}
	return false
}

func (o *Override) uploadStream(key string, s *stream, data StreamData, rep *Report) error {
	if data.Positions != nil {
		if err := o.upload(&s.vertex, o.name+"."+key+".positions", gpucore.VertexUsage,
			geometry.PositionBytes(data.Positions), rep); err != nil {
			return err
		}
		s.own = true
	} else if s.own {
		o.release(&s.vertex, rep)
		s.own = false
	}
	if err := o.upload(&s.index, o.name+"."+key, gpucore.IndexUsage, geometry.IndexBytes(data.Indices), rep); err != nil {
		return err
	}
	s.count = len(data.Indices)
	return nil
}

// upload writes data into slot, reusing the buffer when it is large enough
// and skipping the write when the content is unchanged.
func (o *Override) upload(slot *bufferSlot, label string, usage gpucore.BufferUsage, data []byte, rep *Report) error {
	if len(data) == 0 {
		o.release(slot, rep)
		return nil
	}
	d := geometry.DigestOf(data)
	if slot.valid && slot.length == len(data) && slot.digest == d {
		return nil
	}
	if slot.id == gpucore.InvalidID || slot.size < len(data) {
		o.release(slot, rep)
		id, err := o.adapter.CreateBuffer(label, len(data), usage)
		if err != nil {
			return fmt.Errorf("buffer %s: %w", label, err)
		}
		slot.id, slot.size = id, len(data)
		rep.BuffersCreated++
	}
	slot.valid = false
	if err := o.adapter.WriteBuffer(slot.id, 0, data); err != nil {
		return fmt.Errorf("buffer %s: %w", label, err)
	}
	rep.BuffersWritten++
	slot.length, slot.digest, slot.valid = len(data), d, true
	o.logger().Debug("subscene: buffer uploaded", "label", label, "bytes", len(data))
	return nil
}

func (o *Override) release(slot *bufferSlot, rep *Report) {
	if slot.id != gpucore.InvalidID {
		o.adapter.DestroyBuffer(slot.id)
		if rep != nil {
			rep.BuffersDestroyed++
		}
	}
	*slot = bufferSlot{}
}

// collectStreams destroys the buffers of streams no item references.
func (o *Override) collectStreams(rep *Report) {
	used := make(map[string]bool, len(o.streams))
	o.items.Each(func(it *item.Item) { used[it.Stream] = true })
	for key, s := range o.streams {
		if used[key] {
			continue
		}
		o.release(&s.vertex, rep)
		o.release(&s.index, rep)
		delete(o.streams, key)
	}
}

// RequiresUpdate reports whether Update for ec would do any work. It is a
// pure read and a failed host query counts as work.
func (o *Override) RequiresUpdate(ec evalctx.ID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	if o.geometryPending || o.registry.HasPending() {
		return true
	}
	shape := o.node.Shape(ec)
	if shape == nil || shape.NeedsUpdate() || o.cache.Stale(shape) {
		return true
	}
	refs, err := o.host.Instances()
	if err != nil {
		return true
	}
	seen := make(map[instance.Key]struct{}, len(refs))
	for _, ref := range refs {
		if ref.Key == instance.InvalidKey {
			continue
		}
		seen[ref.Key] = struct{}{}
		ds, err := o.host.DisplayState(ref.Key)
		if err != nil ||
			o.registry.WasChanged(ref.Key, ds.Status, ds.Color) ||
			o.registry.SelectionChanged(ref.Key, ds.Selected) ||
			o.registry.TransformChanged(ref.Key, ref.Transform) {
			return true
		}
	}
	for _, key := range o.items.Instances() {
		if _, ok := seen[key]; ok {
			continue
		}
		for _, it := range o.items.ByInstance(key) {
			if it.Enabled {
				return true
			}
		}
	}
	return false
}

// Items returns a snapshot of the render items in name order.
func (o *Override) Items() []item.Item {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.items.Snapshot()
}

// Item returns a copy of the named item.
func (o *Override) Item(name string) (item.Item, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	it, ok := o.items.Find(name)
	if !ok {
		return item.Item{}, fmt.Errorf("%w: item %q", ErrKeyNotFound, name)
	}
	return *it, nil
}

// Geometry returns the cached geometry view, or nil before the first
// GeometryUpdate.
func (o *Override) Geometry() *geometry.View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.View()
}

// Close destroys every buffer the override owns and stops listening for
// topology events. Shaders of a shared cache are not released.
func (o *Override) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	if o.unsubscribe != nil {
		o.unsubscribe()
		o.unsubscribe = nil
	}
	o.release(&o.positions, nil)
	for key, s := range o.streams {
		o.release(&s.vertex, nil)
		o.release(&s.index, nil)
		delete(o.streams, key)
	}
	o.items = item.NewSet()
	o.cache.Reset()
	if o.ownsShaders {
		o.shaders.ReleaseAll()
	}
	return nil
}

// IsClosed reports whether Close was called.
func (o *Override) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
