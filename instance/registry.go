// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package instance

import (
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/gpucore"
)

type entry struct {
	state     DrawState
	committed bool
}

// Pending is the topology work accumulated by notifications since the
// last Drain.
type Pending struct {
	// Invalidated is set when every entry was dropped.
	Invalidated bool

	// Removed lists the keys removed since the last Drain, sorted.
	Removed []Key
}

// Empty reports whether no notification arrived.
func (p Pending) Empty() bool {
	return !p.Invalidated && len(p.Removed) == 0
}

// Registry maps instance keys to their cached draw state.
//
// Added and Removed are called from asynchronous host callbacks; every
// other method runs on the synchronization path. All methods are safe for
// concurrent use.
type Registry struct {
	mu          sync.Mutex
	entries     map[Key]*entry
	removed     map[Key]struct{}
	invalidated bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Key]*entry),
		removed: make(map[Key]struct{}),
	}
}

// readable reports whether key may be read. Must hold r.mu.
func (r *Registry) readable(key Key) bool {
	if key == InvalidKey {
		return false
	}
	_, gone := r.removed[key]
	return !gone
}

// GetOrCreate returns the state stored for key, creating a default entry on
// first encounter. ok is false for an invalid or removed key; the returned
// state is then a default that must be treated as changed.
func (r *Registry) GetOrCreate(key Key) (state DrawState, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.readable(key) {
		return DrawState{Transform: mgl32.Ident4()}, false
	}
	e, found := r.entries[key]
	if !found {
		e = &entry{state: DrawState{Transform: mgl32.Ident4()}}
		r.entries[key] = e
	}
	return e.state, true
}

// WasChanged reports whether status or color differ from the committed
// values for key. It never mutates the registry. A missing, uncommitted,
// invalid or removed key always reports true.
func (r *Registry) WasChanged(key Key, status Status, color gpucore.Color) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.readable(key) {
		return true
	}
	e, found := r.entries[key]
	if !found || !e.committed {
		return true
	}
	return e.state.Status != status || !e.state.Color.Equal(color)
}

// Commit stores status and color for key after the caller acted on them.
// Commits for an invalid or removed key are dropped.
func (r *Registry) Commit(key Key, status Status, color gpucore.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entryLocked(key)
	if e == nil {
		return
	}
	e.state.Status = status
	e.state.Color = color
	e.committed = true
}

// SelectionChanged reports whether the normalized selection differs from
// the stored one. Like WasChanged it is a pure read.
func (r *Registry) SelectionChanged(key Key, sel []int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.readable(key) {
		return true
	}
	e, found := r.entries[key]
	if !found || !e.committed {
		return true
	}
	return !slices.Equal(e.state.Selected, NormalizeSelection(sel))
}

// CommitSelection stores the normalized selection for key.
func (r *Registry) CommitSelection(key Key, sel []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e := r.entryLocked(key); e != nil {
		e.state.Selected = NormalizeSelection(sel)
	}
}

// TransformChanged reports whether m differs from the stored transform.
func (r *Registry) TransformChanged(key Key, m mgl32.Mat4) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.readable(key) {
		return true
	}
	e, found := r.entries[key]
	if !found {
		return true
	}
	return e.state.Transform != m
}

// CommitTransform stores m and reports whether it differed.
func (r *Registry) CommitTransform(key Key, m mgl32.Mat4) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.entryLocked(key)
	if e == nil {
		return false
	}
	changed := e.state.Transform != m
	e.state.Transform = m
	return changed
}

// entryLocked returns the entry for key, creating it. Must hold r.mu.
func (r *Registry) entryLocked(key Key) *entry {
	if !r.readable(key) {
		return nil
	}
	e, found := r.entries[key]
	if !found {
		e = &entry{state: DrawState{Transform: mgl32.Ident4()}}
		r.entries[key] = e
	}
	return e
}

// InvalidateAll drops every entry. The next query for any key reports a
// change, so every visible instance is resynchronized.
func (r *Registry) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
	r.invalidated = true
}

// Forget drops the entry of one key so its next query reports a change.
// Unlike Removed it is not a topology event.
func (r *Registry) Forget(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Added records an instance-added notification.
func (r *Registry) Added(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.removed, key)
	clear(r.entries)
	r.invalidated = true
}

// Removed records an instance-removed notification. The key is unreadable
// until the next Drain or a matching Added.
func (r *Registry) Removed(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key != InvalidKey {
		r.removed[key] = struct{}{}
	}
	clear(r.entries)
	r.invalidated = true
}

// Drain returns and resets the pending topology work. Removed keys become
// readable again as fresh entries.
func (r *Registry) Drain() Pending {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := Pending{Invalidated: r.invalidated}
	if len(r.removed) > 0 {
		p.Removed = make([]Key, 0, len(r.removed))
		for k := range r.removed {
			p.Removed = append(p.Removed, k)
		}
		slices.Sort(p.Removed)
		clear(r.removed)
	}
	r.invalidated = false
	return p
}

// HasPending reports whether Drain would return non-empty work.
func (r *Registry) HasPending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invalidated || len(r.removed) > 0
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns the tracked keys in ascending order.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
