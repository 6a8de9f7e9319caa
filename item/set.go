// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package item

import (
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
)

// Change describes what CreateOrUpdate did.
type Change uint8

// CreateOrUpdate outcomes.
const (
	Unchanged Change = iota
	Updated
	Created
)

// Set is the retained collection of items of one logical shape, keyed by
// name. It is only mutated on the synchronization path and carries no lock.
type Set struct {
	items map[string]*Item
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{items: make(map[string]*Item)}
}

// Find returns the item with the given name.
func (s *Set) Find(name string) (*Item, bool) {
	it, ok := s.items[name]
	return it, ok
}

// CreateOrUpdate creates the item named spec.Name, or mutates the existing
// item's structural fields in place. Geometry bindings and the transform of
// an existing item are preserved.
func (s *Set) CreateOrUpdate(spec Spec) (*Item, Change) {
	it, ok := s.items[spec.Name]
	if !ok {
		it = &Item{
			Name:      spec.Name,
			Instance:  spec.Instance,
			Kind:      spec.Kind,
			Mode:      spec.Mode,
			Shader:    spec.Shader,
			Depth:     spec.Depth,
			Enabled:   spec.Enabled,
			Stream:    spec.Stream,
			Transform: mgl32.Ident4(),
		}
		s.items[spec.Name] = it
		return it, Created
	}

	if it.Kind == spec.Kind && it.Mode == spec.Mode && it.Shader == spec.Shader &&
		it.Depth == spec.Depth && it.Enabled == spec.Enabled && it.Stream == spec.Stream &&
		it.Instance == spec.Instance {
		return it, Unchanged
	}
	if it.Stream != spec.Stream || it.Kind != spec.Kind {
		it.VertexBuffer, it.IndexBuffer, it.IndexCount = gpucore.InvalidID, gpucore.InvalidID, 0
	}
	it.Instance = spec.Instance
	it.Kind = spec.Kind
	it.Mode = spec.Mode
	it.Shader = spec.Shader
	it.Depth = spec.Depth
	it.Enabled = spec.Enabled
	it.Stream = spec.Stream
	return it, Updated
}

// BindGeometry associates buffers with it. It reports whether the binding
// changed.
func (s *Set) BindGeometry(it *Item, vb, ib gpucore.BufferID, count int) bool {
	if it.VertexBuffer == vb && it.IndexBuffer == ib && it.IndexCount == count {
		return false
	}
	it.VertexBuffer = vb
	it.IndexBuffer = ib
	it.IndexCount = count
	return true
}

// SetTransform updates the world transform of it and reports whether it
// changed.
func (s *Set) SetTransform(it *Item, m mgl32.Mat4) bool {
	if it.Transform == m {
		return false
	}
	it.Transform = m
	return true
}

// Disable turns off the named item. It reports whether the item was enabled.
func (s *Set) Disable(name string) bool {
	it, ok := s.items[name]
	if !ok || !it.Enabled {
		return false
	}
	it.Enabled = false
	return true
}

// Remove deletes the named item and reports whether it existed.
func (s *Set) Remove(name string) bool {
	if _, ok := s.items[name]; !ok {
		return false
	}
	delete(s.items, name)
	return true
}

// RemoveInstance deletes every item of key and returns their names.
func (s *Set) RemoveInstance(key instance.Key) []string {
	var names []string
	for name, it := range s.items {
		if it.Instance == key {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		delete(s.items, name)
	}
	return names
}

// ByInstance returns the items of key in name order.
func (s *Set) ByInstance(key instance.Key) []*Item {
	var out []*Item
	for _, it := range s.items {
		if it.Instance == key {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b *Item) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Instances returns the distinct instance keys that own items, ascending.
func (s *Set) Instances() []instance.Key {
	seen := make(map[instance.Key]struct{})
	for _, it := range s.items {
		seen[it.Instance] = struct{}{}
	}
	keys := make([]instance.Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Each calls fn for every item in name order.
func (s *Set) Each(fn func(*Item)) {
	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fn(s.items[name])
	}
}

// Snapshot returns copies of every item in name order.
func (s *Set) Snapshot() []Item {
	out := make([]Item, 0, len(s.items))
	s.Each(func(it *Item) { out = append(out, *it) })
	return out
}

// Len returns the number of items.
func (s *Set) Len() int {
	return len(s.items)
}
