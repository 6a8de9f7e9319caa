// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scenefile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/instance"
)

// Host serves the instances of one scene shape to an override and reports
// instancing changes through subscene.Notifier.
type Host struct {
	mu     sync.Mutex
	refs   []subscene.InstanceRef
	states map[instance.Key]subscene.DisplayState

	added, removed func(instance.Key)
}

var (
	_ subscene.Host     = (*Host)(nil)
	_ subscene.Notifier = (*Host)(nil)
)

// NewHost creates a host serving the instances of s.
func NewHost(s *Shape) (*Host, error) {
	h := &Host{states: make(map[instance.Key]subscene.DisplayState)}
	if err := h.Set(s.Instances); err != nil {
		return nil, err
	}
	return h, nil
}

// Set replaces the served instances. Keys that appear or disappear are
// reported to the subscriber after the new state is visible.
func (h *Host) Set(instances []Instance) error {
	refs := make([]subscene.InstanceRef, 0, len(instances))
	states := make(map[instance.Key]subscene.DisplayState, len(instances))
	for _, in := range instances {
		ds, err := in.DisplayState()
		if err != nil {
			return fmt.Errorf("scenefile: instance %d: %w", in.Key, err)
		}
		k := instance.Key(in.Key)
		refs = append(refs, subscene.InstanceRef{Key: k, Transform: in.Transform()})
		states[k] = ds
	}

	h.mu.Lock()
	var added, removed []instance.Key
	for k := range states {
		if _, ok := h.states[k]; !ok {
			added = append(added, k)
		}
	}
	for k := range h.states {
		if _, ok := states[k]; !ok {
			removed = append(removed, k)
		}
	}
	h.refs, h.states = refs, states
	onAdded, onRemoved := h.added, h.removed
	h.mu.Unlock()

	slices.Sort(added)
	slices.Sort(removed)
	if onAdded != nil {
		for _, k := range added {
			onAdded(k)
		}
	}
	if onRemoved != nil {
		for _, k := range removed {
			onRemoved(k)
		}
	}
	return nil
}

// Instances implements subscene.Host.
func (h *Host) Instances() ([]subscene.InstanceRef, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.refs), nil
}

// DisplayState implements subscene.Host.
func (h *Host) DisplayState(k instance.Key) (subscene.DisplayState, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ds, ok := h.states[k]
	if !ok {
		return subscene.DisplayState{}, fmt.Errorf("scenefile: %w: instance %s", subscene.ErrKeyNotFound, k)
	}
	return ds, nil
}

// Subscribe implements subscene.Notifier. Only one subscriber is kept.
func (h *Host) Subscribe(added, removed func(instance.Key)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added, h.removed = added, removed
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.added, h.removed = nil, nil
	}
}
