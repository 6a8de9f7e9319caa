// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"slices"

	"github.com/gogpu/subscene/instance"
)

// State is a phase of the per-shape update cycle.
type State uint8

// Planner states, in the order a full cycle visits them.
const (
	// Idle has no pending work.
	Idle State = iota

	// StructuralCheckPending compares cached instance state with the host.
	StructuralCheckPending

	// StructuralUpdate creates or updates render items and commits state.
	StructuralUpdate

	// GeometryCheckPending checks the geometry cache for staleness.
	GeometryCheckPending

	// GeometryUpdate recomputes geometry and binds buffers.
	GeometryUpdate
)

var stateNames = [...]string{"Idle", "StructuralCheckPending", "StructuralUpdate", "GeometryCheckPending", "GeometryUpdate"}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}

// InstanceInput is what the override learned about one visible instance.
type InstanceInput struct {
	Key instance.Key

	// Changed is set when status, color or selection differ from the
	// committed state.
	Changed bool

	// TransformChanged is set when only the world transform moved.
	TransformChanged bool
}

// PlanInput is the observed state of one shape at the start of a cycle.
type PlanInput struct {
	// Visible lists the instances the host enumerated and resolved.
	Visible []InstanceInput

	// Skipped lists enumerated instances whose state query failed.
	Skipped []instance.Key

	// Known lists the instances that currently own items.
	Known []instance.Key

	// Removed lists instances removed since the previous cycle.
	Removed []instance.Key

	// Invalidated is set when instancing topology changed since the
	// previous cycle.
	Invalidated bool

	// GeometryStale is set when the shape is dirty, the cache is stale or
	// an earlier upload failed.
	GeometryStale bool
}

// Plan is the work of one cycle.
type Plan struct {
	// Structural lists instances whose items must be created or updated.
	Structural []instance.Key

	// Transforms lists instances that only need new transforms.
	Transforms []instance.Key

	// Hide lists instances that own items but are no longer visible.
	Hide []instance.Key

	// Prune lists removed instances whose items must be deleted.
	Prune []instance.Key

	// Geometry is set when the cycle enters GeometryUpdate.
	Geometry bool

	// Path is the sequence of states visited, starting and ending at Idle.
	Path []State
}

// Empty reports whether the plan does no work.
func (p Plan) Empty() bool {
	return len(p.Structural) == 0 && len(p.Transforms) == 0 &&
		len(p.Hide) == 0 && len(p.Prune) == 0 && !p.Geometry
}

// Planner walks the update state machine of one shape.
//
// Planner holds no cached data; it turns a PlanInput into a Plan. A
// transition callback observes every state change.
type Planner struct {
	onTransition func(from, to State)
}

// NewPlanner creates a planner. onTransition may be nil.
func NewPlanner(onTransition func(from, to State)) *Planner {
	return &Planner{onTransition: onTransition}
}

// Plan computes the work of one cycle.
//
// The visible instances are compared in StructuralCheckPending. Unchanged
// instances need no further work; when none changed and geometry is fresh
// the cycle returns to Idle. A change of instancing topology forces
// StructuralUpdate for every visible instance. Structural work always leads
// through GeometryCheckPending into GeometryUpdate, because new or updated
// items must be bound to current buffers.
func (p *Planner) Plan(in PlanInput) Plan {
	plan := Plan{Path: []State{Idle}}
	cur := Idle
	to := func(next State) {
		if p.onTransition != nil {
			p.onTransition(cur, next)
		}
		cur = next
		plan.Path = append(plan.Path, next)
	}

	if len(in.Visible) > 0 {
		to(StructuralCheckPending)
	}
	for _, v := range in.Visible {
		switch {
		case in.Invalidated || v.Changed:
			plan.Structural = append(plan.Structural, v.Key)
		case v.TransformChanged:
			plan.Transforms = append(plan.Transforms, v.Key)
		}
	}
	if len(plan.Structural) > 0 {
		to(StructuralUpdate)
	}

	if len(plan.Structural) > 0 || in.GeometryStale {
		to(GeometryCheckPending)
		to(GeometryUpdate)
		plan.Geometry = true
	}
	if cur != Idle {
		to(Idle)
	}

	visible := make(map[instance.Key]struct{}, len(in.Visible)+len(in.Skipped))
	for _, v := range in.Visible {
		visible[v.Key] = struct{}{}
	}
	for _, k := range in.Skipped {
		visible[k] = struct{}{}
	}
	for _, k := range in.Known {
		if _, ok := visible[k]; ok {
			continue
		}
		if slices.Contains(in.Removed, k) {
			plan.Prune = append(plan.Prune, k)
		} else {
			plan.Hide = append(plan.Hide, k)
		}
	}
	return plan
}
