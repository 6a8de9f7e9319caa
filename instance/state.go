// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package instance tracks the draw-relevant state of every placement of a
// logical shape.
package instance

import (
	"math"
	"slices"
	"strconv"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/gpucore"
)

// Key identifies one instance of a shape. Keys are opaque and carry no
// ordering or contiguity guarantee.
type Key uint32

// InvalidKey never names a live instance.
const InvalidKey Key = math.MaxUint32

// String returns the key in decimal, or "invalid".
func (k Key) String() string {
	if k == InvalidKey {
		return "invalid"
	}
	return strconv.FormatUint(uint64(k), 10)
}

// Status is the host's display status of an instance.
type Status uint8

// Display statuses.
const (
	// StatusNone is the state of an instance never seen by the registry.
	StatusNone Status = iota

	// StatusDormant is an unselected instance.
	StatusDormant

	// StatusActive is a selected instance.
	StatusActive

	// StatusLead is the most recently selected instance.
	StatusLead

	// StatusHilite is an instance highlighted for component editing.
	StatusHilite

	// StatusActiveComponent is an instance with selected components.
	StatusActiveComponent
)

var statusNames = [...]string{"none", "dormant", "active", "lead", "hilite", "activeComponent"}

// String returns the status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatus returns the status with the given name.
func ParseStatus(name string) (Status, bool) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return StatusNone, false
}

// Active reports whether s belongs to the selected family.
func (s Status) Active() bool {
	switch s {
	case StatusActive, StatusLead, StatusHilite, StatusActiveComponent:
		return true
	default:
		return false
	}
}

// DrawState is the cached draw-affecting state of one instance.
type DrawState struct {
	Status    Status
	Color     gpucore.Color
	Transform mgl32.Mat4

	// Selected holds the selected component indices, sorted and unique.
	Selected []int
}

// NormalizeSelection returns sel sorted with duplicates removed.
// The input is not modified.
func NormalizeSelection(sel []int) []int {
	if len(sel) == 0 {
		return nil
	}
	out := slices.Clone(sel)
	slices.Sort(out)
	return slices.Compact(out)
}
