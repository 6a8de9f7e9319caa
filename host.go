// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/subscene/evalctx"
	"github.com/gogpu/subscene/geometry"
	"github.com/gogpu/subscene/gpucore"
	"github.com/gogpu/subscene/instance"
)

// Node is the host node that owns a logical shape. An override keeps a
// typed reference to its node, validated once at construction.
type Node interface {
	// Shape returns the node's shape as seen from execution context ec.
	Shape(ec evalctx.ID) geometry.Shape
}

// InstanceRef is one visible placement reported by the host.
type InstanceRef struct {
	Key       instance.Key
	Transform mgl32.Mat4
}

// DisplayState is the host's current draw-affecting state of an instance.
type DisplayState struct {
	Status instance.Status
	Color  gpucore.Color

	// Selected lists selected component indices, in any order.
	Selected []int
}

// Host is the scene the override reconciles against.
type Host interface {
	// Instances returns the currently visible instances of the shape.
	Instances() ([]InstanceRef, error)

	// DisplayState returns the current state of one instance. An error
	// means the key can no longer be resolved.
	DisplayState(key instance.Key) (DisplayState, error)
}

// Notifier is implemented by hosts that deliver instance topology events.
// Callbacks may run on any goroutine, concurrently with Update.
type Notifier interface {
	Subscribe(added, removed func(instance.Key)) (cancel func())
}
