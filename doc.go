// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package subscene reconciles a host's shapes against a retained GPU scene
// of render items.
//
// Each logical shape gets an [Override]. Once per frame the host calls
// [Override.Update], which
//
//   - asks the host for the visible instances and their display state,
//   - compares them with the cached per-instance state,
//   - creates or updates only the render items of changed instances,
//   - recomputes geometry only when the shape's generation moved, and
//   - uploads only buffers whose content differs.
//
// A second Update with nothing changed performs no GPU mutation.
//
// # Layouts
//
// A [Layout] tells the override which items a shape type needs (wireframe,
// shaded, selection variants) and how to derive their index streams. See
// the footprint and apimesh packages.
//
// # Concurrency
//
// Update runs at most once at a time per shape. Instance topology events
// ([Override.InstanceAdded], [Override.InstanceRemoved]) may arrive on any
// goroutine and only mark the instance registry; items change on the next
// Update. Host dirty flags live in per-context storage (package evalctx).
//
// # Lifecycle
//
//	adapter, _ := gpucore.NewAdapter("memory")
//	plugin, _ := subscene.NewPlugin(adapter)
//	defer plugin.Unload()
//
//	ov, _ := plugin.Register("footPrint1", node, host, footprint.Layout{})
//	report := ov.Update(evalctx.Normal)
package subscene
