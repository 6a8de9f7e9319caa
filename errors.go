// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package subscene

import (
	"errors"

	"github.com/gogpu/subscene/gpucore"
)

// Errors reported by synchronization. None of them aborts a host frame:
// Update records them in its Report and degrades to skipping work or to a
// full resynchronization on the next cycle.
var (
	// ErrResourceUnavailable is returned when a GPU buffer or shader cannot
	// be acquired. The affected items are skipped and retried next cycle.
	ErrResourceUnavailable = gpucore.ErrUnavailable

	// ErrKeyNotFound is returned by lookups of items or instances that do
	// not exist.
	ErrKeyNotFound = errors.New("subscene: key not found")

	// ErrInvalidHostHandle is returned when a host query fails, for example
	// because an instance can no longer be resolved.
	ErrInvalidHostHandle = errors.New("subscene: invalid host handle")

	// ErrPluginUnloaded is returned by a plugin after Unload.
	ErrPluginUnloaded = errors.New("subscene: plugin unloaded")

	// ErrDuplicateShape is returned when a shape name is registered twice.
	ErrDuplicateShape = errors.New("subscene: duplicate shape")

	// ErrNilNode is returned when an override is created without a node.
	ErrNilNode = errors.New("subscene: nil node")

	// ErrOverrideClosed is reported by Update after Close.
	ErrOverrideClosed = errors.New("subscene: override closed")

	// ErrSyncPanic wraps a panic recovered from a synchronization cycle.
	ErrSyncPanic = errors.New("subscene: synchronization panicked")
)
