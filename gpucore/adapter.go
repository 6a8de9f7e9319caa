// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// ErrUnavailable is returned when a backend cannot provide a resource,
// for example because no device or shader manager is present.
var ErrUnavailable = errors.New("gpucore: resource unavailable")

// GPUAdapter abstracts over different GPU backend implementations.
//
// This interface is the boundary between the synchronization engine and the
// host's GPU layer. Implementations must be safe for concurrent use because
// overrides for different shapes may synchronize at the same time.
//
// Resource lifecycle:
//   - Resources are created via Create*/Acquire* methods
//   - Resources must be explicitly released via Destroy*/Release* methods
//   - IDs become invalid after release and must not be reused
type GPUAdapter interface {
	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer.
	//
	// Parameters:
	//   - label: optional debug label
	//   - size: buffer size in bytes
	//   - usage: buffer usage flags (bitmask of BufferUsage*)
	//
	// Returns the buffer ID or an error wrapping ErrUnavailable.
	CreateBuffer(label string, size int, usage BufferUsage) (BufferID, error)

	// WriteBuffer commits data to a buffer at the given byte offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// === Shader Instances ===

	// AcquireShader creates a configurable instance of a stock shader.
	AcquireShader(stock StockShader) (ShaderID, error)

	// SetShaderParameter sets a named float parameter on a shader instance.
	SetShaderParameter(id ShaderID, name string, value []float32) error

	// ReleaseShader releases a shader instance.
	ReleaseShader(id ShaderID)
}

// Closer is implemented by adapters that own device-level resources.
type Closer interface {
	Close() error
}
