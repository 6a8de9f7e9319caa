// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore provides the GPU resource primitives used by subscene.
//
// This package defines the [GPUAdapter] interface, which abstracts over the
// host's GPU layer so the synchronization engine can run against:
//   - gogpu/wgpu (Pure Go WebGPU via HAL), see backend/native
//   - a CPU-side recording adapter, see backend/memory
//
// # Architecture
//
//	        +-------------------+
//	        |  subscene engine  |
//	        | (Override/Planner)|
//	        +---------+---------+
//	                  |
//	            GPUAdapter
//	                  |
//	     +------------+------------+
//	     |                         |
//	+----v-----+            +------v------+
//	|  native  |            |   memory    |
//	|(hal.Dev) |            | (recording) |
//	+----------+            +-------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [ShaderID]).
// Adapters are responsible for tracking the mapping between IDs and actual
// GPU resources. A failed acquisition wraps [ErrUnavailable]; callers skip
// the affected render item for the cycle and retry on the next one.
//
// # Adapter Registry
//
// Backends register a factory by name from init(), following the
// database/sql driver pattern. See [Register] and [NewAdapter].
package gpucore
