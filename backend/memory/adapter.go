// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package memory provides a CPU-side gpucore.GPUAdapter.
//
// The adapter keeps buffer contents and shader parameters in memory and
// counts every resource mutation, which makes it the reference backend for
// tests, previews and headless runs.
//
// Import it for the side effect of registering the "memory" adapter:
//
//	import _ "github.com/gogpu/subscene/backend/memory"
package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/subscene/gpucore"
)

// Name is the registry name of this adapter.
const Name = "memory"

func init() {
	gpucore.Register(Name, func() (gpucore.GPUAdapter, error) {
		return New(), nil
	})
}

// Buffer is a CPU copy of a GPU buffer.
type Buffer struct {
	Label string
	Usage gpucore.BufferUsage
	Data  []byte
}

// Shader is a configured stock shader instance.
type Shader struct {
	Stock  gpucore.StockShader
	Params map[string][]float32
}

// Counters counts resource mutations by kind.
type Counters struct {
	BufferCreates  int
	BufferWrites   int
	BufferDestroys int
	ShaderAcquires int
	ShaderParams   int
	ShaderReleases int
}

// Total returns the sum of all counters.
func (c Counters) Total() int {
	return c.BufferCreates + c.BufferWrites + c.BufferDestroys +
		c.ShaderAcquires + c.ShaderParams + c.ShaderReleases
}

// Sub returns c - o.
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		BufferCreates:  c.BufferCreates - o.BufferCreates,
		BufferWrites:   c.BufferWrites - o.BufferWrites,
		BufferDestroys: c.BufferDestroys - o.BufferDestroys,
		ShaderAcquires: c.ShaderAcquires - o.ShaderAcquires,
		ShaderParams:   c.ShaderParams - o.ShaderParams,
		ShaderReleases: c.ShaderReleases - o.ShaderReleases,
	}
}

// Adapter implements gpucore.GPUAdapter in memory.
//
// Thread Safety: Adapter is safe for concurrent use.
type Adapter struct {
	mu      sync.Mutex
	nextID  uint64
	buffers map[gpucore.BufferID]*Buffer
	shaders map[gpucore.ShaderID]*Shader
	count   Counters

	failBuffers bool
	failShaders bool
}

// New creates an empty adapter.
func New() *Adapter {
	return &Adapter{
		nextID:  1,
		buffers: make(map[gpucore.BufferID]*Buffer),
		shaders: make(map[gpucore.ShaderID]*Shader),
	}
}

func (a *Adapter) newID() uint64 {
	id := a.nextID
	a.nextID++
	return id
}

// === Buffer Management ===

// CreateBuffer creates a zero-filled buffer.
func (a *Adapter) CreateBuffer(label string, size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failBuffers {
		return gpucore.InvalidID, fmt.Errorf("memory: create buffer %q: %w", label, gpucore.ErrUnavailable)
	}
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("memory: buffer size must be positive, got %d", size)
	}
	id := gpucore.BufferID(a.newID())
	a.buffers[id] = &Buffer{Label: label, Usage: usage, Data: make([]byte, size)}
	a.count.BufferCreates++
	return id, nil
}

// WriteBuffer copies data into the buffer at offset.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failBuffers {
		return fmt.Errorf("memory: write buffer %d: %w", id, gpucore.ErrUnavailable)
	}
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("memory: write buffer %d: unknown buffer", id)
	}
	end := offset + uint64(len(data))
	if end > uint64(len(b.Data)) {
		return fmt.Errorf("memory: write buffer %d: %d bytes at %d overflows size %d", id, len(data), offset, len(b.Data))
	}
	copy(b.Data[offset:end], data)
	a.count.BufferWrites++
	return nil
}

// DestroyBuffer releases a buffer. Unknown ids are ignored.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.buffers[id]; ok {
		delete(a.buffers, id)
		a.count.BufferDestroys++
	}
}

// === Shader Instances ===

// AcquireShader creates a shader instance.
func (a *Adapter) AcquireShader(stock gpucore.StockShader) (gpucore.ShaderID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failShaders {
		return gpucore.InvalidID, fmt.Errorf("memory: acquire %s: %w", stock, gpucore.ErrUnavailable)
	}
	id := gpucore.ShaderID(a.newID())
	a.shaders[id] = &Shader{Stock: stock, Params: make(map[string][]float32)}
	a.count.ShaderAcquires++
	return id, nil
}

// SetShaderParameter stores a copy of value under name.
func (a *Adapter) SetShaderParameter(id gpucore.ShaderID, name string, value []float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.shaders[id]
	if !ok {
		return fmt.Errorf("memory: set %q on shader %d: unknown shader", name, id)
	}
	s.Params[name] = slices.Clone(value)
	a.count.ShaderParams++
	return nil
}

// ReleaseShader releases a shader instance. Unknown ids are ignored.
func (a *Adapter) ReleaseShader(id gpucore.ShaderID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.shaders[id]; ok {
		delete(a.shaders, id)
		a.count.ShaderReleases++
	}
}

// === Inspection ===

// Counters returns a snapshot of the mutation counters.
func (a *Adapter) Counters() Counters {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Mutations returns the total number of resource mutations so far.
func (a *Adapter) Mutations() int {
	return a.Counters().Total()
}

// Buffer returns a copy of the buffer with the given id.
func (a *Adapter) Buffer(id gpucore.BufferID) (Buffer, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.buffers[id]
	if !ok {
		return Buffer{}, false
	}
	return Buffer{Label: b.Label, Usage: b.Usage, Data: slices.Clone(b.Data)}, true
}

// ShaderParam returns a copy of a shader parameter.
func (a *Adapter) ShaderParam(id gpucore.ShaderID, name string) ([]float32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.shaders[id]
	if !ok {
		return nil, false
	}
	v, ok := s.Params[name]
	return slices.Clone(v), ok
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (a *Adapter) LiveBuffers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}

// LiveShaders returns the number of shader instances not yet released.
func (a *Adapter) LiveShaders() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.shaders)
}

// FailBuffers makes buffer creation and writes fail with ErrUnavailable.
func (a *Adapter) FailBuffers(fail bool) {
	a.mu.Lock()
	a.failBuffers = fail
	a.mu.Unlock()
}

// FailShaders makes shader acquisition fail with ErrUnavailable.
func (a *Adapter) FailShaders(fail bool) {
	a.mu.Lock()
	a.failShaders = fail
	a.mu.Unlock()
}
