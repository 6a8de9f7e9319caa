// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native implements gpucore.GPUAdapter on gogpu/wgpu HAL.
//
// Buffers map one to one onto hal.Buffer. Every shader instance owns a
// small uniform buffer holding its parameters; instances of the same stock
// shader share one hal.ShaderModule compiled from WGSL with naga.
package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/subscene"
	"github.com/gogpu/subscene/gpucore"
)

func init() {
	gpucore.Register("native", func() (gpucore.GPUAdapter, error) {
		return Open(gputypes.BackendVulkan)
	})
	gpucore.Register("noop", func() (gpucore.GPUAdapter, error) {
		return NewHeadless()
	})
}

type halBuffer struct {
	buf  hal.Buffer
	size uint64
}

type shaderInstance struct {
	stock   gpucore.StockShader
	uniform hal.Buffer
	params  [uniformFloats]float32
}

// HALAdapter implements gpucore.GPUAdapter using gogpu/wgpu/hal directly.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple goroutines.
// All resource operations are protected by a mutex.
type HALAdapter struct {
	mu       sync.RWMutex
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool // device and instance are destroyed on Close

	maxBufferSz uint64

	// ID generation
	nextID atomic.Uint64

	buffers map[gpucore.BufferID]*halBuffer
	shaders map[gpucore.ShaderID]*shaderInstance
	modules map[gpucore.StockShader]hal.ShaderModule

	closed bool
}

// NewHALAdapter creates an adapter wrapping a device and queue it does not
// own. If limits is nil, default limits are used.
func NewHALAdapter(device hal.Device, queue hal.Queue, limits *gputypes.Limits) (*HALAdapter, error) {
	if device == nil || queue == nil {
		return nil, ErrNilHALDevice
	}
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}
	a := &HALAdapter{
		device:      device,
		queue:       queue,
		maxBufferSz: lim.MaxBufferSize,
		buffers:     make(map[gpucore.BufferID]*halBuffer),
		shaders:     make(map[gpucore.ShaderID]*shaderInstance),
		modules:     make(map[gpucore.StockShader]hal.ShaderModule),
	}
	// Start ID generation at 1 (0 is invalid)
	a.nextID.Store(1)
	return a, nil
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// MaxBufferSize returns the maximum buffer size in bytes.
func (a *HALAdapter) MaxBufferSize() uint64 {
	return a.maxBufferSz
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *HALAdapter) CreateBuffer(label string, size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer size must be positive, got %d", size)
	}
	if a.maxBufferSz > 0 && uint64(size) > a.maxBufferSz {
		return gpucore.InvalidID, fmt.Errorf("native: buffer %q of %d bytes exceeds limit %d: %w",
			label, size, a.maxBufferSz, gpucore.ErrUnavailable)
	}

	a.mu.RLock()
	closed := a.closed
	a.mu.RUnlock()
	if closed {
		return gpucore.InvalidID, ErrClosed
	}

	buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w: %w", label, gpucore.ErrUnavailable, err)
	}

	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = &halBuffer{buf: buf, size: uint64(size)}
	a.mu.Unlock()

	subscene.Logger().Debug("native: buffer created", "id", id, "label", label, "size", size)
	return id, nil
}

// WriteBuffer writes data to a buffer through the queue.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	a.mu.RLock()
	b, ok := a.buffers[id]
	a.mu.RUnlock()

	if !ok {
		return fmt.Errorf("native: write buffer %d: %w", id, ErrUnknownResource)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("native: write buffer %d: %d bytes at %d overflows size %d", id, len(data), offset, b.size)
	}
	if len(data) > 0 {
		a.queue.WriteBuffer(b.buf, offset, data)
	}
	return nil
}

// DestroyBuffer releases a GPU buffer.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	b, ok := a.buffers[id]
	if ok {
		delete(a.buffers, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBuffer(b.buf)
	}
}

// === Shader Instances ===

// AcquireShader creates a shader instance backed by its own uniform buffer.
// The stock module is compiled on first use.
func (a *HALAdapter) AcquireShader(stock gpucore.StockShader) (gpucore.ShaderID, error) {
	if _, err := a.module(stock); err != nil {
		return gpucore.InvalidID, err
	}

	uniform, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: stock.String() + " params",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: %s uniform: %w: %w", stock, gpucore.ErrUnavailable, err)
	}

	id := gpucore.ShaderID(a.newID())
	a.mu.Lock()
	a.shaders[id] = &shaderInstance{stock: stock, uniform: uniform}
	a.mu.Unlock()
	return id, nil
}

// module returns the compiled module for stock.
func (a *HALAdapter) module(stock gpucore.StockShader) (hal.ShaderModule, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, ErrClosed
	}
	if m, ok := a.modules[stock]; ok {
		return m, nil
	}
	spirv, err := stockSPIRV()
	if err != nil {
		return nil, fmt.Errorf("native: %s: %w", stock, err)
	}
	m, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  stock.String(),
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create %s module: %w: %w", stock, gpucore.ErrUnavailable, err)
	}
	a.modules[stock] = m
	return m, nil
}

// SetShaderParameter writes a parameter into the instance's uniform buffer.
func (a *HALAdapter) SetShaderParameter(id gpucore.ShaderID, name string, value []float32) error {
	slot, ok := paramSlots[name]
	if !ok {
		return fmt.Errorf("native: unknown shader parameter %q", name)
	}
	if len(value) > slot.n {
		return fmt.Errorf("native: parameter %q takes %d floats, got %d", name, slot.n, len(value))
	}

	a.mu.Lock()
	s, ok := a.shaders[id]
	if !ok {
		a.mu.Unlock()
		return fmt.Errorf("native: shader %d: %w", id, ErrUnknownResource)
	}
	copy(s.params[slot.offset:slot.offset+slot.n], value)
	data := encodeParams(s.params[slot.offset : slot.offset+slot.n])
	uniform := s.uniform
	a.mu.Unlock()

	a.queue.WriteBuffer(uniform, uint64(slot.offset*4), data)
	return nil
}

// ReleaseShader releases a shader instance and its uniform buffer.
// The stock module stays compiled until Close.
func (a *HALAdapter) ReleaseShader(id gpucore.ShaderID) {
	a.mu.Lock()
	s, ok := a.shaders[id]
	if ok {
		delete(a.shaders, id)
	}
	a.mu.Unlock()

	if ok {
		a.device.DestroyBuffer(s.uniform)
	}
}

// ShaderParams returns the parameter block of a shader instance.
func (a *HALAdapter) ShaderParams(id gpucore.ShaderID) ([uniformFloats]float32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.shaders[id]
	if !ok {
		return [uniformFloats]float32{}, false
	}
	return s.params, true
}

// === Lifecycle ===

// Stats returns the number of live buffers, shader instances and modules.
func (a *HALAdapter) Stats() (buffers, shaders, modules int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.buffers), len(a.shaders), len(a.modules)
}

// Close destroys every resource created through the adapter, and the
// device itself when the adapter opened it. Close is idempotent.
func (a *HALAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	for id, b := range a.buffers {
		a.device.DestroyBuffer(b.buf)
		delete(a.buffers, id)
	}
	for id, s := range a.shaders {
		a.device.DestroyBuffer(s.uniform)
		delete(a.shaders, id)
	}
	for stock, m := range a.modules {
		a.device.DestroyShaderModule(m)
		delete(a.modules, stock)
	}
	if a.owned {
		a.device.Destroy()
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	return nil
}

// convertBufferUsage maps gpucore usage flags to gputypes flags.
func convertBufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	var out gputypes.BufferUsage
	if u.Contains(gpucore.BufferUsageCopyDst) {
		out |= gputypes.BufferUsageCopyDst
	}
	if u.Contains(gpucore.BufferUsageIndex) {
		out |= gputypes.BufferUsageIndex
	}
	if u.Contains(gpucore.BufferUsageVertex) {
		out |= gputypes.BufferUsageVertex
	}
	if u.Contains(gpucore.BufferUsageUniform) {
		out |= gputypes.BufferUsageUniform
	}
	return out
}

var (
	_ gpucore.GPUAdapter = (*HALAdapter)(nil)
	_ gpucore.Closer     = (*HALAdapter)(nil)
)
