// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/subscene"
)

// Open creates an adapter on the first adapter of a registered HAL backend.
// The adapter owns the device and destroys it on Close.
func Open(backend gputypes.Backend) (*HALAdapter, error) {
	b, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: backend %v not registered", ErrNoGPU, backend)
	}
	return openOn(b)
}

// NewHeadless creates an adapter on the noop HAL device. Resources are
// tracked but nothing reaches a GPU, which suits tests and dry runs.
func NewHeadless() (*HALAdapter, error) {
	return openOn(noop.API{})
}

func openOn(b hal.Backend) (*HALAdapter, error) {
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}

	a, err := NewHALAdapter(openDev.Device, openDev.Queue, &limits)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	a.instance = instance
	a.owned = true
	subscene.Logger().Info("native: device opened", "adapter", selected.Info.Name)
	return a, nil
}

// FromProvider creates an adapter sharing the device of an external
// provider such as a gogpu window. The provider must also implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// The shared device is not destroyed on Close.
func FromProvider(provider gpucontext.DeviceProvider) (*HALAdapter, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("native: provider does not expose HAL types: %w", ErrNilHALDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("native: provider HalDevice is not hal.Device: %w", ErrNilHALDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("native: provider HalQueue is not hal.Queue: %w", ErrNilHALDevice)
	}
	return NewHALAdapter(device, queue, nil)
}
