// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"

	"github.com/gogpu/subscene/gpucore"
)

// Package errors for the HAL adapter.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNilHALDevice is returned when no usable hal.Device was supplied.
	ErrNilHALDevice = errors.New("native: nil HAL device")

	// ErrUnknownResource is returned for ids the adapter never issued or
	// already released.
	ErrUnknownResource = errors.New("native: unknown resource id")

	// ErrClosed is returned after Close.
	ErrClosed = errors.Join(errors.New("native: adapter closed"), gpucore.ErrUnavailable)
)
