// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"sort"
	"sync"
)

// AdapterFactory is a function that creates a new adapter instance.
// Factories are registered via Register() and called by NewAdapter().
type AdapterFactory func() (GPUAdapter, error)

// Registry state - protected by mutex for thread-safe access.
var (
	registryMu sync.RWMutex
	adapters   = make(map[string]AdapterFactory)
)

// Register registers an adapter factory with the given name.
// This function is typically called from init() in backend packages,
// following the database/sql driver pattern:
//
//	func init() {
//	    gpucore.Register("memory", func() (gpucore.GPUAdapter, error) {
//	        return New(), nil
//	    })
//	}
//
// Register panics if factory is nil or the name is already registered.
func Register(name string, factory AdapterFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("gpucore: Register factory is nil")
	}
	if _, dup := adapters[name]; dup {
		panic("gpucore: Register called twice for " + name)
	}
	adapters[name] = factory
}

// Unregister removes an adapter from the registry.
// If the adapter is not registered, this is a no-op.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(adapters, name)
}

// NewAdapter creates a new adapter instance by name.
//
// Example:
//
//	import _ "github.com/gogpu/subscene/backend/native" // Register "native"
//
//	adapter, err := gpucore.NewAdapter("native")
//
// The error message includes a hint about forgotten imports.
func NewAdapter(name string) (GPUAdapter, error) {
	registryMu.RLock()
	factory, ok := adapters[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("gpucore: unknown adapter %q (forgotten import?)", name)
	}
	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("gpucore: create adapter %q: %w", name, err)
	}
	return a, nil
}

// Adapters returns a sorted list of registered adapter names.
func Adapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an adapter with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := adapters[name]
	return ok
}
