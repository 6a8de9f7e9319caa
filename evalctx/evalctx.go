// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package evalctx partitions mutable state by execution context.
//
// The host may evaluate a node on a background context while the render
// path reads it on the foreground context. Values written from one context
// are never visible from another: each context owns its own cell in a
// [Slot], created on first access from that context's default.
package evalctx

import (
	"fmt"
	"sync"
)

// ID identifies an execution context.
type ID uint32

const (
	// Normal is the interactive foreground context.
	Normal ID = 0

	// Background is the host's background evaluation context.
	Background ID = 1
)

// String returns a readable context name.
func (id ID) String() string {
	switch id {
	case Normal:
		return "normal"
	case Background:
		return "background"
	default:
		return fmt.Sprintf("ctx(%d)", uint32(id))
	}
}

// Slot is a value of type T with one independent copy per context.
//
// The map of cells is guarded so that contexts may create their cells
// concurrently. A cell is only read or written from its own context.
type Slot[T any] struct {
	mu    sync.Mutex
	def   T
	cells map[ID]*T
}

// NewSlot creates a slot whose cells start as def.
func NewSlot[T any](def T) *Slot[T] {
	return &Slot[T]{def: def, cells: make(map[ID]*T)}
}

func (s *Slot[T]) cell(id ID) *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cells[id]
	if !ok {
		v := s.def
		c = &v
		s.cells[id] = c
	}
	return c
}

// Get returns the value for context id.
func (s *Slot[T]) Get(id ID) T {
	c := s.cell(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return *c
}

// Set stores v for context id only.
func (s *Slot[T]) Set(id ID, v T) {
	c := s.cell(id)
	s.mu.Lock()
	*c = v
	s.mu.Unlock()
}

// Update applies fn to the value of context id and stores the result.
func (s *Slot[T]) Update(id ID, fn func(T) T) T {
	c := s.cell(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	*c = fn(*c)
	return *c
}

// Contexts returns the number of contexts that have touched the slot.
func (s *Slot[T]) Contexts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cells)
}

// Reset drops the cell of context id; the next access starts from the default.
func (s *Slot[T]) Reset(id ID) {
	s.mu.Lock()
	delete(s.cells, id)
	s.mu.Unlock()
}
