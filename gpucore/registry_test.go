// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"strings"
	"testing"
)

// stubAdapter is a minimal adapter implementation for testing.
type stubAdapter struct {
	name string
}

func (a *stubAdapter) CreateBuffer(string, int, BufferUsage) (BufferID, error) { return 1, nil }
func (a *stubAdapter) WriteBuffer(BufferID, uint64, []byte) error             { return nil }
func (a *stubAdapter) DestroyBuffer(BufferID)                                 {}
func (a *stubAdapter) AcquireShader(StockShader) (ShaderID, error)            { return 1, nil }
func (a *stubAdapter) SetShaderParameter(ShaderID, string, []float32) error   { return nil }
func (a *stubAdapter) ReleaseShader(ShaderID)                                 {}

// resetRegistry clears all registered adapters for test isolation.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters = make(map[string]AdapterFactory)
}

func TestRegisterAndNewAdapter(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	Register("test", func() (GPUAdapter, error) {
		return &stubAdapter{name: "test"}, nil
	})

	a, err := NewAdapter("test")
	if err != nil {
		t.Fatalf("NewAdapter failed: %v", err)
	}
	stub, ok := a.(*stubAdapter)
	if !ok {
		t.Fatal("adapter is not a stubAdapter")
	}
	if stub.name != "test" {
		t.Errorf("got name %q, want %q", stub.name, "test")
	}
}

func TestNewAdapterUnknown(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	_, err := NewAdapter("nope")
	if err == nil {
		t.Fatal("expected error for unknown adapter")
	}
	if !strings.Contains(err.Error(), "forgotten import") {
		t.Errorf("error %q should hint at a forgotten import", err)
	}
}

func TestNewAdapterFactoryError(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	Register("broken", func() (GPUAdapter, error) {
		return nil, ErrUnavailable
	})

	_, err := NewAdapter("broken")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want wrapped ErrUnavailable", err)
	}
}

func TestRegisterPanics(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	t.Run("nil factory", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for nil factory")
			}
		}()
		Register("nil", nil)
	})

	t.Run("duplicate", func(t *testing.T) {
		Register("dup", func() (GPUAdapter, error) { return &stubAdapter{}, nil })
		defer func() {
			if recover() == nil {
				t.Error("expected panic for duplicate name")
			}
		}()
		Register("dup", func() (GPUAdapter, error) { return &stubAdapter{}, nil })
	})
}

func TestAdaptersSorted(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	for _, name := range []string{"native", "memory", "alpha"} {
		Register(name, func() (GPUAdapter, error) { return &stubAdapter{}, nil })
	}

	got := Adapters()
	want := []string{"alpha", "memory", "native"}
	if len(got) != len(want) {
		t.Fatalf("Adapters() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Adapters()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if !IsRegistered("memory") {
		t.Error("memory should be registered")
	}
	Unregister("memory")
	if IsRegistered("memory") {
		t.Error("memory should be unregistered")
	}
}

func TestColorEqual(t *testing.T) {
	negZero := float32(0)
	negZero = -negZero

	tests := []struct {
		name string
		a, b Color
		want bool
	}{
		{"identical", RGBA(1, 0.5, 0.25, 1), RGBA(1, 0.5, 0.25, 1), true},
		{"alpha differs", RGBA(1, 0, 0, 1), RGBA(1, 0, 0, 0.5), false},
		{"signed zero", RGBA(0, 0, 0, 1), RGBA(negZero, 0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorOpaque(t *testing.T) {
	c := RGBA(0.2, 0.4, 0.6, 0.1).Opaque()
	if c.A != 1 {
		t.Errorf("Opaque alpha = %v, want 1", c.A)
	}
	if got := c.Slice(); len(got) != 4 || got[0] != 0.2 {
		t.Errorf("Slice() = %v", got)
	}
}

func TestBufferUsageContains(t *testing.T) {
	if !VertexUsage.Contains(BufferUsageVertex) {
		t.Error("VertexUsage should contain BufferUsageVertex")
	}
	if VertexUsage.Contains(BufferUsageIndex) {
		t.Error("VertexUsage should not contain BufferUsageIndex")
	}
}
