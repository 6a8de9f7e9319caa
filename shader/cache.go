// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader deduplicates configured stock shader instances.
package shader

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gogpu/subscene/gpucore"
)

// ErrReleased is returned by Get after ReleaseAll.
var ErrReleased = errors.New("shader: cache released")

// Fingerprint identifies one shader configuration. Float parameters are
// compared by their exact bit patterns, so near-equal colors produce
// distinct entries.
type Fingerprint struct {
	Stock gpucore.StockShader
	Color [4]uint32
	Size  uint32
}

// SolidFingerprint returns the fingerprint of a flat-colored solid shader.
func SolidFingerprint(c gpucore.Color) Fingerprint {
	return Fingerprint{Stock: gpucore.StockSolid, Color: c.Bits()}
}

// ThickLineFingerprint returns the fingerprint of a thick line shader.
func ThickLineFingerprint(c gpucore.Color, width float32) Fingerprint {
	return Fingerprint{Stock: gpucore.StockThickLine, Color: c.Bits(), Size: math.Float32bits(width)}
}

// FatPointFingerprint returns the fingerprint of a fat point shader.
func FatPointFingerprint(c gpucore.Color, size float32) Fingerprint {
	return Fingerprint{Stock: gpucore.StockFatPoint, Color: c.Bits(), Size: math.Float32bits(size)}
}

// RGBA returns the color the fingerprint was built from.
func (f Fingerprint) RGBA() gpucore.Color {
	return gpucore.Color{
		R: math.Float32frombits(f.Color[0]),
		G: math.Float32frombits(f.Color[1]),
		B: math.Float32frombits(f.Color[2]),
		A: math.Float32frombits(f.Color[3]),
	}
}

// SizeValue returns the line width or point size.
func (f Fingerprint) SizeValue() float32 {
	return math.Float32frombits(f.Size)
}

// String returns a readable description.
func (f Fingerprint) String() string {
	c := f.RGBA()
	if f.Stock == gpucore.StockSolid {
		return fmt.Sprintf("%s(%g,%g,%g,%g)", f.Stock, c.R, c.G, c.B, c.A)
	}
	return fmt.Sprintf("%s(%g,%g,%g,%g;%g)", f.Stock, c.R, c.G, c.B, c.A, f.SizeValue())
}

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Entries is the number of live shader instances.
	Entries int
	// Hits is the number of Get calls served from the cache.
	Hits uint64
	// Misses is the number of Get calls that acquired a shader.
	Misses uint64
	// Failures is the number of acquisitions that failed.
	Failures uint64
	// Released is the number of shader instances released.
	Released uint64
}

// Cache maps fingerprints to shared shader instances. At most one instance
// exists per fingerprint until ReleaseAll.
//
// A Cache is safe for concurrent use; overrides of different shapes share
// one cache owned by the plugin.
type Cache struct {
	adapter gpucore.GPUAdapter

	mu       sync.Mutex
	entries  map[Fingerprint]gpucore.ShaderID
	released bool

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
	freed    atomic.Uint64
}

// NewCache creates a cache that acquires shaders from adapter.
func NewCache(adapter gpucore.GPUAdapter) *Cache {
	return &Cache{
		adapter: adapter,
		entries: make(map[Fingerprint]gpucore.ShaderID),
	}
}

// Get returns the shader instance for fp, acquiring and configuring one on
// first use. The solidColor parameter is set to the fingerprint color with
// alpha forced to 1.
func (c *Cache) Get(fp Fingerprint) (gpucore.ShaderID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return gpucore.InvalidID, ErrReleased
	}
	if id, ok := c.entries[fp]; ok {
		c.hits.Add(1)
		return id, nil
	}
	c.misses.Add(1)

	if c.adapter == nil {
		c.failures.Add(1)
		return gpucore.InvalidID, fmt.Errorf("shader: no adapter: %w", gpucore.ErrUnavailable)
	}
	id, err := c.adapter.AcquireShader(fp.Stock)
	if err != nil {
		c.failures.Add(1)
		return gpucore.InvalidID, fmt.Errorf("shader: acquire %s: %w", fp.Stock, err)
	}
	if err := c.configure(id, fp); err != nil {
		c.adapter.ReleaseShader(id)
		c.failures.Add(1)
		return gpucore.InvalidID, fmt.Errorf("shader: configure %s: %w", fp, err)
	}
	c.entries[fp] = id
	return id, nil
}

func (c *Cache) configure(id gpucore.ShaderID, fp Fingerprint) error {
	if err := c.adapter.SetShaderParameter(id, gpucore.ParamSolidColor, fp.RGBA().Opaque().Slice()); err != nil {
		return err
	}
	size := fp.SizeValue()
	switch fp.Stock {
	case gpucore.StockThickLine:
		return c.adapter.SetShaderParameter(id, gpucore.ParamLineWidth, []float32{size, size})
	case gpucore.StockFatPoint:
		return c.adapter.SetShaderParameter(id, gpucore.ParamPointSize, []float32{size, size})
	}
	return nil
}

// ReleaseAll releases every cached instance and closes the cache.
// Later calls release nothing and return 0.
func (c *Cache) ReleaseAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for fp, id := range c.entries {
		c.adapter.ReleaseShader(id)
		delete(c.entries, fp)
		n++
	}
	c.released = true
	c.freed.Add(uint64(n))
	return n
}

// Len returns the number of cached instances.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:  c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Failures: c.failures.Load(),
		Released: c.freed.Load(),
	}
}
