// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/subscene/gpucore"
)

//go:embed shaders/solid.wgsl
var solidShaderWGSL string

// Uniform layout of the Params struct in solid.wgsl:
//
//	solid_color vec4  floats 0..4
//	line_width  vec2  floats 4..6
//	point_size  vec2  floats 6..8
const (
	uniformFloats = 8
	uniformSize   = uniformFloats * 4
)

type paramSlot struct {
	offset, n int
}

var paramSlots = map[string]paramSlot{
	gpucore.ParamSolidColor: {0, 4},
	gpucore.ParamLineWidth:  {4, 2},
	gpucore.ParamPointSize:  {6, 2},
}

// stockSPIRV compiles the stock WGSL once per process.
var stockSPIRV = sync.OnceValues(func() ([]uint32, error) {
	return compileWGSL(solidShaderWGSL)
})

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

func encodeParams(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
