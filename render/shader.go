// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/uirender/gpucore"
)

//go:embed shaders/ui.wgsl
var uiShaderWGSL string

// Shader entry points.
const (
	vertexEntry   = "vs_main"
	fragmentEntry = "fs_main"
)

// uiShaderSPIRV compiles the UI shader once per process.
var uiShaderSPIRV = sync.OnceValues(func() ([]uint32, error) {
	return compileSPIRV(uiShaderWGSL)
})

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("render: compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("render: compile shader: SPIR-V length %d not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// shaderModuleDesc returns the UI shader in the representation the device
// consumes.
func shaderModuleDesc(format gpucore.ShaderFormat) (*gpucore.ShaderModuleDesc, error) {
	switch format {
	case gpucore.ShaderFormatWGSL:
		return &gpucore.ShaderModuleDesc{Label: "uirender.ui", WGSL: uiShaderWGSL}, nil
	case gpucore.ShaderFormatSPIRV:
		words, err := uiShaderSPIRV()
		if err != nil {
			return nil, err
		}
		return &gpucore.ShaderModuleDesc{Label: "uirender.ui", SPIRV: words}, nil
	default:
		return nil, fmt.Errorf("render: unsupported shader format %s", format)
	}
}
