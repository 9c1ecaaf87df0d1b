// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"image/color"
	"math"

	"github.com/gogpu/uirender/gpucore"
	"golang.org/x/image/math/f32"
)

// Vertex is one UI vertex as produced by the layout engine.
type Vertex struct {
	Position f32.Vec2
	Color    color.RGBA
	TexCoord f32.Vec2
}

// Wire sizes.
const (
	// VertexSize is the packed vertex size:
	// position (vec2<f32>) + color (unorm8x4) + uv (vec2<f32>) = 20 bytes.
	VertexSize = 20

	// IndexSize is the size of one uint32 index.
	IndexSize = 4

	// BytesPerPixel is the size of one texel of the internal texture format.
	BytesPerPixel = 4

	// pushConstantSize is the combined matrix (mat4x4<f32>) plus translation (vec2<f32>).
	pushConstantSize = 64 + 8
)

// putVertices packs vs into dst, which must hold len(vs)*VertexSize bytes.
func putVertices(dst []byte, vs []Vertex) {
	for i := range vs {
		v := &vs[i]
		b := dst[i*VertexSize : (i+1)*VertexSize]
		binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Position[1]))
		b[8], b[9], b[10], b[11] = v.Color.R, v.Color.G, v.Color.B, v.Color.A
		binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(v.TexCoord[0]))
		binary.LittleEndian.PutUint32(b[16:20], math.Float32bits(v.TexCoord[1]))
	}
}

// putIndices packs is into dst, which must hold len(is)*IndexSize bytes.
func putIndices(dst []byte, is []uint32) {
	for i, idx := range is {
		binary.LittleEndian.PutUint32(dst[i*IndexSize:], idx)
	}
}

// putConstants packs the combined matrix in column-major order followed by
// the translation, the layout of the shader's Constants block.
func putConstants(dst *[pushConstantSize]byte, m *f32.Mat4, translation f32.Vec2) {
	off := 0
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(m[4*row+col]))
			off += 4
		}
	}
	binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(translation[0]))
	binary.LittleEndian.PutUint32(dst[off+4:], math.Float32bits(translation[1]))
}

// vertexLayout describes Vertex to the pipeline.
func vertexLayout() gpucore.VertexLayout {
	return gpucore.VertexLayout{
		Stride: VertexSize,
		Attributes: []gpucore.VertexAttribute{
			{Format: gpucore.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gpucore.VertexFormatUnorm8x4, Offset: 8, ShaderLocation: 1},
			{Format: gpucore.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 2},
		},
	}
}
