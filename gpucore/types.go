// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent device resources. Each Device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// SamplerID is an opaque handle to a texture sampler.
type SamplerID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group (descriptor binding).
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// RenderPipelineID is an opaque handle to a graphics pipeline.
type RenderPipelineID uint64

// InvalidID is the zero value, representing an invalid/null resource.
// Devices never hand it out for a successfully created resource.
const InvalidID = 0

// ShaderFormat is the binary shader format a device accepts.
type ShaderFormat uint32

// Shader formats.
const (
	// ShaderFormatWGSL is WGSL source text.
	ShaderFormatWGSL ShaderFormat = iota + 1

	// ShaderFormatSPIRV is SPIR-V bytecode as little-endian uint32 words.
	ShaderFormatSPIRV
)

// String returns the string representation of the shader format.
func (f ShaderFormat) String() string {
	switch f {
	case ShaderFormatWGSL:
		return "WGSL"
	case ShaderFormatSPIRV:
		return "SPIR-V"
	default:
		return fmt.Sprintf("ShaderFormat(%d)", uint32(f))
	}
}

// Capabilities describes what a device can consume.
type Capabilities struct {
	// ShaderFormat selects which shader representation CreateShaderModule expects.
	ShaderFormat ShaderFormat

	// TargetFormat is the color format of the render target the UI is drawn into.
	TargetFormat TextureFormat

	// MaxTextureSize is the maximum texture dimension, 0 if unknown.
	MaxTextureSize uint32
}

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapWrite indicates the buffer can be mapped for CPU writes.
	BufferUsageMapWrite BufferUsage = 1 << iota

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform
)

// BufferState is the usage state a buffer is transitioned into by a barrier.
type BufferState uint32

// Buffer states.
const (
	// BufferStateUndefined is the state of a freshly created buffer.
	BufferStateUndefined BufferState = iota

	// BufferStateCopyDst makes the buffer a copy destination.
	BufferStateCopyDst

	// BufferStateVertex makes the buffer readable as vertex (and constant) input.
	BufferStateVertex

	// BufferStateIndex makes the buffer readable as index input.
	BufferStateIndex
)

// String returns the string representation of the buffer state.
func (s BufferState) String() string {
	switch s {
	case BufferStateUndefined:
		return "Undefined"
	case BufferStateCopyDst:
		return "CopyDst"
	case BufferStateVertex:
		return "Vertex"
	case BufferStateIndex:
		return "Index"
	default:
		return fmt.Sprintf("BufferState(%d)", uint32(s))
	}
}

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatBGRA8Unorm is 8-bit BGRA, normalized unsigned integer.
	TextureFormatBGRA8Unorm
)

// BytesPerPixel returns the size of one texel in bytes.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatBGRA8Unorm:
		return 4
	default:
		return 0
	}
}

// String returns the string representation of the texture format.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "RGBA8Unorm"
	case TextureFormatBGRA8Unorm:
		return "BGRA8Unorm"
	default:
		return fmt.Sprintf("TextureFormat(%d)", uint32(f))
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	// TextureUsageCopyDst indicates the texture can be used as a copy destination.
	TextureUsageCopyDst TextureUsage = 1 << iota

	// TextureUsageTextureBinding indicates the texture can be bound as a sampled texture.
	TextureUsageTextureBinding
)

// TextureState is the usage state a texture is transitioned into by a barrier.
type TextureState uint32

// Texture states.
const (
	// TextureStateUndefined is the state of a freshly created texture.
	TextureStateUndefined TextureState = iota

	// TextureStateCopyDst makes the texture a copy destination.
	TextureStateCopyDst

	// TextureStateShaderRead makes the texture readable from the pixel shader.
	TextureStateShaderRead
)

// String returns the string representation of the texture state.
func (s TextureState) String() string {
	switch s {
	case TextureStateUndefined:
		return "Undefined"
	case TextureStateCopyDst:
		return "CopyDst"
	case TextureStateShaderRead:
		return "ShaderRead"
	default:
		return fmt.Sprintf("TextureState(%d)", uint32(s))
	}
}

// FilterMode selects texel filtering.
type FilterMode uint32

// Filter modes.
const (
	// FilterLinear interpolates between texels.
	FilterLinear FilterMode = iota

	// FilterNearest picks the closest texel.
	FilterNearest
)

// IndexFormat is the element type of an index buffer.
type IndexFormat uint32

// Index formats.
const (
	// IndexFormatUint32 is 32-bit unsigned indices.
	IndexFormatUint32 IndexFormat = iota

	// IndexFormatUint16 is 16-bit unsigned indices.
	IndexFormatUint16
)

// ShaderStage is a bitmask of pipeline stages.
type ShaderStage uint32

// Shader stages.
const (
	// ShaderStageVertex is the vertex stage.
	ShaderStageVertex ShaderStage = 1 << iota

	// ShaderStageFragment is the fragment (pixel) stage.
	ShaderStageFragment
)

// VertexFormat describes one vertex attribute.
type VertexFormat uint32

// Vertex attribute formats.
const (
	// VertexFormatFloat32x2 is two 32-bit floats.
	VertexFormatFloat32x2 VertexFormat = iota + 1

	// VertexFormatUnorm8x4 is four normalized bytes.
	VertexFormatUnorm8x4
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeSampler is a texture sampler binding.
	BindingTypeSampler BindingType = iota + 1

	// BindingTypeSampledTexture is a sampled texture binding.
	BindingTypeSampledTexture
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage BufferUsage
}

// TextureDesc describes a 2D texture to create.
type TextureDesc struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

// SamplerDesc describes a sampler to create. Addressing is always clamp-to-edge.
type SamplerDesc struct {
	Label  string
	Filter FilterMode
}

// ShaderModuleDesc describes a shader module. Exactly one of WGSL or SPIRV is
// set, matching Capabilities.ShaderFormat.
type ShaderModuleDesc struct {
	Label string
	WGSL  string
	SPIRV []uint32
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType

	// Visibility is the set of stages that read the binding.
	Visibility ShaderStage
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry describes a single binding in a bind group.
// Exactly one of Sampler or Texture is set.
type BindGroupEntry struct {
	Binding uint32
	Sampler SamplerID
	Texture TextureID
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// PipelineLayoutDesc describes a pipeline layout.
//
// Push constants are addressed as their own range; bind group index 0 in
// CommandRecorder.SetBindGroup refers to BindGroupLayouts[0]. Backends without
// native push constants emulate them (see backend/native).
type PipelineLayoutDesc struct {
	Label             string
	PushConstantSize  uint32
	PushConstantStage ShaderStage
	BindGroupLayouts  []BindGroupLayoutID
}

// VertexAttribute describes one attribute inside a vertex.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint32
	ShaderLocation uint32
}

// VertexLayout describes the single interleaved vertex stream.
type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// RenderPipelineDesc describes an alpha-blended triangle-list pipeline with
// culling disabled.
type RenderPipelineDesc struct {
	Label          string
	Layout         PipelineLayoutID
	VertexShader   ShaderModuleID
	VertexEntry    string
	FragmentShader ShaderModuleID
	FragmentEntry  string
	Vertex         VertexLayout
	TargetFormat   TextureFormat
}

// BufferBarrier transitions a buffer into a new state.
type BufferBarrier struct {
	Buffer BufferID
	State  BufferState
}

// TextureBarrier transitions a texture into a new state.
type TextureBarrier struct {
	Texture TextureID
	State   TextureState
}

// Footprint describes how texel rows are laid out in a source buffer for a
// buffer-to-texture copy.
type Footprint struct {
	// Offset is the byte offset of the first row in the buffer.
	Offset uint64

	// Width and Height are the copied extent in texels.
	Width  uint32
	Height uint32

	// RowPitch is the distance in bytes between consecutive rows. It is at
	// least Width * bytes-per-pixel and usually padded to an alignment.
	RowPitch uint32

	// Format is the texel format of the rows.
	Format TextureFormat
}

// Viewport is the viewport rectangle in target pixels.
type Viewport struct {
	X, Y, Width, Height float32
}

// Rect is an integer rectangle in target pixels.
type Rect struct {
	X, Y, Width, Height int32
}

// VertexBufferView binds a range of a buffer as a vertex stream.
type VertexBufferView struct {
	Buffer BufferID
	Offset uint64
	Size   uint64
	Stride uint32
}

// IndexBufferView binds a range of a buffer as the index stream.
type IndexBufferView struct {
	Buffer BufferID
	Offset uint64
	Size   uint64
	Format IndexFormat
}
