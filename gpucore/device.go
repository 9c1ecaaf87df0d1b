// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Device abstracts the GPU device the renderer draws with.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Create* never returns InvalidID together with a nil error
//   - IDs become invalid after destruction and must not be reused
//
// The renderer uses a Device from a single goroutine. Implementations
// need not be safe for concurrent use unless they say so.
type Device interface {
	// Capabilities reports the shader format and target format.
	Capabilities() Capabilities

	// CreateBuffer creates a buffer. Buffers with BufferUsageMapWrite can be
	// mapped with MapBuffer.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// MapBuffer returns CPU-writable memory covering the whole buffer. The
	// slice is valid until UnmapBuffer. Writes become visible to copies
	// recorded afterwards.
	MapBuffer(id BufferID) ([]byte, error)

	// UnmapBuffer ends the mapping started by MapBuffer.
	UnmapBuffer(id BufferID)

	// CreateTexture creates a 2D texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// CreateSampler creates a sampler.
	CreateSampler(desc *SamplerDesc) (SamplerID, error)

	// DestroySampler releases a sampler.
	DestroySampler(id SamplerID)

	// CreateShaderModule creates a shader module in the format reported by
	// Capabilities.
	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout creates a pipeline layout.
	CreatePipelineLayout(desc *PipelineLayoutDesc) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateRenderPipeline creates a graphics pipeline.
	CreateRenderPipeline(desc *RenderPipelineDesc) (RenderPipelineID, error)

	// DestroyRenderPipeline releases a graphics pipeline.
	DestroyRenderPipeline(id RenderPipelineID)

	// CreateBindGroup creates a bind group.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)
}

// CommandRecorder records the commands of one frame.
//
// Commands execute in recording order once the host submits the frame.
// Copies and barriers may be interleaved freely with draws; backends that
// need render passes split them as required.
type CommandRecorder interface {
	// SetPipeline binds the graphics pipeline for subsequent draws.
	SetPipeline(pipeline RenderPipelineID)

	// SetPipelineLayout binds the layout that push constants and bind
	// groups are resolved against.
	SetPipelineLayout(layout PipelineLayoutID)

	// BufferBarriers transitions buffers into new states.
	BufferBarriers(barriers ...BufferBarrier)

	// TextureBarriers transitions textures into new states.
	TextureBarriers(barriers ...TextureBarrier)

	// CopyBufferRegion copies size bytes from src at srcOffset into dst at dstOffset.
	CopyBufferRegion(dst BufferID, dstOffset uint64, src BufferID, srcOffset uint64, size uint64)

	// CopyBufferToTexture copies rows laid out as footprint in src into the
	// whole of dst.
	CopyBufferToTexture(dst TextureID, src BufferID, footprint Footprint)

	// SetViewport sets the viewport.
	SetViewport(viewport Viewport)

	// SetScissor sets the scissor rectangle.
	SetScissor(rect Rect)

	// SetVertexBuffer binds a vertex stream to a slot.
	SetVertexBuffer(slot uint32, view VertexBufferView)

	// SetIndexBuffer binds the index stream.
	SetIndexBuffer(view IndexBufferView)

	// SetBindGroup binds a bind group at the given index of the pipeline layout.
	SetBindGroup(index uint32, group BindGroupID)

	// SetPushConstants uploads small per-draw data into the command stream.
	SetPushConstants(offset uint32, data []byte)

	// DrawIndexed issues an indexed draw.
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}
