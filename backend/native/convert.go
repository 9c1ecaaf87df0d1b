// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/uirender/gpucore"
)

// convertBufferUsage maps gpucore usage flags to HAL usage flags.
// Mappable buffers are backed by a CPU shadow and written through the queue,
// so MapWrite becomes CopyDst on the device side.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageIndex != 0 {
		result |= gputypes.BufferUsageIndex
	}
	if usage&gpucore.BufferUsageVertex != 0 {
		result |= gputypes.BufferUsageVertex
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	return result
}

// convertBufferState maps a barrier state to the HAL usage it stands for.
func convertBufferState(state gpucore.BufferState) gputypes.BufferUsage {
	switch state {
	case gpucore.BufferStateCopyDst:
		return gputypes.BufferUsageCopyDst
	case gpucore.BufferStateVertex:
		return gputypes.BufferUsageVertex
	case gpucore.BufferStateIndex:
		return gputypes.BufferUsageIndex
	default:
		return gputypes.BufferUsageNone
	}
}

func convertTextureUsage(usage gpucore.TextureUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageTextureBinding != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	return result
}

func convertTextureState(state gpucore.TextureState) gputypes.TextureUsage {
	switch state {
	case gpucore.TextureStateCopyDst:
		return gputypes.TextureUsageCopyDst
	case gpucore.TextureStateShaderRead:
		return gputypes.TextureUsageTextureBinding
	default:
		return gputypes.TextureUsageNone
	}
}

func convertTextureFormat(format gpucore.TextureFormat) (gputypes.TextureFormat, error) {
	switch format {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// coreTextureFormat maps a surface format back to a target format. sRGB
// surfaces share the layout of their linear counterparts.
func coreTextureFormat(format gputypes.TextureFormat) (gpucore.TextureFormat, bool) {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return gpucore.TextureFormatRGBA8Unorm, true
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatBGRA8UnormSrgb:
		return gpucore.TextureFormatBGRA8Unorm, true
	default:
		return 0, false
	}
}

func convertFilterMode(filter gpucore.FilterMode) gputypes.FilterMode {
	if filter == gpucore.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func convertIndexFormat(format gpucore.IndexFormat) gputypes.IndexFormat {
	if format == gpucore.IndexFormatUint16 {
		return gputypes.IndexFormatUint16
	}
	return gputypes.IndexFormatUint32
}

func convertShaderStages(stages gpucore.ShaderStage) gputypes.ShaderStages {
	var result gputypes.ShaderStages
	if stages&gpucore.ShaderStageVertex != 0 {
		result |= gputypes.ShaderStageVertex
	}
	if stages&gpucore.ShaderStageFragment != 0 {
		result |= gputypes.ShaderStageFragment
	}
	return result
}

func convertVertexFormat(format gpucore.VertexFormat) (gputypes.VertexFormat, error) {
	switch format {
	case gpucore.VertexFormatFloat32x2:
		return gputypes.VertexFormatFloat32x2, nil
	case gpucore.VertexFormatUnorm8x4:
		return gputypes.VertexFormatUnorm8x4, nil
	default:
		return 0, fmt.Errorf("%w: vertex format %d", ErrUnsupportedFormat, uint32(format))
	}
}

func convertVertexLayout(layout gpucore.VertexLayout) (gputypes.VertexBufferLayout, error) {
	attrs := make([]gputypes.VertexAttribute, len(layout.Attributes))
	for i, a := range layout.Attributes {
		format, err := convertVertexFormat(a.Format)
		if err != nil {
			return gputypes.VertexBufferLayout{}, err
		}
		attrs[i] = gputypes.VertexAttribute{
			Format:         format,
			Offset:         uint64(a.Offset),
			ShaderLocation: a.ShaderLocation,
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(layout.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) (gputypes.BindGroupLayoutEntry, error) {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: convertShaderStages(entry.Visibility),
	}
	switch entry.Type {
	case gpucore.BindingTypeSampler:
		result.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	case gpucore.BindingTypeSampledTexture:
		result.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	default:
		return result, fmt.Errorf("%w: binding %d has type %d", ErrInvalidDescriptor, entry.Binding, uint32(entry.Type))
	}
	return result, nil
}

// constantsLayoutEntry is the single dynamic uniform binding that stands in
// for push constants.
func constantsLayoutEntry() gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer: &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeUniform,
			HasDynamicOffset: true,
		},
	}
}

// scissorRect converts a scissor rectangle to the unsigned form the HAL
// takes, clamping negative origins and extents to zero.
func scissorRect(r gpucore.Rect) (x, y, w, h uint32) {
	return uint32(max(r.X, 0)), uint32(max(r.Y, 0)), uint32(max(r.Width, 0)), uint32(max(r.Height, 0))
}

// dirtySpan returns the half-open byte range in which cur differs from old.
// lo == hi means the slices are equal. Both slices must have the same length.
func dirtySpan(old, cur []byte) (lo, hi int) {
	lo = 0
	for lo < len(cur) && old[lo] == cur[lo] {
		lo++
	}
	if lo == len(cur) {
		return lo, lo
	}
	hi = len(cur)
	for hi > lo && old[hi-1] == cur[hi-1] {
		hi--
	}
	return lo, hi
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
