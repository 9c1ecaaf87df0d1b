// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/uirender/gpucore"
)

// Bindings of the per-texture group.
const (
	samplerBinding = 0
	textureBinding = 1
)

// pipeline holds the fixed device objects every draw uses.
type pipeline struct {
	dev gpucore.Device

	sampler       gpucore.SamplerID
	shader        gpucore.ShaderModuleID
	textureLayout gpucore.BindGroupLayoutID
	layout        gpucore.PipelineLayoutID
	pipeline      gpucore.RenderPipelineID
}

// newPipeline creates the sampler, shader, layouts and the alpha-blended
// triangle-list pipeline. On failure everything created so far is destroyed.
func newPipeline(dev gpucore.Device, filter gpucore.FilterMode, target gpucore.TextureFormat) (*pipeline, error) {
	p := &pipeline{dev: dev}
	if err := p.init(filter, target); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *pipeline) init(filter gpucore.FilterMode, target gpucore.TextureFormat) error {
	var err error

	p.sampler, err = p.dev.CreateSampler(&gpucore.SamplerDesc{Label: "uirender.sampler", Filter: filter})
	if err != nil {
		return fmt.Errorf("render: create sampler: %w", err)
	}

	desc, err := shaderModuleDesc(p.dev.Capabilities().ShaderFormat)
	if err != nil {
		return err
	}
	p.shader, err = p.dev.CreateShaderModule(desc)
	if err != nil {
		return fmt.Errorf("render: create shader module: %w", err)
	}

	p.textureLayout, err = p.dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "uirender.texture_layout",
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: samplerBinding, Type: gpucore.BindingTypeSampler, Visibility: gpucore.ShaderStageFragment},
			{Binding: textureBinding, Type: gpucore.BindingTypeSampledTexture, Visibility: gpucore.ShaderStageFragment},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create bind group layout: %w", err)
	}

	p.layout, err = p.dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		Label:             "uirender.pipeline_layout",
		PushConstantSize:  pushConstantSize,
		PushConstantStage: gpucore.ShaderStageVertex,
		BindGroupLayouts:  []gpucore.BindGroupLayoutID{p.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create pipeline layout: %w", err)
	}

	p.pipeline, err = p.dev.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Label:          "uirender.pipeline",
		Layout:         p.layout,
		VertexShader:   p.shader,
		VertexEntry:    vertexEntry,
		FragmentShader: p.shader,
		FragmentEntry:  fragmentEntry,
		Vertex:         vertexLayout(),
		TargetFormat:   target,
	})
	if err != nil {
		return fmt.Errorf("render: create render pipeline: %w", err)
	}
	return nil
}

// bindTexture creates the per-texture bind group.
func (p *pipeline) bindTexture(tex gpucore.TextureID) (gpucore.BindGroupID, error) {
	id, err := p.dev.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  "uirender.texture",
		Layout: p.textureLayout,
		Entries: []gpucore.BindGroupEntry{
			{Binding: samplerBinding, Sampler: p.sampler},
			{Binding: textureBinding, Texture: tex},
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("render: create texture bind group: %w", err)
	}
	return id, nil
}

// destroy releases everything in reverse creation order.
func (p *pipeline) destroy() {
	if p.pipeline != gpucore.InvalidID {
		p.dev.DestroyRenderPipeline(p.pipeline)
		p.pipeline = gpucore.InvalidID
	}
	if p.layout != gpucore.InvalidID {
		p.dev.DestroyPipelineLayout(p.layout)
		p.layout = gpucore.InvalidID
	}
	if p.textureLayout != gpucore.InvalidID {
		p.dev.DestroyBindGroupLayout(p.textureLayout)
		p.textureLayout = gpucore.InvalidID
	}
	if p.shader != gpucore.InvalidID {
		p.dev.DestroyShaderModule(p.shader)
		p.shader = gpucore.InvalidID
	}
	if p.sampler != gpucore.InvalidID {
		p.dev.DestroySampler(p.sampler)
		p.sampler = gpucore.InvalidID
	}
}
