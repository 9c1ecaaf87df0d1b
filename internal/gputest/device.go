// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gputest provides an in-memory gpucore.Device that keeps real byte
// storage for buffers and textures, so uploads can be verified byte for byte,
// and a Recorder that executes copies immediately while logging every command.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/uirender/gpucore"
)

// Errors returned by the fake device.
var (
	// ErrInjected is the default error used by FailNext.
	ErrInjected = errors.New("gputest: injected failure")

	// ErrUnknownResource is returned for IDs that were never created or were destroyed.
	ErrUnknownResource = errors.New("gputest: unknown resource")

	// ErrNotMappable is returned when mapping a buffer without BufferUsageMapWrite.
	ErrNotMappable = errors.New("gputest: buffer is not mappable")

	// ErrInvalidDescriptor is returned for descriptors a real device would reject.
	ErrInvalidDescriptor = errors.New("gputest: invalid descriptor")
)

// Op names a device operation for failure injection.
type Op string

// Device operations that can be made to fail.
const (
	OpCreateBuffer          Op = "CreateBuffer"
	OpMapBuffer             Op = "MapBuffer"
	OpCreateTexture         Op = "CreateTexture"
	OpCreateSampler         Op = "CreateSampler"
	OpCreateShaderModule    Op = "CreateShaderModule"
	OpCreateBindGroupLayout Op = "CreateBindGroupLayout"
	OpCreatePipelineLayout  Op = "CreatePipelineLayout"
	OpCreateRenderPipeline  Op = "CreateRenderPipeline"
	OpCreateBindGroup       Op = "CreateBindGroup"
)

// Buffer is the fake's view of a buffer.
type Buffer struct {
	Desc   gpucore.BufferDesc
	Data   []byte
	Mapped bool
	State  gpucore.BufferState
}

// Texture is the fake's view of a texture. Data holds tightly packed rows,
// top row first.
type Texture struct {
	Desc  gpucore.TextureDesc
	Data  []byte
	State gpucore.TextureState
}

// Device is a recording in-memory gpucore.Device.
//
// All IDs come from one counter, so an ID identifies a resource regardless of
// its kind. Device is safe for concurrent use.
type Device struct {
	mu sync.Mutex

	caps   gpucore.Capabilities
	nextID uint64

	buffers          map[gpucore.BufferID]*Buffer
	textures         map[gpucore.TextureID]*Texture
	samplers         map[gpucore.SamplerID]gpucore.SamplerDesc
	shaders          map[gpucore.ShaderModuleID]gpucore.ShaderModuleDesc
	bindGroupLayouts map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc
	pipelineLayouts  map[gpucore.PipelineLayoutID]gpucore.PipelineLayoutDesc
	pipelines        map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc
	bindGroups       map[gpucore.BindGroupID]gpucore.BindGroupDesc

	destroyed map[uint64]bool
	fail      map[Op]error
	created   map[Op]int
}

// DefaultCapabilities is what NewDevice reports: WGSL shaders and a BGRA target.
var DefaultCapabilities = gpucore.Capabilities{
	ShaderFormat:   gpucore.ShaderFormatWGSL,
	TargetFormat:   gpucore.TextureFormatBGRA8Unorm,
	MaxTextureSize: 8192,
}

// NewDevice creates an empty fake device with DefaultCapabilities.
func NewDevice() *Device {
	return NewDeviceWithCapabilities(DefaultCapabilities)
}

// NewDeviceWithCapabilities creates an empty fake device reporting caps.
func NewDeviceWithCapabilities(caps gpucore.Capabilities) *Device {
	return &Device{
		caps:             caps,
		buffers:          make(map[gpucore.BufferID]*Buffer),
		textures:         make(map[gpucore.TextureID]*Texture),
		samplers:         make(map[gpucore.SamplerID]gpucore.SamplerDesc),
		shaders:          make(map[gpucore.ShaderModuleID]gpucore.ShaderModuleDesc),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]gpucore.BindGroupLayoutDesc),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]gpucore.PipelineLayoutDesc),
		pipelines:        make(map[gpucore.RenderPipelineID]gpucore.RenderPipelineDesc),
		bindGroups:       make(map[gpucore.BindGroupID]gpucore.BindGroupDesc),
		destroyed:        make(map[uint64]bool),
		fail:             make(map[Op]error),
		created:          make(map[Op]int),
	}
}

// FailNext makes the next call of op fail with err (ErrInjected if nil).
func (d *Device) FailNext(op Op, err error) {
	if err == nil {
		err = ErrInjected
	}
	d.mu.Lock()
	d.fail[op] = err
	d.mu.Unlock()
}

// Created returns how many resources op has successfully created.
func (d *Device) Created(op Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[op]
}

// Destroyed reports whether the resource with the given ID was destroyed.
func (d *Device) Destroyed(id uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[id]
}

// Buffer returns the live buffer with the given ID.
func (d *Device) Buffer(id gpucore.BufferID) (*Buffer, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	return b, ok
}

// Texture returns the live texture with the given ID.
func (d *Device) Texture(id gpucore.TextureID) (*Texture, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	return t, ok
}

// BindGroup returns the descriptor of a live bind group.
func (d *Device) BindGroup(id gpucore.BindGroupID) (gpucore.BindGroupDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.bindGroups[id]
	return g, ok
}

// Sampler returns the descriptor of a live sampler.
func (d *Device) Sampler(id gpucore.SamplerID) (gpucore.SamplerDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.samplers[id]
	return s, ok
}

// ShaderModule returns the descriptor of a live shader module.
func (d *Device) ShaderModule(id gpucore.ShaderModuleID) (gpucore.ShaderModuleDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.shaders[id]
	return s, ok
}

// PipelineLayout returns the descriptor of a live pipeline layout.
func (d *Device) PipelineLayout(id gpucore.PipelineLayoutID) (gpucore.PipelineLayoutDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.pipelineLayouts[id]
	return l, ok
}

// RenderPipeline returns the descriptor of a live render pipeline.
func (d *Device) RenderPipeline(id gpucore.RenderPipelineID) (gpucore.RenderPipelineDesc, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pipelines[id]
	return p, ok
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.textures)
}

// LiveBindGroups returns the number of bind groups not yet destroyed.
func (d *Device) LiveBindGroups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bindGroups)
}

// LiveResources returns the number of resources of any kind not yet destroyed.
func (d *Device) LiveResources() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers) + len(d.textures) + len(d.samplers) + len(d.shaders) +
		len(d.bindGroupLayouts) + len(d.pipelineLayouts) + len(d.pipelines) + len(d.bindGroups)
}

// Capabilities implements gpucore.Device.
func (d *Device) Capabilities() gpucore.Capabilities { return d.caps }

// take consumes an injected failure and allocates an ID. Caller holds mu.
func (d *Device) take(op Op) (uint64, error) {
	if err, ok := d.fail[op]; ok {
		delete(d.fail, op)
		return 0, fmt.Errorf("gputest: %s: %w", op, err)
	}
	d.nextID++
	d.created[op]++
	return d.nextID, nil
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc == nil || desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("gputest: buffer size 0: %w", ErrInvalidDescriptor)
	}
	id, err := d.take(OpCreateBuffer)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.buffers[gpucore.BufferID(id)] = &Buffer{Desc: *desc, Data: make([]byte, desc.Size)}
	return gpucore.BufferID(id), nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[id]; ok {
		delete(d.buffers, id)
		d.destroyed[uint64(id)] = true
	}
}

// MapBuffer implements gpucore.Device. The returned slice aliases the
// buffer's storage.
func (d *Device) MapBuffer(id gpucore.BufferID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("gputest: map buffer %d: %w", id, ErrUnknownResource)
	}
	if b.Desc.Usage&gpucore.BufferUsageMapWrite == 0 {
		return nil, fmt.Errorf("gputest: map buffer %d: %w", id, ErrNotMappable)
	}
	if err, ok := d.fail[OpMapBuffer]; ok {
		delete(d.fail, OpMapBuffer)
		return nil, fmt.Errorf("gputest: %s: %w", OpMapBuffer, err)
	}
	b.Mapped = true
	return b.Data, nil
}

// UnmapBuffer implements gpucore.Device.
func (d *Device) UnmapBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[id]; ok {
		b.Mapped = false
	}
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if desc == nil || desc.Width == 0 || desc.Height == 0 || desc.Format.BytesPerPixel() == 0 {
		return gpucore.InvalidID, fmt.Errorf("gputest: texture: %w", ErrInvalidDescriptor)
	}
	if d.caps.MaxTextureSize > 0 && (desc.Width > d.caps.MaxTextureSize || desc.Height > d.caps.MaxTextureSize) {
		return gpucore.InvalidID, fmt.Errorf("gputest: texture %dx%d exceeds %d: %w",
			desc.Width, desc.Height, d.caps.MaxTextureSize, ErrInvalidDescriptor)
	}
	id, err := d.take(OpCreateTexture)
	if err != nil {
		return gpucore.InvalidID, err
	}
	size := int(desc.Width) * int(desc.Height) * int(desc.Format.BytesPerPixel())
	d.textures[gpucore.TextureID(id)] = &Texture{Desc: *desc, Data: make([]byte, size)}
	return gpucore.TextureID(id), nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.textures[id]; ok {
		delete(d.textures, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.take(OpCreateSampler)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.samplers[gpucore.SamplerID(id)] = *desc
	return gpucore.SamplerID(id), nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.samplers[id]; ok {
		delete(d.samplers, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreateShaderModule implements gpucore.Device. The module must be in the
// format reported by Capabilities.
func (d *Device) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.caps.ShaderFormat {
	case gpucore.ShaderFormatSPIRV:
		if len(desc.SPIRV) == 0 {
			return gpucore.InvalidID, fmt.Errorf("gputest: shader %q: missing SPIR-V: %w", desc.Label, ErrInvalidDescriptor)
		}
	default:
		if desc.WGSL == "" {
			return gpucore.InvalidID, fmt.Errorf("gputest: shader %q: missing WGSL: %w", desc.Label, ErrInvalidDescriptor)
		}
	}
	id, err := d.take(OpCreateShaderModule)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.shaders[gpucore.ShaderModuleID(id)] = *desc
	return gpucore.ShaderModuleID(id), nil
}

// DestroyShaderModule implements gpucore.Device.
func (d *Device) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.shaders[id]; ok {
		delete(d.shaders, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreateBindGroupLayout implements gpucore.Device.
func (d *Device) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, err := d.take(OpCreateBindGroupLayout)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.bindGroupLayouts[gpucore.BindGroupLayoutID(id)] = *desc
	return gpucore.BindGroupLayoutID(id), nil
}

// DestroyBindGroupLayout implements gpucore.Device.
func (d *Device) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bindGroupLayouts[id]; ok {
		delete(d.bindGroupLayouts, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreatePipelineLayout implements gpucore.Device.
func (d *Device) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range desc.BindGroupLayouts {
		if _, ok := d.bindGroupLayouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("gputest: pipeline layout: bind group layout %d: %w", l, ErrUnknownResource)
		}
	}
	id, err := d.take(OpCreatePipelineLayout)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.pipelineLayouts[gpucore.PipelineLayoutID(id)] = *desc
	return gpucore.PipelineLayoutID(id), nil
}

// DestroyPipelineLayout implements gpucore.Device.
func (d *Device) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelineLayouts[id]; ok {
		delete(d.pipelineLayouts, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelineLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("gputest: render pipeline: layout %d: %w", desc.Layout, ErrUnknownResource)
	}
	for _, s := range []gpucore.ShaderModuleID{desc.VertexShader, desc.FragmentShader} {
		if _, ok := d.shaders[s]; !ok {
			return gpucore.InvalidID, fmt.Errorf("gputest: render pipeline: shader %d: %w", s, ErrUnknownResource)
		}
	}
	id, err := d.take(OpCreateRenderPipeline)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.pipelines[gpucore.RenderPipelineID(id)] = *desc
	return gpucore.RenderPipelineID(id), nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelines[id]; ok {
		delete(d.pipelines, id)
		d.destroyed[uint64(id)] = true
	}
}

// CreateBindGroup implements gpucore.Device.
func (d *Device) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bindGroupLayouts[desc.Layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("gputest: bind group: layout %d: %w", desc.Layout, ErrUnknownResource)
	}
	for _, e := range desc.Entries {
		if e.Texture != gpucore.InvalidID {
			if _, ok := d.textures[e.Texture]; !ok {
				return gpucore.InvalidID, fmt.Errorf("gputest: bind group: texture %d: %w", e.Texture, ErrUnknownResource)
			}
		}
		if e.Sampler != gpucore.InvalidID {
			if _, ok := d.samplers[e.Sampler]; !ok {
				return gpucore.InvalidID, fmt.Errorf("gputest: bind group: sampler %d: %w", e.Sampler, ErrUnknownResource)
			}
		}
	}
	id, err := d.take(OpCreateBindGroup)
	if err != nil {
		return gpucore.InvalidID, err
	}
	entries := append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	d.bindGroups[gpucore.BindGroupID(id)] = gpucore.BindGroupDesc{Label: desc.Label, Layout: desc.Layout, Entries: entries}
	return gpucore.BindGroupID(id), nil
}

// DestroyBindGroup implements gpucore.Device.
func (d *Device) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.bindGroups[id]; ok {
		delete(d.bindGroups, id)
		d.destroyed[uint64(id)] = true
	}
}

// Compile-time interface check.
var _ gpucore.Device = (*Device)(nil)
