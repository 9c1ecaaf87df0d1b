// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// HALDevice implements gpucore.Device on top of a gogpu/wgpu HAL device and
// queue owned by the host.
//
// Thread Safety: HALDevice is safe for concurrent use. All resource
// operations are protected by a mutex.
type HALDevice struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue
	caps   gpucore.Capabilities
	closed bool

	// Resource IDs start at 1; 0 is gpucore.InvalidID.
	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]*halBuffer
	textures         map[gpucore.TextureID]*halTexture
	samplers         map[gpucore.SamplerID]hal.Sampler
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]*halPipelineLayout
	pipelines        map[gpucore.RenderPipelineID]hal.RenderPipeline
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup

	// constantsLayout is bind group 0 of every layout with push constants.
	constantsLayout hal.BindGroupLayout
	constants       constantsRing

	// lastSubmission is the index returned by the most recent queue submit.
	lastSubmission uint64
	inFlight       []inFlightWork
	graveyard      []grave

	// flushErr is the first failed shadow flush not yet reported by Submit.
	flushErr error
}

// halBuffer is a HAL buffer plus, for mappable buffers, the CPU shadow that
// MapBuffer hands out and the copy last written to the device.
type halBuffer struct {
	raw     hal.Buffer
	desc    gpucore.BufferDesc
	shadow  []byte
	flushed []byte
	mapped  bool
	state   gpucore.BufferState

	// lastRead is the last submission that copied out of the buffer.
	lastRead uint64
}

// halTexture is a HAL texture with the view its bind groups reference.
type halTexture struct {
	raw   hal.Texture
	view  hal.TextureView
	desc  gpucore.TextureDesc
	state gpucore.TextureState
}

// halPipelineLayout records how many bind groups precede the gpucore ones.
type halPipelineLayout struct {
	raw       hal.PipelineLayout
	pushSize  uint32
	groupBase uint32
}

// inFlightWork is a submitted command buffer awaiting completion.
type inFlightWork struct {
	index   uint64
	encoder hal.CommandEncoder
	buffer  hal.CommandBuffer
}

// grave is a destruction deferred until submission index has completed.
type grave struct {
	index   uint64
	destroy func()
}

// Ensure HALDevice implements gpucore.Device.
var _ gpucore.Device = (*HALDevice)(nil)

// New wraps a HAL device and queue. The caller keeps ownership of both;
// Close releases only what HALDevice created.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*HALDevice, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newHALDevice(device, queue, o)
}

// NewFromProvider wraps the HAL device of a gpucontext.DeviceProvider. The
// provider must expose HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue. The target format defaults to the provider's
// surface format; options override it.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*HALDevice, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHALDevice, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHALDevice, hp.HalQueue())
	}

	o := defaultOptions()
	if surface := provider.SurfaceFormat(); surface != gputypes.TextureFormatUndefined {
		if format, ok := coreTextureFormat(surface); ok {
			o.caps.TargetFormat = format
		} else {
			uirender.Logger().Warn("native: unsupported surface format, using default",
				"surface", surface.String(), "default", o.caps.TargetFormat.String())
		}
	}
	for _, opt := range opts {
		opt(&o)
	}
	info := provider.AdapterInfo()
	uirender.Logger().Info("native: using provider device", "adapter", info.Name, "type", info.Type.String())
	return newHALDevice(device, queue, o)
}

func newHALDevice(device hal.Device, queue hal.Queue, o options) (*HALDevice, error) {
	if device == nil || queue == nil {
		return nil, ErrNoHALDevice
	}
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "uirender.constants_layout",
		Entries: []gputypes.BindGroupLayoutEntry{constantsLayoutEntry()},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create constants layout: %w", err)
	}

	d := &HALDevice{
		device:           device,
		queue:            queue,
		caps:             o.caps,
		buffers:          make(map[gpucore.BufferID]*halBuffer),
		textures:         make(map[gpucore.TextureID]*halTexture),
		samplers:         make(map[gpucore.SamplerID]hal.Sampler),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]*halPipelineLayout),
		pipelines:        make(map[gpucore.RenderPipelineID]hal.RenderPipeline),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		constantsLayout:  layout,
	}
	d.nextID.Store(1)

	uirender.Logger().Debug("native: device created",
		"shader_format", d.caps.ShaderFormat.String(),
		"target_format", d.caps.TargetFormat.String(),
		"max_texture_size", d.caps.MaxTextureSize)
	return d, nil
}

// newID generates a unique resource ID.
func (d *HALDevice) newID() uint64 {
	return d.nextID.Add(1) - 1
}

// Capabilities reports the shader format and target format.
func (d *HALDevice) Capabilities() gpucore.Capabilities {
	return d.caps
}

// NewRecorder returns an empty command recorder for this device.
func (d *HALDevice) NewRecorder() *Recorder {
	return &Recorder{dev: d}
}

// === Deferred destruction ===

// retireLocked runs destroy once the GPU has finished every submission made
// so far. Without outstanding work it runs immediately.
func (d *HALDevice) retireLocked(destroy func()) {
	if d.lastSubmission == 0 || d.queue.PollCompleted() >= d.lastSubmission {
		destroy()
		return
	}
	d.graveyard = append(d.graveyard, grave{index: d.lastSubmission, destroy: destroy})
}

// collectLocked frees command buffers and resources whose submissions completed.
func (d *HALDevice) collectLocked() {
	completed := d.queue.PollCompleted()

	n := 0
	for _, w := range d.inFlight {
		if w.index <= completed {
			d.device.FreeCommandBuffer(w.buffer)
			w.encoder.Destroy()
			continue
		}
		d.inFlight[n] = w
		n++
	}
	clear(d.inFlight[n:])
	d.inFlight = d.inFlight[:n]

	n = 0
	for _, g := range d.graveyard {
		if g.index <= completed {
			g.destroy()
			continue
		}
		d.graveyard[n] = g
		n++
	}
	clear(d.graveyard[n:])
	d.graveyard = d.graveyard[:n]
}

// Close waits for the GPU to go idle and releases everything the device
// created. The HAL device and queue stay with the host.
func (d *HALDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	err := d.device.WaitIdle()
	if err != nil {
		err = fmt.Errorf("native: wait idle: %w", err)
	}
	for _, w := range d.inFlight {
		d.device.FreeCommandBuffer(w.buffer)
		w.encoder.Destroy()
	}
	d.inFlight = nil
	for _, g := range d.graveyard {
		g.destroy()
	}
	d.graveyard = nil

	for id, g := range d.bindGroups {
		d.device.DestroyBindGroup(g)
		delete(d.bindGroups, id)
	}
	for id, p := range d.pipelines {
		d.device.DestroyRenderPipeline(p)
		delete(d.pipelines, id)
	}
	for id, l := range d.pipelineLayouts {
		d.device.DestroyPipelineLayout(l.raw)
		delete(d.pipelineLayouts, id)
	}
	for id, l := range d.bindGroupLayouts {
		d.device.DestroyBindGroupLayout(l)
		delete(d.bindGroupLayouts, id)
	}
	for id, m := range d.shaderModules {
		d.device.DestroyShaderModule(m)
		delete(d.shaderModules, id)
	}
	for id, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, id)
	}
	for id, t := range d.textures {
		d.device.DestroyTextureView(t.view)
		d.device.DestroyTexture(t.raw)
		delete(d.textures, id)
	}
	for id, b := range d.buffers {
		d.device.DestroyBuffer(b.raw)
		delete(d.buffers, id)
	}
	d.constants.destroy(d.device)
	d.device.DestroyBindGroupLayout(d.constantsLayout)
	d.constantsLayout = nil
	return err
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer. Mappable buffers get a CPU shadow.
func (d *HALDevice) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer %q has size 0", ErrInvalidDescriptor, desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	// Queue writes need 4-byte aligned offsets and sizes.
	size := alignUp(desc.Size, 4)
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer %q: %w", desc.Label, err)
	}
	b := &halBuffer{raw: raw, desc: *desc}
	if desc.Usage&gpucore.BufferUsageMapWrite != 0 {
		b.shadow = make([]byte, size)
		b.flushed = make([]byte, size)
	}

	id := gpucore.BufferID(d.newID())
	d.buffers[id] = b
	return id, nil
}

// DestroyBuffer releases a GPU buffer once in-flight work no longer uses it.
func (d *HALDevice) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	dev := d.device
	d.retireLocked(func() { dev.DestroyBuffer(b.raw) })
}

// MapBuffer returns the CPU shadow of a mappable buffer.
func (d *HALDevice) MapBuffer(id gpucore.BufferID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if b.shadow == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotMappable, b.desc.Label)
	}
	b.mapped = true
	return b.shadow[:b.desc.Size:b.desc.Size], nil
}

// UnmapBuffer writes the bytes changed since the last unmap to the device.
// The write is ordered before any later submission. If an earlier submission
// still copies out of the buffer, UnmapBuffer waits for the device first. A
// failed write is returned by the next Submit that records commands.
func (d *HALDevice) UnmapBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.buffers[id]
	if !ok || !b.mapped {
		return
	}
	b.mapped = false

	lo, hi := dirtySpan(b.flushed, b.shadow)
	if lo == hi {
		return
	}
	lo &^= 3
	hi = int(alignUp(uint64(hi), 4))
	// Queue writes land immediately; earlier frames may still read the buffer.
	if b.lastRead > d.queue.PollCompleted() {
		if err := d.device.WaitIdle(); err != nil {
			d.flushFailedLocked(b, fmt.Errorf("native: flush %q: wait idle: %w", b.desc.Label, err))
			return
		}
		d.collectLocked()
	}
	if err := d.queue.WriteBuffer(b.raw, uint64(lo), b.shadow[lo:hi]); err != nil {
		d.flushFailedLocked(b, fmt.Errorf("native: flush %q: %w", b.desc.Label, err))
		return
	}
	copy(b.flushed[lo:hi], b.shadow[lo:hi])
}

// flushFailedLocked keeps err for the next Submit. The span stays dirty, so
// the next unmap writes it again.
func (d *HALDevice) flushFailedLocked(b *halBuffer, err error) {
	uirender.Logger().Warn("native: buffer flush failed", "label", b.desc.Label, "err", err)
	if d.flushErr == nil {
		d.flushErr = err
	}
}

// === Texture Management ===

// CreateTexture creates a sampled 2D texture and its view.
func (d *HALDevice) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	if m := d.caps.MaxTextureSize; m != 0 && (desc.Width > m || desc.Height > m) {
		return gpucore.InvalidID, fmt.Errorf("%w: texture %q is %dx%d, max %d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height, m)
	}
	format, err := convertTextureFormat(desc.Format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %q: %w", desc.Label, err)
	}
	view, err := d.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(raw)
		return gpucore.InvalidID, fmt.Errorf("native: create texture view %q: %w", desc.Label, err)
	}

	id := gpucore.TextureID(d.newID())
	d.textures[id] = &halTexture{raw: raw, view: view, desc: *desc}
	return id, nil
}

// DestroyTexture releases a texture and its view once in-flight work no
// longer uses them.
func (d *HALDevice) DestroyTexture(id gpucore.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	dev := d.device
	d.retireLocked(func() {
		dev.DestroyTextureView(t.view)
		dev.DestroyTexture(t.raw)
	})
}

// CreateSampler creates a clamp-to-edge sampler.
func (d *HALDevice) CreateSampler(desc *gpucore.SamplerDesc) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}
	filter := convertFilterMode(desc.Filter)
	raw, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
		Anisotropy:   1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create sampler %q: %w", desc.Label, err)
	}
	id := gpucore.SamplerID(d.newID())
	d.samplers[id] = raw
	return id, nil
}

// DestroySampler releases a sampler.
func (d *HALDevice) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.samplers[id]
	if !ok {
		return
	}
	delete(d.samplers, id)
	dev := d.device
	d.retireLocked(func() { dev.DestroySampler(s) })
}

// === Shaders and Pipelines ===

// CreateShaderModule creates a shader module from WGSL or SPIR-V, whichever
// the descriptor carries.
func (d *HALDevice) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc.WGSL == "" && len(desc.SPIRV) == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: shader %q has no source", ErrInvalidDescriptor, desc.Label)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.WGSL, SPIRV: desc.SPIRV},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", desc.Label, err)
	}
	id := gpucore.ShaderModuleID(d.newID())
	d.shaderModules[id] = module
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (d *HALDevice) DestroyShaderModule(id gpucore.ShaderModuleID) {
	d.mu.Lock()
	module, ok := d.shaderModules[id]
	if ok {
		delete(d.shaderModules, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyShaderModule(module)
	}
}

// CreateBindGroupLayout creates a bind group layout.
func (d *HALDevice) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry, err := convertBindGroupLayoutEntry(e)
		if err != nil {
			return gpucore.InvalidID, err
		}
		entries[i] = entry
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}
	id := gpucore.BindGroupLayoutID(d.newID())
	d.bindGroupLayouts[id] = layout
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (d *HALDevice) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	d.mu.Lock()
	layout, ok := d.bindGroupLayouts[id]
	if ok {
		delete(d.bindGroupLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout. A push constant block
// becomes bind group 0, a dynamic uniform buffer, and the gpucore bind
// groups follow it.
func (d *HALDevice) CreatePipelineLayout(desc *gpucore.PipelineLayoutDesc) (gpucore.PipelineLayoutID, error) {
	if desc.PushConstantSize > constantsSlotSize {
		return gpucore.InvalidID, fmt.Errorf("%w: %d bytes, max %d", ErrPushConstantsTooLarge, desc.PushConstantSize, constantsSlotSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	var base uint32
	layouts := make([]hal.BindGroupLayout, 0, len(desc.BindGroupLayouts)+1)
	if desc.PushConstantSize > 0 {
		layouts = append(layouts, d.constantsLayout)
		base = 1
	}
	for _, lid := range desc.BindGroupLayouts {
		l, ok := d.bindGroupLayouts[lid]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, lid)
		}
		layouts = append(layouts, l)
	}

	raw, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout %q: %w", desc.Label, err)
	}
	id := gpucore.PipelineLayoutID(d.newID())
	d.pipelineLayouts[id] = &halPipelineLayout{raw: raw, pushSize: desc.PushConstantSize, groupBase: base}
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (d *HALDevice) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	d.mu.Lock()
	layout, ok := d.pipelineLayouts[id]
	if ok {
		delete(d.pipelineLayouts, id)
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyPipelineLayout(layout.raw)
	}
}

// CreateRenderPipeline creates a straight-alpha blended triangle-list
// pipeline with culling disabled.
func (d *HALDevice) CreateRenderPipeline(desc *gpucore.RenderPipelineDesc) (gpucore.RenderPipelineID, error) {
	target, err := convertTextureFormat(desc.TargetFormat)
	if err != nil {
		return gpucore.InvalidID, err
	}
	vertex, err := convertVertexLayout(desc.Vertex)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	layout, ok := d.pipelineLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", ErrUnknownResource, desc.Layout)
	}
	vs, ok := d.shaderModules[desc.VertexShader]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.VertexShader)
	}
	fs, ok := d.shaderModules[desc.FragmentShader]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrUnknownResource, desc.FragmentShader)
	}

	blend := gputypes.BlendStateAlpha()
	raw, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout.raw,
		Vertex: hal.VertexState{
			Module:     vs,
			EntryPoint: desc.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{vertex},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
		Fragment: &hal.FragmentState{
			Module:     fs,
			EntryPoint: desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    target,
				Blend:     &blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create render pipeline %q: %w", desc.Label, err)
	}
	id := gpucore.RenderPipelineID(d.newID())
	d.pipelines[id] = raw
	return id, nil
}

// DestroyRenderPipeline releases a render pipeline once in-flight work no
// longer uses it.
func (d *HALDevice) DestroyRenderPipeline(id gpucore.RenderPipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pipelines[id]
	if !ok {
		return
	}
	delete(d.pipelines, id)
	dev := d.device
	d.retireLocked(func() { dev.DestroyRenderPipeline(p) })
}

// === Bind Groups ===

// CreateBindGroup creates a bind group of samplers and texture views.
func (d *HALDevice) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return gpucore.InvalidID, ErrClosed
	}

	layout, ok := d.bindGroupLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrUnknownResource, desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry, err := d.convertBindGroupEntryLocked(e)
		if err != nil {
			return gpucore.InvalidID, err
		}
		entries[i] = entry
	}

	raw, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %q: %w", desc.Label, err)
	}
	id := gpucore.BindGroupID(d.newID())
	d.bindGroups[id] = raw
	return id, nil
}

func (d *HALDevice) convertBindGroupEntryLocked(e gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	switch {
	case e.Sampler != gpucore.InvalidID && e.Texture == gpucore.InvalidID:
		s, ok := d.samplers[e.Sampler]
		if !ok {
			return gputypes.BindGroupEntry{}, fmt.Errorf("%w: sampler %d", ErrUnknownResource, e.Sampler)
		}
		return gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()},
		}, nil
	case e.Texture != gpucore.InvalidID && e.Sampler == gpucore.InvalidID:
		t, ok := d.textures[e.Texture]
		if !ok {
			return gputypes.BindGroupEntry{}, fmt.Errorf("%w: texture %d", ErrUnknownResource, e.Texture)
		}
		return gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
		}, nil
	default:
		return gputypes.BindGroupEntry{}, fmt.Errorf("%w: binding %d must set exactly one resource", ErrInvalidDescriptor, e.Binding)
	}
}

// DestroyBindGroup releases a bind group once in-flight work no longer uses it.
func (d *HALDevice) DestroyBindGroup(id gpucore.BindGroupID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.bindGroups[id]
	if !ok {
		return
	}
	delete(d.bindGroups, id)
	dev := d.device
	d.retireLocked(func() { dev.DestroyBindGroup(g) })
}
