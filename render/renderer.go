// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/stream"
	"golang.org/x/image/math/f32"
)

// Renderer is the UI render backend. It turns draw batches from the layout
// engine into copies, barriers, bindings and indexed draws on a
// gpucore.CommandRecorder.
//
// A frame session is bracketed by Start and End. Geometry and texture
// uploads are staged through a per-frame upload arena; buffers superseded by
// growth and released textures are kept alive for Config.RetireLatency
// sessions.
//
// Thread Safety: Renderer is NOT thread-safe. It must be used from the
// single UI/render goroutine.
type Renderer struct {
	dev    gpucore.Device
	cfg    Config
	target gpucore.TextureFormat

	retire   *stream.Retirer
	arena    *stream.Arena
	geometry *stream.GeometryPool
	pipe     *pipeline

	textures   map[TextureHandle]*textureResource
	nextHandle TextureHandle

	// Frame session.
	rec            gpucore.CommandRecorder
	width, height  int
	projW, projH   int
	projection     f32.Mat4
	transform      f32.Mat4
	combined       f32.Mat4
	scissorEnabled bool
	scissor        image.Rectangle
	constants      [pushConstantSize]byte

	stats  Stats
	closed bool
}

// Stats reports renderer counters.
type Stats struct {
	// Frames is the number of completed frame sessions.
	Frames uint64
	// Draws is the number of indexed draws recorded.
	Draws uint64
	// Textures is the number of live texture handles.
	Textures int
	// UploadCapacity is the current upload arena size in bytes.
	UploadCapacity uint64
	// UploadGrows is how many times the upload arena has grown.
	UploadGrows int
	// VertexCapacity and IndexCapacity are the geometry buffer sizes in bytes.
	VertexCapacity uint64
	IndexCapacity  uint64
	// PendingRetired is the number of resources waiting for release.
	PendingRetired int
}

// New creates a renderer on dev.
func New(dev gpucore.Device, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filter, _ := cfg.filterMode()
	caps := dev.Capabilities()
	target, _ := cfg.targetFormat(caps.TargetFormat)

	r := &Renderer{
		dev:        dev,
		cfg:        cfg,
		target:     target,
		retire:     stream.NewRetirer(cfg.RetireLatency),
		textures:   make(map[TextureHandle]*textureResource),
		nextHandle: 1, // 0 is the white fallback texture
		transform:  Identity(),
		projection: Identity(),
		combined:   Identity(),
	}

	var err error
	if r.arena, err = stream.NewArena(dev, r.retire, cfg.UploadBufferSize, cfg.GrowthFactor); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if r.geometry, err = stream.NewGeometryPool(dev, r.retire, cfg.VertexBufferSize, cfg.IndexBufferSize, cfg.GrowthFactor); err != nil {
		r.arena.Destroy()
		return nil, fmt.Errorf("render: %w", err)
	}
	if r.pipe, err = newPipeline(dev, filter, target); err != nil {
		r.geometry.Destroy()
		r.arena.Destroy()
		return nil, err
	}

	uirender.Logger().Info("render: renderer created",
		"shader_format", caps.ShaderFormat.String(),
		"target_format", target.String(),
		"upload_bytes", cfg.UploadBufferSize,
		"retire_latency", cfg.RetireLatency)
	return r, nil
}

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() Config { return r.cfg }

// Open reports whether a frame session is open.
func (r *Renderer) Open() bool { return r.rec != nil }

// Size returns the target size of the current or last session.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Projection returns the current projection matrix.
func (r *Renderer) Projection() f32.Mat4 { return r.projection }

// Combined returns projection × transform.
func (r *Renderer) Combined() f32.Mat4 { return r.combined }

// Stats returns current counters.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.Textures = len(r.textures)
	s.PendingRetired = r.retire.Pending()
	if r.arena != nil {
		s.UploadCapacity = r.arena.Capacity()
		s.UploadGrows = r.arena.Grows()
	}
	if r.geometry != nil {
		s.VertexCapacity = r.geometry.Vertex.Capacity()
		s.IndexCapacity = r.geometry.Index.Capacity()
	}
	return s
}

// Start opens a frame session recording into rec for a target of the given
// size. It releases resources retired RetireLatency sessions ago, maps the
// upload arena and binds the UI pipeline.
func (r *Renderer) Start(rec gpucore.CommandRecorder, width, height int) error {
	if r.closed {
		return ErrClosed
	}
	if r.rec != nil {
		return ErrSessionOpen
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTargetSize, width, height)
	}

	r.retire.Advance()
	if err := r.arena.Reset(); err != nil {
		return fmt.Errorf("render: start: %w", err)
	}

	r.rec = rec
	rec.SetPipeline(r.pipe.pipeline)
	rec.SetPipelineLayout(r.pipe.layout)

	r.width, r.height = width, height
	if width != r.projW || height != r.projH {
		r.projection = TargetProjection(width, height)
		r.projW, r.projH = width, height
	}
	r.recalculate()
	return nil
}

// End closes the frame session and unmaps the upload arena.
func (r *Renderer) End() error {
	if r.rec == nil {
		return ErrSessionClosed
	}
	r.arena.Unmap()
	r.rec = nil
	r.stats.Frames++
	return nil
}

// SetTransform replaces the current transform; nil means identity.
// Outside an open session the call is ignored.
func (r *Renderer) SetTransform(m *f32.Mat4) {
	if !r.requireOpen("SetTransform") {
		return
	}
	if m == nil {
		r.transform = Identity()
	} else {
		r.transform = *m
	}
	r.recalculate()
}

func (r *Renderer) recalculate() {
	r.combined = Mul(&r.projection, &r.transform)
}

// EnableScissorRegion toggles clipping to the rectangle set by
// SetScissorRegion. Outside an open session the call is ignored.
func (r *Renderer) EnableScissorRegion(enable bool) {
	if !r.requireOpen("EnableScissorRegion") {
		return
	}
	r.scissorEnabled = enable
}

// SetScissorRegion sets the clip rectangle in target pixels. Outside an open
// session the call is ignored.
func (r *Renderer) SetScissorRegion(x, y, width, height int) {
	if !r.requireOpen("SetScissorRegion") {
		return
	}
	r.scissor = image.Rect(x, y, x+width, y+height)
}

// requireOpen reports whether a session is open and logs the dropped call
// when it is not. The Backend state setters have no error result.
func (r *Renderer) requireOpen(op string) bool {
	if r.rec != nil {
		return true
	}
	uirender.Logger().Warn("render: call ignored", "op", op, "err", ErrSessionClosed)
	return false
}

// scissorRect returns the clip rectangle for the next draw: the scissor
// region clamped to the target when enabled, the full target otherwise.
func (r *Renderer) scissorRect() gpucore.Rect {
	full := image.Rect(0, 0, r.width, r.height)
	rect := full
	if r.scissorEnabled {
		rect = r.scissor.Canon().Intersect(full)
	}
	return gpucore.Rect{
		X:      int32(rect.Min.X),
		Y:      int32(rect.Min.Y),
		Width:  int32(rect.Dx()),
		Height: int32(rect.Dy()),
	}
}

// RenderGeometry draws one batch of indexed triangles with a texture and a
// translation applied to every vertex.
//
// Handle 0 is the white fallback texture and is created on first use. Any
// other handle must come from LoadTexture or GenerateTexture and not have been
// released; otherwise an *UnknownTextureError is returned.
func (r *Renderer) RenderGeometry(vertices []Vertex, indices []uint32, texture TextureHandle, translation f32.Vec2) error {
	if r.rec == nil {
		return ErrSessionClosed
	}
	res, err := r.resolveTexture(texture)
	if err != nil {
		return err
	}
	if len(vertices) == 0 || len(indices) == 0 {
		return nil
	}

	vertBytes := uint64(len(vertices)) * VertexSize
	indexBytes := uint64(len(indices)) * IndexSize

	// One allocation, written immediately: vertices then indices.
	alloc, err := r.arena.Allocate(vertBytes + indexBytes)
	if err != nil {
		return fmt.Errorf("render: stage geometry: %w", err)
	}
	mem, err := r.arena.Bytes(alloc)
	if err != nil {
		return fmt.Errorf("render: stage geometry: %w", err)
	}
	putVertices(mem[:vertBytes], vertices)
	putIndices(mem[vertBytes:], indices)

	if err := r.geometry.Reserve(vertBytes, indexBytes); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	vb, ib := r.geometry.Vertex.ID(), r.geometry.Index.ID()

	r.rec.BufferBarriers(
		gpucore.BufferBarrier{Buffer: vb, State: gpucore.BufferStateCopyDst},
		gpucore.BufferBarrier{Buffer: ib, State: gpucore.BufferStateCopyDst},
	)
	r.rec.CopyBufferRegion(vb, 0, alloc.Buffer, alloc.Offset, vertBytes)
	r.rec.CopyBufferRegion(ib, 0, alloc.Buffer, alloc.Offset+vertBytes, indexBytes)
	r.rec.BufferBarriers(
		gpucore.BufferBarrier{Buffer: vb, State: gpucore.BufferStateVertex},
		gpucore.BufferBarrier{Buffer: ib, State: gpucore.BufferStateIndex},
	)

	r.rec.SetViewport(gpucore.Viewport{Width: float32(r.width), Height: float32(r.height)})
	r.rec.SetScissor(r.scissorRect())

	r.rec.SetIndexBuffer(gpucore.IndexBufferView{Buffer: ib, Size: indexBytes, Format: gpucore.IndexFormatUint32})
	r.rec.SetVertexBuffer(0, gpucore.VertexBufferView{Buffer: vb, Size: vertBytes, Stride: VertexSize})
	r.rec.SetBindGroup(0, res.group)

	putConstants(&r.constants, &r.combined, translation)
	r.rec.SetPushConstants(0, r.constants[:])

	r.rec.DrawIndexed(uint32(len(indices)), 1, 0, 0, 0)
	r.stats.Draws++
	return nil
}

// Close destroys every device object the renderer owns, including retired
// ones. The device must be idle. An open session is ended first.
func (r *Renderer) Close() {
	if r.closed {
		return
	}
	if r.rec != nil {
		_ = r.End()
	}
	for h, res := range r.textures {
		res.destroy(r.dev)
		delete(r.textures, h)
	}
	r.retire.Flush()
	r.pipe.destroy()
	r.geometry.Destroy()
	r.arena.Destroy()
	r.closed = true
	uirender.Logger().Info("render: renderer closed", "frames", r.stats.Frames, "draws", r.stats.Draws)
}
