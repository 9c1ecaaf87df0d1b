// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// maxBindGroups is the number of HAL bind group slots a draw can use,
// including the constants group.
const maxBindGroups = 4

// commandKind identifies a recorded command.
type commandKind uint8

const (
	commandBufferBarriers commandKind = iota
	commandTextureBarriers
	commandCopyBuffer
	commandCopyTexture
	commandDraw
)

// String returns the string representation of the command kind.
func (k commandKind) String() string {
	switch k {
	case commandBufferBarriers:
		return "BufferBarriers"
	case commandTextureBarriers:
		return "TextureBarriers"
	case commandCopyBuffer:
		return "CopyBuffer"
	case commandCopyTexture:
		return "CopyTexture"
	case commandDraw:
		return "Draw"
	default:
		return fmt.Sprintf("commandKind(%d)", uint8(k))
	}
}

// command is one recorded operation with its HAL objects already resolved.
type command struct {
	kind commandKind

	bufferBarriers  []hal.BufferBarrier
	textureBarriers []hal.TextureBarrier

	src, dst    hal.Buffer
	source      *halBuffer
	bufferCopy  hal.BufferCopy
	texture     hal.Texture
	textureCopy hal.BufferTextureCopy

	draw drawCall
}

// drawState is the pipeline state a draw executes with.
type drawState struct {
	pipeline  hal.RenderPipeline
	groups    [maxBindGroups]hal.BindGroup
	groupBase uint32
	pushSize  uint32

	vertex       hal.Buffer
	vertexOffset uint64
	index        hal.Buffer
	indexOffset  uint64
	indexFormat  gputypes.IndexFormat

	viewport   gpucore.Viewport
	scissor    gpucore.Rect
	hasScissor bool
}

// drawCall is a draw with a snapshot of the state it was recorded under.
type drawCall struct {
	state           drawState
	constantsOffset uint32

	indexCount    uint32
	instanceCount uint32
	firstIndex    uint32
	baseVertex    int32
	firstInstance uint32
}

// Recorder records one frame of gpucore commands and replays them into a
// HAL command encoder on Submit.
//
// Copies and barriers are encoded outside render passes; consecutive draws
// share one pass that loads and stores the target. Resources referenced by
// recorded commands must stay alive until Submit returns.
//
// The first recording error is kept and returned by Submit; later commands
// are ignored. A Recorder is not safe for concurrent use.
type Recorder struct {
	dev   *HALDevice
	cmds  []command
	draws int
	err   error

	state     drawState
	block     [constantsSlotSize]byte
	constants []byte
}

// Ensure Recorder implements gpucore.CommandRecorder.
var _ gpucore.CommandRecorder = (*Recorder)(nil)

// Err returns the first recording error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	return len(r.cmds)
}

// Reset discards everything recorded since the last Submit.
func (r *Recorder) Reset() {
	clear(r.cmds)
	r.cmds = r.cmds[:0]
	r.draws = 0
	r.err = nil
	r.state = drawState{}
	r.block = [constantsSlotSize]byte{}
	r.constants = r.constants[:0]
}

func (r *Recorder) fail(err error) {
	if r.err == nil {
		r.err = err
		uirender.Logger().Warn("native: command recording failed", "err", err)
	}
}

// SetPipeline binds the graphics pipeline for subsequent draws.
func (r *Recorder) SetPipeline(pipeline gpucore.RenderPipelineID) {
	if r.err != nil {
		return
	}
	r.dev.mu.Lock()
	p, ok := r.dev.pipelines[pipeline]
	r.dev.mu.Unlock()
	if !ok {
		r.fail(fmt.Errorf("%w: render pipeline %d", ErrUnknownResource, pipeline))
		return
	}
	r.state.pipeline = p
}

// SetPipelineLayout binds the layout push constants and bind groups resolve against.
func (r *Recorder) SetPipelineLayout(layout gpucore.PipelineLayoutID) {
	if r.err != nil {
		return
	}
	r.dev.mu.Lock()
	l, ok := r.dev.pipelineLayouts[layout]
	r.dev.mu.Unlock()
	if !ok {
		r.fail(fmt.Errorf("%w: pipeline layout %d", ErrUnknownResource, layout))
		return
	}
	r.state.groupBase = l.groupBase
	r.state.pushSize = l.pushSize
	r.state.groups = [maxBindGroups]hal.BindGroup{}
}

// BufferBarriers transitions buffers from their tracked state into new states.
func (r *Recorder) BufferBarriers(barriers ...gpucore.BufferBarrier) {
	if r.err != nil || len(barriers) == 0 {
		return
	}
	out := make([]hal.BufferBarrier, 0, len(barriers))
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	for _, b := range barriers {
		buf, ok := r.dev.buffers[b.Buffer]
		if !ok {
			r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, b.Buffer))
			return
		}
		out = append(out, hal.BufferBarrier{
			Buffer: buf.raw,
			Usage: hal.BufferUsageTransition{
				OldUsage: convertBufferState(buf.state),
				NewUsage: convertBufferState(b.State),
			},
		})
		buf.state = b.State
	}
	r.cmds = append(r.cmds, command{kind: commandBufferBarriers, bufferBarriers: out})
}

// TextureBarriers transitions textures from their tracked state into new states.
func (r *Recorder) TextureBarriers(barriers ...gpucore.TextureBarrier) {
	if r.err != nil || len(barriers) == 0 {
		return
	}
	out := make([]hal.TextureBarrier, 0, len(barriers))
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	for _, b := range barriers {
		tex, ok := r.dev.textures[b.Texture]
		if !ok {
			r.fail(fmt.Errorf("%w: texture %d", ErrUnknownResource, b.Texture))
			return
		}
		out = append(out, hal.TextureBarrier{
			Texture: tex.raw,
			Range: hal.TextureRange{
				Aspect:          gputypes.TextureAspectAll,
				MipLevelCount:   1,
				ArrayLayerCount: 1,
			},
			Usage: hal.TextureUsageTransition{
				OldUsage: convertTextureState(tex.state),
				NewUsage: convertTextureState(b.State),
			},
		})
		tex.state = b.State
	}
	r.cmds = append(r.cmds, command{kind: commandTextureBarriers, textureBarriers: out})
}

// CopyBufferRegion copies size bytes from src at srcOffset into dst at dstOffset.
func (r *Recorder) CopyBufferRegion(dst gpucore.BufferID, dstOffset uint64, src gpucore.BufferID, srcOffset uint64, size uint64) {
	if r.err != nil || size == 0 {
		return
	}
	if srcOffset%4 != 0 || dstOffset%4 != 0 || size%4 != 0 {
		r.fail(fmt.Errorf("%w: buffer copy of %d bytes at %d->%d is not 4-byte aligned", ErrInvalidDescriptor, size, srcOffset, dstOffset))
		return
	}
	r.dev.mu.Lock()
	s, okSrc := r.dev.buffers[src]
	d, okDst := r.dev.buffers[dst]
	r.dev.mu.Unlock()
	switch {
	case !okSrc:
		r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, src))
	case !okDst:
		r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, dst))
	case srcOffset+size > s.desc.Size || dstOffset+size > d.desc.Size:
		r.fail(fmt.Errorf("%w: buffer copy of %d bytes out of range", ErrInvalidDescriptor, size))
	default:
		r.cmds = append(r.cmds, command{
			kind:       commandCopyBuffer,
			source:     s,
			src:        s.raw,
			dst:        d.raw,
			bufferCopy: hal.BufferCopy{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size},
		})
	}
}

// CopyBufferToTexture copies rows laid out as footprint in src into the whole of dst.
func (r *Recorder) CopyBufferToTexture(dst gpucore.TextureID, src gpucore.BufferID, footprint gpucore.Footprint) {
	if r.err != nil {
		return
	}
	r.dev.mu.Lock()
	s, okSrc := r.dev.buffers[src]
	t, okDst := r.dev.textures[dst]
	r.dev.mu.Unlock()
	switch {
	case !okSrc:
		r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, src))
	case !okDst:
		r.fail(fmt.Errorf("%w: texture %d", ErrUnknownResource, dst))
	case footprint.Width != t.desc.Width || footprint.Height != t.desc.Height:
		r.fail(fmt.Errorf("%w: footprint %dx%d for texture %dx%d", ErrInvalidDescriptor,
			footprint.Width, footprint.Height, t.desc.Width, t.desc.Height))
	case footprint.RowPitch%256 != 0:
		r.fail(fmt.Errorf("%w: row pitch %d is not a multiple of 256", ErrInvalidDescriptor, footprint.RowPitch))
	default:
		r.cmds = append(r.cmds, command{
			kind:    commandCopyTexture,
			source:  s,
			src:     s.raw,
			texture: t.raw,
			textureCopy: hal.BufferTextureCopy{
				BufferLayout: hal.ImageDataLayout{
					Offset:       footprint.Offset,
					BytesPerRow:  footprint.RowPitch,
					RowsPerImage: footprint.Height,
				},
				TextureBase: hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
				Size:        hal.Extent3D{Width: footprint.Width, Height: footprint.Height, DepthOrArrayLayers: 1},
			},
		})
	}
}

// SetViewport sets the viewport.
func (r *Recorder) SetViewport(viewport gpucore.Viewport) {
	r.state.viewport = viewport
}

// SetScissor sets the scissor rectangle.
func (r *Recorder) SetScissor(rect gpucore.Rect) {
	r.state.scissor = rect
	r.state.hasScissor = true
}

// SetVertexBuffer binds a vertex stream. Only slot 0 exists.
func (r *Recorder) SetVertexBuffer(slot uint32, view gpucore.VertexBufferView) {
	if r.err != nil {
		return
	}
	if slot != 0 {
		r.fail(fmt.Errorf("%w: vertex buffer slot %d", ErrInvalidDescriptor, slot))
		return
	}
	r.dev.mu.Lock()
	b, ok := r.dev.buffers[view.Buffer]
	r.dev.mu.Unlock()
	if !ok {
		r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, view.Buffer))
		return
	}
	r.state.vertex, r.state.vertexOffset = b.raw, view.Offset
}

// SetIndexBuffer binds the index stream.
func (r *Recorder) SetIndexBuffer(view gpucore.IndexBufferView) {
	if r.err != nil {
		return
	}
	r.dev.mu.Lock()
	b, ok := r.dev.buffers[view.Buffer]
	r.dev.mu.Unlock()
	if !ok {
		r.fail(fmt.Errorf("%w: buffer %d", ErrUnknownResource, view.Buffer))
		return
	}
	r.state.index, r.state.indexOffset = b.raw, view.Offset
	r.state.indexFormat = convertIndexFormat(view.Format)
}

// SetBindGroup binds a bind group at index of the current pipeline layout.
func (r *Recorder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if r.err != nil {
		return
	}
	slot := index + r.state.groupBase
	if slot >= maxBindGroups {
		r.fail(fmt.Errorf("%w: bind group index %d", ErrInvalidDescriptor, index))
		return
	}
	r.dev.mu.Lock()
	g, ok := r.dev.bindGroups[group]
	r.dev.mu.Unlock()
	if !ok {
		r.fail(fmt.Errorf("%w: bind group %d", ErrUnknownResource, group))
		return
	}
	r.state.groups[slot] = g
}

// SetPushConstants updates the push constant block of the current layout.
func (r *Recorder) SetPushConstants(offset uint32, data []byte) {
	if r.err != nil {
		return
	}
	end := uint64(offset) + uint64(len(data))
	if end > uint64(r.state.pushSize) {
		r.fail(fmt.Errorf("%w: %d bytes at offset %d, layout has %d", ErrPushConstantsTooLarge, len(data), offset, r.state.pushSize))
		return
	}
	copy(r.block[offset:end], data)
}

// DrawIndexed records an indexed draw with the current state and a snapshot
// of the push constant block.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if r.err != nil {
		return
	}
	switch {
	case r.state.pipeline == nil:
		r.fail(errors.New("native: draw without a pipeline"))
		return
	case r.state.vertex == nil || r.state.index == nil:
		r.fail(errors.New("native: draw without vertex and index buffers"))
		return
	}
	call := drawCall{
		state:         r.state,
		indexCount:    indexCount,
		instanceCount: instanceCount,
		firstIndex:    firstIndex,
		baseVertex:    baseVertex,
		firstInstance: firstInstance,
	}
	if r.state.groupBase > 0 {
		call.constantsOffset = uint32(len(r.constants))
		r.constants = append(r.constants, r.block[:]...)
	}
	r.cmds = append(r.cmds, command{kind: commandDraw, draw: call})
	r.draws++
}

// Submit encodes the recorded commands into the given target view and
// submits them to the queue. The recorder is reset whether or not Submit
// succeeds. Submitting an empty recorder does nothing. A buffer flush that
// failed since the last Submit fails this one, since its copies would read
// stale bytes.
func (r *Recorder) Submit(target hal.TextureView) error {
	defer r.Reset()
	if r.err != nil {
		return r.err
	}
	if len(r.cmds) == 0 {
		return nil
	}
	if target == nil && r.draws > 0 {
		return fmt.Errorf("%w: draws need a target view", ErrInvalidDescriptor)
	}

	d := r.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if err := d.flushErr; err != nil {
		d.flushErr = nil
		return err
	}
	d.collectLocked()

	var consts *constantsBuffer
	if len(r.constants) > 0 {
		var err error
		if consts, err = d.acquireConstantsLocked(uint64(len(r.constants))); err != nil {
			return err
		}
		if err := d.queue.WriteBuffer(consts.raw, 0, r.constants); err != nil {
			return fmt.Errorf("native: write constants: %w", err)
		}
	}

	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "uirender.frame"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("uirender.frame"); err != nil {
		enc.Destroy()
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	passes := r.replay(enc, target, consts)
	cb, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return fmt.Errorf("native: end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cb})
	if err != nil {
		d.device.FreeCommandBuffer(cb)
		enc.Destroy()
		return fmt.Errorf("native: submit: %w", err)
	}

	d.lastSubmission = index
	d.inFlight = append(d.inFlight, inFlightWork{index: index, encoder: enc, buffer: cb})
	if consts != nil {
		consts.lastUse = index
	}
	for i := range r.cmds {
		if src := r.cmds[i].source; src != nil {
			src.lastRead = index
		}
	}
	uirender.Logger().Debug("native: frame submitted",
		"submission", index, "commands", len(r.cmds), "draws", r.draws, "passes", passes, "constants_bytes", len(r.constants))
	return nil
}

// replay encodes the commands and returns the number of render passes used.
func (r *Recorder) replay(enc hal.CommandEncoder, target hal.TextureView, consts *constantsBuffer) int {
	var pass hal.RenderPassEncoder
	passes := 0
	endPass := func() {
		if pass != nil {
			pass.End()
			pass = nil
		}
	}

	for i := range r.cmds {
		c := &r.cmds[i]
		switch c.kind {
		case commandBufferBarriers:
			endPass()
			enc.TransitionBuffers(c.bufferBarriers)
		case commandTextureBarriers:
			endPass()
			enc.TransitionTextures(c.textureBarriers)
		case commandCopyBuffer:
			endPass()
			enc.CopyBufferToBuffer(c.src, c.dst, []hal.BufferCopy{c.bufferCopy})
		case commandCopyTexture:
			endPass()
			enc.CopyBufferToTexture(c.src, c.texture, []hal.BufferTextureCopy{c.textureCopy})
		case commandDraw:
			if pass == nil {
				pass = enc.BeginRenderPass(&hal.RenderPassDescriptor{
					Label: "uirender.pass",
					ColorAttachments: []hal.RenderPassColorAttachment{{
						View:    target,
						LoadOp:  gputypes.LoadOpLoad,
						StoreOp: gputypes.StoreOpStore,
					}},
				})
				passes++
			}
			encodeDraw(pass, &c.draw, consts)
		}
	}
	endPass()
	return passes
}

// encodeDraw sets the full state of call on pass and issues the draw.
func encodeDraw(pass hal.RenderPassEncoder, call *drawCall, consts *constantsBuffer) {
	s := &call.state
	pass.SetPipeline(s.pipeline)
	if s.groupBase > 0 && consts != nil {
		pass.SetBindGroup(0, consts.group, []uint32{call.constantsOffset})
	}
	for i := s.groupBase; i < maxBindGroups; i++ {
		if g := s.groups[i]; g != nil {
			pass.SetBindGroup(i, g, nil)
		}
	}
	pass.SetVertexBuffer(0, s.vertex, s.vertexOffset)
	pass.SetIndexBuffer(s.index, s.indexFormat, s.indexOffset)
	v := s.viewport
	pass.SetViewport(v.X, v.Y, v.Width, v.Height, 0, 1)
	if s.hasScissor {
		pass.SetScissorRect(scissorRect(s.scissor))
	}
	pass.DrawIndexed(call.indexCount, call.instanceCount, call.firstIndex, call.baseVertex, call.firstInstance)
}
