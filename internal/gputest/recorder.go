// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"errors"
	"fmt"

	"github.com/gogpu/uirender/gpucore"
)

// ErrValidation is wrapped by every error the Recorder collects.
var ErrValidation = errors.New("gputest: validation")

// Recorded commands. Each CommandRecorder call appends one of these to
// Recorder.Commands.
type (
	SetPipeline       struct{ Pipeline gpucore.RenderPipelineID }
	SetPipelineLayout struct{ Layout gpucore.PipelineLayoutID }
	BufferBarriers    struct{ Barriers []gpucore.BufferBarrier }
	TextureBarriers   struct{ Barriers []gpucore.TextureBarrier }
	CopyBuffer        struct {
		Dst       gpucore.BufferID
		DstOffset uint64
		Src       gpucore.BufferID
		SrcOffset uint64
		Size      uint64
	}
	CopyBufferToTexture struct {
		Dst       gpucore.TextureID
		Src       gpucore.BufferID
		Footprint gpucore.Footprint
	}
	SetViewport     struct{ Viewport gpucore.Viewport }
	SetScissor      struct{ Rect gpucore.Rect }
	SetVertexBuffer struct {
		Slot uint32
		View gpucore.VertexBufferView
	}
	SetIndexBuffer   struct{ View gpucore.IndexBufferView }
	SetBindGroup     struct {
		Index uint32
		Group gpucore.BindGroupID
	}
	SetPushConstants struct {
		Offset uint32
		Data   []byte
	}
	DrawIndexed struct {
		IndexCount    uint32
		InstanceCount uint32
		FirstIndex    uint32
		BaseVertex    int32
		FirstInstance uint32

		// Texture is the texture bound through group 0 at draw time.
		Texture gpucore.TextureID
		// Constants is a copy of the push constants at draw time.
		Constants []byte
		// Scissor is the scissor rectangle at draw time.
		Scissor gpucore.Rect
	}
)

// Recorder is a gpucore.CommandRecorder over a fake Device.
//
// Copies and barriers take effect immediately on the device's memory. Draws
// are checked against the bound state (buffer and texture states, live bind
// groups) and violations are collected in Errors rather than panicking.
type Recorder struct {
	dev *Device

	// Commands lists every recorded command in order.
	Commands []any

	errs      []error
	pipeline  gpucore.RenderPipelineID
	layout    gpucore.PipelineLayoutID
	vertex    gpucore.VertexBufferView
	index     gpucore.IndexBufferView
	groups    map[uint32]gpucore.BindGroupID
	constants []byte
	scissor   gpucore.Rect
}

// NewRecorder creates a recorder that executes against dev.
func NewRecorder(dev *Device) *Recorder {
	return &Recorder{dev: dev, groups: make(map[uint32]gpucore.BindGroupID)}
}

// Errors returns the validation errors collected so far.
func (r *Recorder) Errors() []error { return r.errs }

// Err joins the collected validation errors, nil if there were none.
func (r *Recorder) Err() error { return errors.Join(r.errs...) }

// Draws returns the recorded draws in order.
func (r *Recorder) Draws() []DrawIndexed {
	var out []DrawIndexed
	for _, c := range r.Commands {
		if d, ok := c.(DrawIndexed); ok {
			out = append(out, d)
		}
	}
	return out
}

// Reset clears the command log, the errors and all bound state.
func (r *Recorder) Reset() {
	r.Commands = nil
	r.errs = nil
	r.pipeline = gpucore.InvalidID
	r.layout = gpucore.InvalidID
	r.vertex = gpucore.VertexBufferView{}
	r.index = gpucore.IndexBufferView{}
	r.groups = make(map[uint32]gpucore.BindGroupID)
	r.constants = nil
	r.scissor = gpucore.Rect{}
}

func (r *Recorder) failf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...)))
}

// SetPipeline implements gpucore.CommandRecorder.
func (r *Recorder) SetPipeline(pipeline gpucore.RenderPipelineID) {
	r.Commands = append(r.Commands, SetPipeline{pipeline})
	if _, ok := r.dev.RenderPipeline(pipeline); !ok {
		r.failf("set pipeline %d: not live", pipeline)
	}
	r.pipeline = pipeline
}

// SetPipelineLayout implements gpucore.CommandRecorder.
func (r *Recorder) SetPipelineLayout(layout gpucore.PipelineLayoutID) {
	r.Commands = append(r.Commands, SetPipelineLayout{layout})
	if _, ok := r.dev.PipelineLayout(layout); !ok {
		r.failf("set pipeline layout %d: not live", layout)
	}
	r.layout = layout
}

// BufferBarriers implements gpucore.CommandRecorder.
func (r *Recorder) BufferBarriers(barriers ...gpucore.BufferBarrier) {
	r.Commands = append(r.Commands, BufferBarriers{append([]gpucore.BufferBarrier(nil), barriers...)})
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	for _, b := range barriers {
		buf, ok := r.dev.buffers[b.Buffer]
		if !ok {
			r.failf("buffer barrier: buffer %d not live", b.Buffer)
			continue
		}
		buf.State = b.State
	}
}

// TextureBarriers implements gpucore.CommandRecorder.
func (r *Recorder) TextureBarriers(barriers ...gpucore.TextureBarrier) {
	r.Commands = append(r.Commands, TextureBarriers{append([]gpucore.TextureBarrier(nil), barriers...)})
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	for _, b := range barriers {
		tex, ok := r.dev.textures[b.Texture]
		if !ok {
			r.failf("texture barrier: texture %d not live", b.Texture)
			continue
		}
		tex.State = b.State
	}
}

// CopyBufferRegion implements gpucore.CommandRecorder.
func (r *Recorder) CopyBufferRegion(dst gpucore.BufferID, dstOffset uint64, src gpucore.BufferID, srcOffset, size uint64) {
	r.Commands = append(r.Commands, CopyBuffer{Dst: dst, DstOffset: dstOffset, Src: src, SrcOffset: srcOffset, Size: size})
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	d, dok := r.dev.buffers[dst]
	s, sok := r.dev.buffers[src]
	switch {
	case !dok || !sok:
		r.failf("copy buffer %d->%d: buffer not live", src, dst)
		return
	case d.State != gpucore.BufferStateCopyDst:
		r.failf("copy buffer into %d: state %s, want CopyDst", dst, d.State)
		return
	case srcOffset+size > uint64(len(s.Data)) || dstOffset+size > uint64(len(d.Data)):
		r.failf("copy buffer %d[%d:+%d] -> %d[%d]: out of range", src, srcOffset, size, dst, dstOffset)
		return
	}
	copy(d.Data[dstOffset:dstOffset+size], s.Data[srcOffset:srcOffset+size])
}

// CopyBufferToTexture implements gpucore.CommandRecorder.
func (r *Recorder) CopyBufferToTexture(dst gpucore.TextureID, src gpucore.BufferID, fp gpucore.Footprint) {
	r.Commands = append(r.Commands, CopyBufferToTexture{Dst: dst, Src: src, Footprint: fp})
	r.dev.mu.Lock()
	defer r.dev.mu.Unlock()
	t, tok := r.dev.textures[dst]
	s, sok := r.dev.buffers[src]
	if !tok || !sok {
		r.failf("copy buffer %d -> texture %d: resource not live", src, dst)
		return
	}
	if t.State != gpucore.TextureStateCopyDst {
		r.failf("copy into texture %d: state %s, want CopyDst", dst, t.State)
		return
	}
	if fp.Width != t.Desc.Width || fp.Height != t.Desc.Height {
		r.failf("copy into texture %d: footprint %dx%d, texture %dx%d", dst, fp.Width, fp.Height, t.Desc.Width, t.Desc.Height)
		return
	}
	rowBytes := uint64(fp.Width) * uint64(t.Desc.Format.BytesPerPixel())
	if uint64(fp.RowPitch) < rowBytes {
		r.failf("copy into texture %d: row pitch %d < row bytes %d", dst, fp.RowPitch, rowBytes)
		return
	}
	if fp.Height > 0 && fp.Offset+uint64(fp.RowPitch)*uint64(fp.Height-1)+rowBytes > uint64(len(s.Data)) {
		r.failf("copy into texture %d: footprint exceeds buffer %d", dst, src)
		return
	}
	for row := uint64(0); row < uint64(fp.Height); row++ {
		from := fp.Offset + row*uint64(fp.RowPitch)
		copy(t.Data[row*rowBytes:(row+1)*rowBytes], s.Data[from:from+rowBytes])
	}
}

// SetViewport implements gpucore.CommandRecorder.
func (r *Recorder) SetViewport(viewport gpucore.Viewport) {
	r.Commands = append(r.Commands, SetViewport{viewport})
}

// SetScissor implements gpucore.CommandRecorder.
func (r *Recorder) SetScissor(rect gpucore.Rect) {
	r.Commands = append(r.Commands, SetScissor{rect})
	r.scissor = rect
}

// SetVertexBuffer implements gpucore.CommandRecorder.
func (r *Recorder) SetVertexBuffer(slot uint32, view gpucore.VertexBufferView) {
	r.Commands = append(r.Commands, SetVertexBuffer{Slot: slot, View: view})
	if slot == 0 {
		r.vertex = view
	}
}

// SetIndexBuffer implements gpucore.CommandRecorder.
func (r *Recorder) SetIndexBuffer(view gpucore.IndexBufferView) {
	r.Commands = append(r.Commands, SetIndexBuffer{view})
	r.index = view
}

// SetBindGroup implements gpucore.CommandRecorder.
func (r *Recorder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	r.Commands = append(r.Commands, SetBindGroup{Index: index, Group: group})
	r.groups[index] = group
}

// SetPushConstants implements gpucore.CommandRecorder.
func (r *Recorder) SetPushConstants(offset uint32, data []byte) {
	cp := append([]byte(nil), data...)
	r.Commands = append(r.Commands, SetPushConstants{Offset: offset, Data: cp})
	if end := int(offset) + len(cp); end > len(r.constants) {
		grown := make([]byte, end)
		copy(grown, r.constants)
		r.constants = grown
	}
	copy(r.constants[offset:], cp)
}

// DrawIndexed implements gpucore.CommandRecorder.
func (r *Recorder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	draw := DrawIndexed{
		IndexCount:    indexCount,
		InstanceCount: instanceCount,
		FirstIndex:    firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
		Constants:     append([]byte(nil), r.constants...),
		Scissor:       r.scissor,
	}

	r.dev.mu.Lock()
	if r.pipeline == gpucore.InvalidID {
		r.failf("draw: no pipeline bound")
	}
	if vb, ok := r.dev.buffers[r.vertex.Buffer]; !ok {
		r.failf("draw: vertex buffer %d not live", r.vertex.Buffer)
	} else if vb.State != gpucore.BufferStateVertex {
		r.failf("draw: vertex buffer %d in state %s", r.vertex.Buffer, vb.State)
	}
	if ib, ok := r.dev.buffers[r.index.Buffer]; !ok {
		r.failf("draw: index buffer %d not live", r.index.Buffer)
	} else if ib.State != gpucore.BufferStateIndex {
		r.failf("draw: index buffer %d in state %s", r.index.Buffer, ib.State)
	}
	if uint64(firstIndex+indexCount)*4 > r.index.Size {
		r.failf("draw: %d indices exceed index view of %d bytes", firstIndex+indexCount, r.index.Size)
	}
	group, ok := r.dev.bindGroups[r.groups[0]]
	if !ok {
		r.failf("draw: bind group %d not live", r.groups[0])
	}
	for _, e := range group.Entries {
		if e.Texture == gpucore.InvalidID {
			continue
		}
		draw.Texture = e.Texture
		if tex, ok := r.dev.textures[e.Texture]; !ok {
			r.failf("draw: texture %d not live", e.Texture)
		} else if tex.State != gpucore.TextureStateShaderRead {
			r.failf("draw: texture %d in state %s", e.Texture, tex.State)
		}
	}
	r.dev.mu.Unlock()

	r.Commands = append(r.Commands, draw)
}

// Compile-time interface check.
var _ gpucore.CommandRecorder = (*Recorder)(nil)
