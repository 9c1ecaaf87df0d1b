// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// spyQueue wraps the noop queue. With stalled set, PollCompleted reports
// done instead of the noop queue's (always current) value. With failWrite
// set, WriteBuffer fails.
type spyQueue struct {
	hal.Queue

	stalled   bool
	done      uint64
	writes    []bufferWrite
	submits   int
	failWrite error
}

type bufferWrite struct {
	buffer hal.Buffer
	offset uint64
	data   []byte
}

func (q *spyQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) error {
	if q.failWrite != nil {
		return q.failWrite
	}
	q.writes = append(q.writes, bufferWrite{buffer: buffer, offset: offset, data: bytes.Clone(data)})
	return q.Queue.WriteBuffer(buffer, offset, data)
}

func (q *spyQueue) Submit(cbs []hal.CommandBuffer) (uint64, error) {
	q.submits++
	return q.Queue.Submit(cbs)
}

func (q *spyQueue) PollCompleted() uint64 {
	if q.stalled {
		return q.done
	}
	return q.Queue.PollCompleted()
}

// spyDevice wraps the noop device and logs what the tests look at.
type spyDevice struct {
	hal.Device

	queue *spyQueue
	log   []string

	waits           int
	destroyed       map[string]int
	buffers         []*hal.BufferDescriptor
	pipelineLayouts []*hal.PipelineLayoutDescriptor
	bindGroups      []*hal.BindGroupDescriptor
	pipelines       []*hal.RenderPipelineDescriptor
}

func (d *spyDevice) logf(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

func (d *spyDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.buffers = append(d.buffers, desc)
	return d.Device.CreateBuffer(desc)
}

func (d *spyDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	d.pipelineLayouts = append(d.pipelineLayouts, desc)
	return d.Device.CreatePipelineLayout(desc)
}

func (d *spyDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups = append(d.bindGroups, desc)
	return d.Device.CreateBindGroup(desc)
}

func (d *spyDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines = append(d.pipelines, desc)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *spyDevice) DestroyBuffer(b hal.Buffer) {
	d.destroyed["buffer"]++
	d.Device.DestroyBuffer(b)
}

func (d *spyDevice) DestroyTexture(t hal.Texture) {
	d.destroyed["texture"]++
	d.Device.DestroyTexture(t)
}

func (d *spyDevice) DestroyBindGroup(g hal.BindGroup) {
	d.destroyed["bind group"]++
	d.Device.DestroyBindGroup(g)
}

func (d *spyDevice) WaitIdle() error {
	d.waits++
	d.queue.done = d.queue.Queue.PollCompleted()
	return d.Device.WaitIdle()
}

func (d *spyDevice) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &spyEncoder{CommandEncoder: enc, dev: d}, nil
}

type spyEncoder struct {
	hal.CommandEncoder
	dev *spyDevice
}

func (e *spyEncoder) TransitionBuffers(barriers []hal.BufferBarrier) {
	for _, b := range barriers {
		e.dev.logf("TransitionBuffer %s->%s", bufferUsageName(b.Usage.OldUsage), bufferUsageName(b.Usage.NewUsage))
	}
	e.CommandEncoder.TransitionBuffers(barriers)
}

func (e *spyEncoder) TransitionTextures(barriers []hal.TextureBarrier) {
	for _, b := range barriers {
		e.dev.logf("TransitionTexture %s->%s", textureUsageName(b.Usage.OldUsage), textureUsageName(b.Usage.NewUsage))
	}
	e.CommandEncoder.TransitionTextures(barriers)
}

func (e *spyEncoder) CopyBufferToBuffer(src, dst hal.Buffer, regions []hal.BufferCopy) {
	for _, r := range regions {
		e.dev.logf("CopyBufferToBuffer size=%d", r.Size)
	}
	e.CommandEncoder.CopyBufferToBuffer(src, dst, regions)
}

func (e *spyEncoder) CopyBufferToTexture(src hal.Buffer, dst hal.Texture, regions []hal.BufferTextureCopy) {
	for _, r := range regions {
		e.dev.logf("CopyBufferToTexture %dx%d pitch=%d", r.Size.Width, r.Size.Height, r.BufferLayout.BytesPerRow)
	}
	e.CommandEncoder.CopyBufferToTexture(src, dst, regions)
}

func (e *spyEncoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	a := desc.ColorAttachments[0]
	e.dev.logf("BeginRenderPass load=%v store=%v", a.LoadOp == gputypes.LoadOpLoad, a.StoreOp == gputypes.StoreOpStore)
	return &spyPass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), dev: e.dev}
}

func bufferUsageName(u gputypes.BufferUsage) string {
	switch u {
	case gputypes.BufferUsageNone:
		return "None"
	case gputypes.BufferUsageCopyDst:
		return "CopyDst"
	case gputypes.BufferUsageVertex:
		return "Vertex"
	case gputypes.BufferUsageIndex:
		return "Index"
	default:
		return fmt.Sprintf("%#x", uint64(u))
	}
}

func textureUsageName(u gputypes.TextureUsage) string {
	switch u {
	case gputypes.TextureUsageNone:
		return "None"
	case gputypes.TextureUsageCopyDst:
		return "CopyDst"
	case gputypes.TextureUsageTextureBinding:
		return "TextureBinding"
	default:
		return fmt.Sprintf("%#x", uint64(u))
	}
}

type spyPass struct {
	hal.RenderPassEncoder
	dev *spyDevice
}

func (p *spyPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.dev.logf("SetBindGroup %d %v", index, offsets)
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *spyPass) SetScissorRect(x, y, w, h uint32) {
	p.dev.logf("SetScissorRect %d %d %d %d", x, y, w, h)
	p.RenderPassEncoder.SetScissorRect(x, y, w, h)
}

func (p *spyPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.dev.logf("DrawIndexed %d", indexCount)
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *spyPass) End() {
	p.dev.logf("End")
	p.RenderPassEncoder.End()
}

// openNoop opens the noop HAL backend wrapped in spies.
func openNoop(t *testing.T) (*spyDevice, *spyQueue) {
	t.Helper()
	inst, err := noop.API{}.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := inst.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend exposes no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	q := &spyQueue{Queue: open.Queue}
	d := &spyDevice{Device: open.Device, queue: q, destroyed: make(map[string]int)}
	return d, q
}

// newTestDevice returns a HALDevice over spied noop objects.
func newTestDevice(t *testing.T, opts ...Option) (*HALDevice, *spyDevice, *spyQueue) {
	t.Helper()
	sd, sq := openNoop(t)
	dev, err := New(sd, sq, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = dev.Close() })
	return dev, sd, sq
}

// targetView returns a texture view to render into.
func targetView(t *testing.T, sd *spyDevice) hal.TextureView {
	t.Helper()
	view, err := sd.Device.CreateTextureView(nil, &hal.TextureViewDescriptor{Label: "target"})
	if err != nil {
		t.Fatalf("CreateTextureView: %v", err)
	}
	return view
}

// fakeProvider is a gpucontext.DeviceProvider exposing HAL objects.
type fakeProvider struct {
	device  any
	queue   any
	surface gputypes.TextureFormat
}

func (p *fakeProvider) Device() gpucontext.Device             { return nil }
func (p *fakeProvider) Queue() gpucontext.Queue               { return nil }
func (p *fakeProvider) SurfaceFormat() gputypes.TextureFormat { return p.surface }
func (p *fakeProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *fakeProvider) HalDevice() any                        { return p.device }
func (p *fakeProvider) HalQueue() any                         { return p.queue }

func (p *fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "fake", Type: gpucontext.AdapterTypeSoftware}
}

// headlessProvider exposes no HAL objects.
type headlessProvider struct{}

func (headlessProvider) Device() gpucontext.Device             { return nil }
func (headlessProvider) Queue() gpucontext.Queue               { return nil }
func (headlessProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatUndefined }
func (headlessProvider) Adapter() gpucontext.Adapter           { return nil }
func (headlessProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
