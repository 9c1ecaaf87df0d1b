// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"encoding/binary"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/render"
)

func TestNewFromProvider(t *testing.T) {
	sd, sq := openNoop(t)

	dev, err := NewFromProvider(&fakeProvider{device: sd, queue: sq, surface: gputypes.TextureFormatRGBA8UnormSrgb})
	if err != nil {
		t.Fatalf("NewFromProvider: %v", err)
	}
	defer dev.Close()
	want := gpucore.Capabilities{
		ShaderFormat:   DefaultShaderFormat,
		TargetFormat:   gpucore.TextureFormatRGBA8Unorm,
		MaxTextureSize: DefaultMaxTextureSize,
	}
	if diff := cmp.Diff(want, dev.Capabilities()); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}

	dev2, err := NewFromProvider(&fakeProvider{device: sd, queue: sq, surface: gputypes.TextureFormatRGBA8Unorm},
		WithTargetFormat(gpucore.TextureFormatBGRA8Unorm), WithShaderFormat(gpucore.ShaderFormatSPIRV), WithMaxTextureSize(4096))
	if err != nil {
		t.Fatalf("NewFromProvider with options: %v", err)
	}
	defer dev2.Close()
	want = gpucore.Capabilities{
		ShaderFormat:   gpucore.ShaderFormatSPIRV,
		TargetFormat:   gpucore.TextureFormatBGRA8Unorm,
		MaxTextureSize: 4096,
	}
	if diff := cmp.Diff(want, dev2.Capabilities()); diff != "" {
		t.Errorf("Capabilities with options mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFromProviderErrors(t *testing.T) {
	sd, sq := openNoop(t)
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
	}{
		{"no hal", headlessProvider{}},
		{"wrong device", &fakeProvider{device: "device", queue: sq}},
		{"wrong queue", &fakeProvider{device: sd, queue: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFromProvider(tt.provider); !errors.Is(err, ErrNoHALDevice) {
				t.Errorf("err = %v, want ErrNoHALDevice", err)
			}
		})
	}

	if _, err := New(nil, sq); !errors.Is(err, ErrNoHALDevice) {
		t.Errorf("New(nil): err = %v, want ErrNoHALDevice", err)
	}
}

func TestBufferShadowUpload(t *testing.T) {
	dev, _, sq := newTestDevice(t)

	id, err := dev.CreateBuffer(&gpucore.BufferDesc{Label: "upload", Size: 10, Usage: gpucore.BufferUsageMapWrite | gpucore.BufferUsageCopySrc})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	mem, err := dev.MapBuffer(id)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	if len(mem) != 10 {
		t.Fatalf("len(mem) = %d, want 10", len(mem))
	}
	mem[5], mem[6] = 0xAB, 0xCD
	dev.UnmapBuffer(id)

	if len(sq.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(sq.writes))
	}
	w := sq.writes[0]
	if w.offset != 4 || len(w.data) != 4 {
		t.Errorf("write at %d of %d bytes, want 4-byte aligned [4, 8)", w.offset, len(w.data))
	}
	if diff := cmp.Diff([]byte{0, 0xAB, 0xCD, 0}, w.data); diff != "" {
		t.Errorf("written bytes mismatch (-want +got):\n%s", diff)
	}

	// Unchanged contents are not written again.
	if _, err := dev.MapBuffer(id); err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	dev.UnmapBuffer(id)
	if len(sq.writes) != 1 {
		t.Errorf("writes after clean unmap = %d, want 1", len(sq.writes))
	}
}

func TestBufferErrors(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	if _, err := dev.CreateBuffer(&gpucore.BufferDesc{Label: "empty"}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("zero size: err = %v, want ErrInvalidDescriptor", err)
	}
	id, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 64, Usage: gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if _, err := dev.MapBuffer(id); !errors.Is(err, ErrNotMappable) {
		t.Errorf("map vertex buffer: err = %v, want ErrNotMappable", err)
	}
	if _, err := dev.MapBuffer(999); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("map unknown: err = %v, want ErrUnknownResource", err)
	}
	dev.UnmapBuffer(999)
	dev.DestroyBuffer(999)
}

func TestTextureErrors(t *testing.T) {
	dev, _, _ := newTestDevice(t, WithMaxTextureSize(64))
	tests := []struct {
		name string
		desc gpucore.TextureDesc
		want error
	}{
		{"zero", gpucore.TextureDesc{Width: 0, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm}, ErrInvalidDescriptor},
		{"too large", gpucore.TextureDesc{Width: 65, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm}, ErrInvalidDescriptor},
		{"format", gpucore.TextureDesc{Width: 4, Height: 4}, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dev.CreateTexture(&tt.desc); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPipelineLayoutConstantsGroup(t *testing.T) {
	dev, sd, _ := newTestDevice(t)

	bgl, err := dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeSampler, Visibility: gpucore.ShaderStageFragment},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}

	if _, err := dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{
		PushConstantSize: 72,
		BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl},
	}); err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	got := sd.pipelineLayouts[len(sd.pipelineLayouts)-1]
	if len(got.BindGroupLayouts) != 2 || got.BindGroupLayouts[0] != dev.constantsLayout {
		t.Errorf("layouts = %v, want constants layout first then one more", got.BindGroupLayouts)
	}
	if len(got.PushConstantRanges) != 0 {
		t.Errorf("PushConstantRanges = %v, want none", got.PushConstantRanges)
	}

	if _, err := dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{bgl}}); err != nil {
		t.Fatalf("CreatePipelineLayout without constants: %v", err)
	}
	got = sd.pipelineLayouts[len(sd.pipelineLayouts)-1]
	if len(got.BindGroupLayouts) != 1 {
		t.Errorf("layouts without constants = %d, want 1", len(got.BindGroupLayouts))
	}

	if _, err := dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{PushConstantSize: 300}); !errors.Is(err, ErrPushConstantsTooLarge) {
		t.Errorf("oversized constants: err = %v, want ErrPushConstantsTooLarge", err)
	}
	if _, err := dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{BindGroupLayouts: []gpucore.BindGroupLayoutID{12345}}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("unknown layout: err = %v, want ErrUnknownResource", err)
	}
}

func TestBindGroupEntries(t *testing.T) {
	dev, _, _ := newTestDevice(t)
	bgl, err := dev.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeSampler, Visibility: gpucore.ShaderStageFragment},
			{Binding: 1, Type: gpucore.BindingTypeSampledTexture, Visibility: gpucore.ShaderStageFragment},
		},
	})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	smp, err := dev.CreateSampler(&gpucore.SamplerDesc{Filter: gpucore.FilterNearest})
	if err != nil {
		t.Fatalf("CreateSampler: %v", err)
	}
	tex, err := dev.CreateTexture(&gpucore.TextureDesc{Width: 2, Height: 2, Format: gpucore.TextureFormatRGBA8Unorm,
		Usage: gpucore.TextureUsageCopyDst | gpucore.TextureUsageTextureBinding})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}

	if _, err := dev.CreateBindGroup(&gpucore.BindGroupDesc{Layout: bgl, Entries: []gpucore.BindGroupEntry{
		{Binding: 0, Sampler: smp},
		{Binding: 1, Texture: tex},
	}}); err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}

	tests := []struct {
		name    string
		entries []gpucore.BindGroupEntry
		want    error
	}{
		{"both", []gpucore.BindGroupEntry{{Binding: 0, Sampler: smp, Texture: tex}}, ErrInvalidDescriptor},
		{"neither", []gpucore.BindGroupEntry{{Binding: 0}}, ErrInvalidDescriptor},
		{"unknown texture", []gpucore.BindGroupEntry{{Binding: 1, Texture: 9999}}, ErrUnknownResource},
		{"unknown sampler", []gpucore.BindGroupEntry{{Binding: 0, Sampler: 9999}}, ErrUnknownResource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dev.CreateBindGroup(&gpucore.BindGroupDesc{Layout: bgl, Entries: tt.entries})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRendererOnHALDevice(t *testing.T) {
	dev, sd, sq := newTestDevice(t)
	r, err := render.New(dev)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	defer r.Close()

	p := sd.pipelines[len(sd.pipelines)-1]
	if p.Fragment == nil || p.Fragment.Targets[0].Format != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("pipeline fragment = %+v, want BGRA8 target", p.Fragment)
	}
	if p.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList || p.Primitive.CullMode != gputypes.CullModeNone {
		t.Errorf("primitive = %+v", p.Primitive)
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	tri := []render.Vertex{
		{Position: f32.Vec2{0, 0}, Color: white},
		{Position: f32.Vec2{10, 0}, Color: white},
		{Position: f32.Vec2{0, 10}, Color: white},
	}
	quad := append(tri[:3:3], render.Vertex{Position: f32.Vec2{10, 10}, Color: white})

	rec := dev.NewRecorder()
	if err := r.Start(rec, 64, 32); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.RenderGeometry(tri, []uint32{0, 1, 2}, 0, f32.Vec2{}); err != nil {
		t.Fatalf("RenderGeometry: %v", err)
	}
	if err := r.RenderGeometry(quad, []uint32{0, 1, 2, 2, 1, 3}, 0, f32.Vec2{5, 7}); err != nil {
		t.Fatalf("RenderGeometry: %v", err)
	}
	if err := r.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
	sd.log = nil
	if err := rec.Submit(targetView(t, sd)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	want := []string{
		"TransitionTexture None->CopyDst",
		"CopyBufferToTexture 1x1 pitch=256",
		"TransitionTexture CopyDst->TextureBinding",
		"TransitionBuffer None->CopyDst",
		"TransitionBuffer None->CopyDst",
		"CopyBufferToBuffer size=60",
		"CopyBufferToBuffer size=12",
		"TransitionBuffer CopyDst->Vertex",
		"TransitionBuffer CopyDst->Index",
		"BeginRenderPass load=true store=true",
		"SetBindGroup 0 [0]",
		"SetBindGroup 1 []",
		"SetScissorRect 0 0 64 32",
		"DrawIndexed 3",
		"End",
		"TransitionBuffer Vertex->CopyDst",
		"TransitionBuffer Index->CopyDst",
		"CopyBufferToBuffer size=80",
		"CopyBufferToBuffer size=24",
		"TransitionBuffer CopyDst->Vertex",
		"TransitionBuffer CopyDst->Index",
		"BeginRenderPass load=true store=true",
		"SetBindGroup 0 [256]",
		"SetBindGroup 1 []",
		"SetScissorRect 0 0 64 32",
		"DrawIndexed 6",
		"End",
	}
	if diff := cmp.Diff(want, sd.log); diff != "" {
		t.Errorf("encoded commands mismatch (-want +got):\n%s", diff)
	}
	if sq.submits != 1 {
		t.Errorf("submits = %d, want 1", sq.submits)
	}

	// The constants write holds one 256-byte slot per draw.
	consts := dev.constants.sets[0].raw
	var slots []byte
	for _, w := range sq.writes {
		if w.buffer == consts {
			slots = w.data
		}
	}
	if len(slots) != 2*constantsSlotSize {
		t.Fatalf("constants write = %d bytes, want %d", len(slots), 2*constantsSlotSize)
	}
	tx := math.Float32frombits(binary.LittleEndian.Uint32(slots[constantsSlotSize+64:]))
	ty := math.Float32frombits(binary.LittleEndian.Uint32(slots[constantsSlotSize+68:]))
	if tx != 5 || ty != 7 {
		t.Errorf("second draw translation = (%v, %v), want (5, 7)", tx, ty)
	}
	if rec.Len() != 0 {
		t.Errorf("recorder holds %d commands after Submit", rec.Len())
	}
}

// drawSetup creates the objects for hand-recorded draws.
type drawSetup struct {
	pipeline gpucore.RenderPipelineID
	layout   gpucore.PipelineLayoutID
	vertex   gpucore.BufferID
	index    gpucore.BufferID
}

func newDrawSetup(t *testing.T, dev *HALDevice) drawSetup {
	t.Helper()
	var s drawSetup
	shader, err := dev.CreateShaderModule(&gpucore.ShaderModuleDesc{WGSL: "@vertex fn vs() {}"})
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	if s.layout, err = dev.CreatePipelineLayout(&gpucore.PipelineLayoutDesc{PushConstantSize: 8}); err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	if s.pipeline, err = dev.CreateRenderPipeline(&gpucore.RenderPipelineDesc{
		Layout:         s.layout,
		VertexShader:   shader,
		FragmentShader: shader,
		Vertex:         gpucore.VertexLayout{Stride: 8, Attributes: []gpucore.VertexAttribute{{Format: gpucore.VertexFormatFloat32x2}}},
		TargetFormat:   gpucore.TextureFormatBGRA8Unorm,
	}); err != nil {
		t.Fatalf("CreateRenderPipeline: %v", err)
	}
	if s.vertex, err = dev.CreateBuffer(&gpucore.BufferDesc{Size: 64, Usage: gpucore.BufferUsageVertex}); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if s.index, err = dev.CreateBuffer(&gpucore.BufferDesc{Size: 64, Usage: gpucore.BufferUsageIndex}); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return s
}

func (s drawSetup) record(rec *Recorder) {
	rec.SetPipeline(s.pipeline)
	rec.SetPipelineLayout(s.layout)
	rec.SetVertexBuffer(0, gpucore.VertexBufferView{Buffer: s.vertex, Size: 64, Stride: 8})
	rec.SetIndexBuffer(gpucore.IndexBufferView{Buffer: s.index, Size: 64, Format: gpucore.IndexFormatUint16})
	rec.SetPushConstants(0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	rec.DrawIndexed(3, 1, 0, 0, 0)
}

func TestRecorderErrors(t *testing.T) {
	dev, sd, sq := newTestDevice(t)
	s := newDrawSetup(t, dev)
	view := targetView(t, sd)

	tests := []struct {
		name   string
		record func(rec *Recorder)
		target bool
		want   error
	}{
		{"unknown pipeline", func(rec *Recorder) {
			rec.SetPipeline(777)
			s.record(rec)
		}, true, ErrUnknownResource},
		{"constants overflow", func(rec *Recorder) {
			rec.SetPipelineLayout(s.layout)
			rec.SetPushConstants(4, make([]byte, 8))
		}, true, ErrPushConstantsTooLarge},
		{"vertex slot", func(rec *Recorder) {
			rec.SetVertexBuffer(1, gpucore.VertexBufferView{Buffer: s.vertex})
		}, true, ErrInvalidDescriptor},
		{"unaligned copy", func(rec *Recorder) {
			rec.CopyBufferRegion(s.vertex, 0, s.index, 2, 4)
		}, true, ErrInvalidDescriptor},
		{"no target", s.record, false, ErrInvalidDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := dev.NewRecorder()
			tt.record(rec)
			target := view
			if !tt.target {
				target = nil
			}
			before := sq.submits
			if err := rec.Submit(target); !errors.Is(err, tt.want) {
				t.Errorf("Submit: err = %v, want %v", err, tt.want)
			}
			if sq.submits != before {
				t.Error("failed recording was submitted")
			}
			if rec.Err() != nil || rec.Len() != 0 {
				t.Error("recorder not reset after Submit")
			}
		})
	}

	t.Run("draw without buffers", func(t *testing.T) {
		rec := dev.NewRecorder()
		rec.SetPipeline(s.pipeline)
		rec.DrawIndexed(3, 1, 0, 0, 0)
		if rec.Err() == nil {
			t.Error("Err() = nil, want error")
		}
	})

	t.Run("empty", func(t *testing.T) {
		before := sq.submits
		if err := dev.NewRecorder().Submit(nil); err != nil {
			t.Errorf("Submit(empty) = %v", err)
		}
		if sq.submits != before {
			t.Error("empty recorder was submitted")
		}
	})
}

func TestConstantsRingRotation(t *testing.T) {
	dev, sd, sq := newTestDevice(t)
	s := newDrawSetup(t, dev)
	view := targetView(t, sd)

	// The GPU completes nothing until WaitIdle.
	sq.stalled = true
	rec := dev.NewRecorder()
	for frame := 1; frame <= constantsSets; frame++ {
		s.record(rec)
		if err := rec.Submit(view); err != nil {
			t.Fatalf("frame %d: Submit: %v", frame, err)
		}
	}
	if sd.waits != 0 {
		t.Errorf("waits after %d frames = %d, want 0", constantsSets, sd.waits)
	}

	// The next frame reuses the first constants buffer, still in flight.
	s.record(rec)
	if err := rec.Submit(view); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sd.waits != 1 {
		t.Errorf("waits = %d, want 1", sd.waits)
	}

	created := 0
	for _, b := range sd.buffers {
		if b.Label == "uirender.constants" {
			created++
			if b.Usage&gputypes.BufferUsageUniform == 0 || b.Size%constantsSlotSize != 0 {
				t.Errorf("constants buffer %+v", b)
			}
		}
	}
	if created != constantsSets {
		t.Errorf("constants buffers created = %d, want %d", created, constantsSets)
	}
}

func TestDeferredDestroy(t *testing.T) {
	dev, sd, sq := newTestDevice(t)
	s := newDrawSetup(t, dev)
	view := targetView(t, sd)

	tex, err := dev.CreateTexture(&gpucore.TextureDesc{Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	// Nothing submitted yet: destruction is immediate.
	dev.DestroyTexture(tex)
	if sd.destroyed["texture"] != 1 {
		t.Fatalf("destroyed textures = %d, want 1", sd.destroyed["texture"])
	}

	tex, err = dev.CreateTexture(&gpucore.TextureDesc{Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	sq.stalled = true
	rec := dev.NewRecorder()
	s.record(rec)
	if err := rec.Submit(view); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	dev.DestroyTexture(tex)
	if sd.destroyed["texture"] != 1 {
		t.Errorf("texture destroyed while a submission is in flight")
	}

	// Completion is noticed on the next submit.
	sq.stalled = false
	rec.BufferBarriers(gpucore.BufferBarrier{Buffer: s.vertex, State: gpucore.BufferStateVertex})
	if err := rec.Submit(nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sd.destroyed["texture"] != 2 {
		t.Errorf("destroyed textures = %d, want 2", sd.destroyed["texture"])
	}
}

func TestUnmapWaitsForReaders(t *testing.T) {
	dev, sd, sq := newTestDevice(t)

	upload, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageMapWrite | gpucore.BufferUsageCopySrc})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	dst, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageCopyDst | gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	frame := func(b byte) {
		t.Helper()
		mem, err := dev.MapBuffer(upload)
		if err != nil {
			t.Fatalf("MapBuffer: %v", err)
		}
		mem[0] = b
		dev.UnmapBuffer(upload)
		rec := dev.NewRecorder()
		rec.CopyBufferRegion(dst, 0, upload, 0, 16)
		if err := rec.Submit(nil); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	sq.stalled = true
	frame(1)
	if sd.waits != 0 {
		t.Fatalf("waits after first frame = %d, want 0", sd.waits)
	}
	frame(2)
	if sd.waits != 1 {
		t.Errorf("waits = %d, want 1 before overwriting a buffer in flight", sd.waits)
	}
}

func TestFailedFlushFailsSubmit(t *testing.T) {
	dev, _, sq := newTestDevice(t)

	upload, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageMapWrite | gpucore.BufferUsageCopySrc})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	dst, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageCopyDst | gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	frame := func(b byte) error {
		t.Helper()
		mem, err := dev.MapBuffer(upload)
		if err != nil {
			t.Fatalf("MapBuffer: %v", err)
		}
		mem[0] = b
		dev.UnmapBuffer(upload)
		rec := dev.NewRecorder()
		rec.CopyBufferRegion(dst, 0, upload, 0, 16)
		return rec.Submit(nil)
	}

	errWrite := errors.New("queue lost")
	sq.failWrite = errWrite
	if err := frame(7); !errors.Is(err, errWrite) {
		t.Fatalf("Submit after failed flush: err = %v, want %v", err, errWrite)
	}
	if sq.submits != 0 {
		t.Errorf("submits = %d, want 0", sq.submits)
	}

	// The span stays dirty and is written by the next unmap.
	sq.failWrite = nil
	if err := frame(7); err != nil {
		t.Fatalf("Submit after recovery: %v", err)
	}
	if len(sq.writes) != 1 || sq.writes[0].offset != 0 || sq.writes[0].data[0] != 7 {
		t.Errorf("writes = %+v, want the retried span at offset 0", sq.writes)
	}
}

func TestCloseReleasesResources(t *testing.T) {
	dev, sd, _ := newTestDevice(t)
	if _, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageVertex}); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if _, err := dev.CreateTexture(&gpucore.TextureDesc{Width: 1, Height: 1, Format: gpucore.TextureFormatRGBA8Unorm}); err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sd.destroyed["buffer"] != 1 || sd.destroyed["texture"] != 1 {
		t.Errorf("destroyed = %v, want one buffer and one texture", sd.destroyed)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer after Close: err = %v, want ErrClosed", err)
	}
	if err := dev.NewRecorder().Submit(nil); err != nil {
		t.Errorf("empty Submit after Close: %v", err)
	}
}
