// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"fmt"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
)

// GeometryKind selects what a GeometryBuffer holds.
type GeometryKind int

const (
	// KindVertex is a vertex buffer.
	KindVertex GeometryKind = iota

	// KindIndex is an index buffer.
	KindIndex
)

// String returns the kind name.
func (k GeometryKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindIndex:
		return "index"
	default:
		return fmt.Sprintf("GeometryKind(%d)", int(k))
	}
}

func (k GeometryKind) usage() gpucore.BufferUsage {
	if k == KindIndex {
		return gpucore.BufferUsageIndex | gpucore.BufferUsageCopyDst
	}
	return gpucore.BufferUsageVertex | gpucore.BufferUsageCopyDst
}

// GeometryBuffer is a device-resident vertex or index buffer that only grows.
type GeometryBuffer struct {
	kind     GeometryKind
	dev      gpucore.Device
	retire   *Retirer
	growth   float64
	id       gpucore.BufferID
	capacity uint64
}

// NewGeometryBuffer creates a buffer of the given kind and initial capacity.
func NewGeometryBuffer(dev gpucore.Device, retire *Retirer, kind GeometryKind, capacity uint64, growth float64) (*GeometryBuffer, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("stream: %s buffer capacity: %w", kind, ErrInvalidSize)
	}
	if growth <= 1 {
		growth = DefaultGrowthFactor
	}
	b := &GeometryBuffer{kind: kind, dev: dev, retire: retire, growth: growth}
	if err := b.resize(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

// Kind returns the buffer kind.
func (b *GeometryBuffer) Kind() GeometryKind { return b.kind }

// ID returns the current device buffer.
func (b *GeometryBuffer) ID() gpucore.BufferID { return b.id }

// Capacity returns the current size in bytes.
func (b *GeometryBuffer) Capacity() uint64 { return b.capacity }

// Ensure grows the buffer to growth*size when size exceeds the capacity.
// It reports whether the buffer was replaced.
func (b *GeometryBuffer) Ensure(size uint64) (bool, error) {
	if size <= b.capacity {
		return false, nil
	}
	if err := b.resize(growSize(size, b.growth)); err != nil {
		return false, err
	}
	return true, nil
}

// Destroy releases the current buffer immediately.
func (b *GeometryBuffer) Destroy() {
	if b.id != gpucore.InvalidID {
		b.dev.DestroyBuffer(b.id)
		b.id = gpucore.InvalidID
	}
	b.capacity = 0
}

func (b *GeometryBuffer) resize(size uint64) error {
	label := "uirender." + b.kind.String()
	id, err := b.dev.CreateBuffer(&gpucore.BufferDesc{
		Label: label,
		Size:  size,
		Usage: b.kind.usage(),
	})
	if err != nil {
		return fmt.Errorf("stream: create %s buffer (%d bytes): %w", b.kind, size, err)
	}
	if b.id != gpucore.InvalidID {
		b.retire.RetireBuffer(b.dev, label, b.id)
		uirender.Logger().Debug("stream: geometry buffer grew",
			"kind", b.kind.String(), "from", b.capacity, "to", size)
	}
	b.id = id
	b.capacity = size
	return nil
}

// GeometryPool owns the vertex and index buffers draws are copied into.
type GeometryPool struct {
	Vertex *GeometryBuffer
	Index  *GeometryBuffer
}

// NewGeometryPool creates both buffers.
func NewGeometryPool(dev gpucore.Device, retire *Retirer, vertexBytes, indexBytes uint64, growth float64) (*GeometryPool, error) {
	vb, err := NewGeometryBuffer(dev, retire, KindVertex, vertexBytes, growth)
	if err != nil {
		return nil, err
	}
	ib, err := NewGeometryBuffer(dev, retire, KindIndex, indexBytes, growth)
	if err != nil {
		vb.Destroy()
		return nil, err
	}
	return &GeometryPool{Vertex: vb, Index: ib}, nil
}

// Reserve makes room for a batch of the given byte sizes.
func (p *GeometryPool) Reserve(vertexBytes, indexBytes uint64) error {
	if _, err := p.Vertex.Ensure(vertexBytes); err != nil {
		return err
	}
	if _, err := p.Index.Ensure(indexBytes); err != nil {
		return err
	}
	return nil
}

// Destroy releases both buffers immediately.
func (p *GeometryPool) Destroy() {
	p.Vertex.Destroy()
	p.Index.Destroy()
}
