// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
)

// Arena errors.
var (
	// ErrNotMapped is returned when allocating from an arena outside a frame session.
	ErrNotMapped = errors.New("stream: arena is not mapped")

	// ErrStaleAllocation is returned when an allocation is accessed after the
	// arena has grown or been reset since it was issued.
	ErrStaleAllocation = errors.New("stream: stale allocation")

	// ErrInvalidSize is returned for a zero-capacity arena or buffer.
	ErrInvalidSize = errors.New("stream: invalid size")
)

// DefaultGrowthFactor is the factor applied to the triggering requirement
// when a buffer has to grow.
const DefaultGrowthFactor = 1.5

// Allocation is a region of the arena's current buffer.
//
// The region's bytes are only reachable through Arena.Bytes, and only until
// the next growth or reset. Write the data right after allocating and record
// the copy out of it before allocating again.
type Allocation struct {
	Offset uint64
	Size   uint64
	Buffer gpucore.BufferID

	epoch uint64
}

// Arena is a frame-scoped bump allocator over a mappable upload buffer.
//
// The arena is mapped by Reset at the start of a frame session and unmapped
// by Unmap at its end. When a request does not fit, the arena replaces its
// buffer with a larger one and hands the old buffer to the Retirer, so copies
// already recorded from it stay valid until the frame completes.
type Arena struct {
	dev    gpucore.Device
	retire *Retirer
	growth float64

	buf      gpucore.BufferID
	capacity uint64
	used     uint64
	mapped   []byte
	epoch    uint64
	grows    int
}

// NewArena creates an unmapped arena with the given initial capacity.
func NewArena(dev gpucore.Device, retire *Retirer, capacity uint64, growth float64) (*Arena, error) {
	if capacity == 0 {
		return nil, fmt.Errorf("stream: arena capacity: %w", ErrInvalidSize)
	}
	if growth <= 1 {
		growth = DefaultGrowthFactor
	}
	a := &Arena{dev: dev, retire: retire, growth: growth}
	if err := a.replace(capacity, false); err != nil {
		return nil, err
	}
	return a, nil
}

// Buffer returns the current upload buffer.
func (a *Arena) Buffer() gpucore.BufferID { return a.buf }

// Capacity returns the current buffer size in bytes.
func (a *Arena) Capacity() uint64 { return a.capacity }

// Used returns the number of bytes allocated since the last reset or growth.
func (a *Arena) Used() uint64 { return a.used }

// Mapped reports whether the arena is inside a frame session.
func (a *Arena) Mapped() bool { return a.mapped != nil }

// Grows returns how many times the arena has replaced its buffer.
func (a *Arena) Grows() int { return a.grows }

// Reset empties the arena and maps its buffer for a new frame session.
// All previously issued allocations become stale.
func (a *Arena) Reset() error {
	a.used = 0
	a.epoch++
	if a.mapped != nil {
		return nil
	}
	mem, err := a.dev.MapBuffer(a.buf)
	if err != nil {
		return fmt.Errorf("stream: map upload buffer: %w", err)
	}
	a.mapped = mem
	return nil
}

// Unmap ends the frame session's access to the buffer.
func (a *Arena) Unmap() {
	if a.mapped == nil {
		return
	}
	a.dev.UnmapBuffer(a.buf)
	a.mapped = nil
	a.epoch++
}

// Allocate reserves n bytes.
//
// If the request does not fit, the arena grows to growth*(used+n), the
// used count restarts at zero and the allocation lands at offset 0.
func (a *Arena) Allocate(n uint64) (Allocation, error) {
	if a.mapped == nil {
		return Allocation{}, ErrNotMapped
	}
	total := a.used + n
	if total > a.capacity {
		if err := a.replace(growSize(total, a.growth), true); err != nil {
			return Allocation{}, err
		}
	}
	off := a.used
	a.used += n
	return a.allocation(off, n), nil
}

// AllocateAligned reserves n bytes at an offset that is a multiple of align.
//
// Padding is skipped to reach the next aligned position. If padding plus n
// does not fit, the arena grows to growth*(used+n) without padding and the
// allocation lands at offset 0.
func (a *Arena) AllocateAligned(n, align uint64) (Allocation, error) {
	if a.mapped == nil {
		return Allocation{}, ErrNotMapped
	}
	if align == 0 {
		align = 1
	}
	total := a.used + n
	padding := (a.used+align-1)/align*align - a.used
	if total+padding > a.capacity {
		if err := a.replace(growSize(total, a.growth), true); err != nil {
			return Allocation{}, err
		}
		a.used = n
		return a.allocation(0, n), nil
	}
	alloc, err := a.Allocate(padding + n)
	if err != nil {
		return Allocation{}, err
	}
	alloc.Offset += padding
	alloc.Size = n
	return alloc, nil
}

// Bytes returns the writable memory of an allocation.
func (a *Arena) Bytes(alloc Allocation) ([]byte, error) {
	if a.mapped == nil {
		return nil, ErrNotMapped
	}
	if alloc.epoch != a.epoch || alloc.Buffer != a.buf {
		return nil, ErrStaleAllocation
	}
	end := alloc.Offset + alloc.Size
	if end > uint64(len(a.mapped)) {
		return nil, fmt.Errorf("stream: allocation [%d,%d) beyond mapped %d bytes: %w",
			alloc.Offset, end, len(a.mapped), ErrStaleAllocation)
	}
	return a.mapped[alloc.Offset:end:end], nil
}

// Destroy unmaps and destroys the current buffer immediately.
// The caller must ensure the device no longer uses it.
func (a *Arena) Destroy() {
	a.Unmap()
	if a.buf != gpucore.InvalidID {
		a.dev.DestroyBuffer(a.buf)
		a.buf = gpucore.InvalidID
	}
	a.capacity = 0
	a.used = 0
}

func (a *Arena) allocation(off, n uint64) Allocation {
	return Allocation{Offset: off, Size: n, Buffer: a.buf, epoch: a.epoch}
}

// replace swaps in a new buffer of the given size. The old buffer is retired,
// not destroyed.
func (a *Arena) replace(size uint64, remap bool) error {
	id, err := a.dev.CreateBuffer(&gpucore.BufferDesc{
		Label: "uirender.upload",
		Size:  size,
		Usage: gpucore.BufferUsageMapWrite | gpucore.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("stream: create upload buffer (%d bytes): %w", size, err)
	}

	old, oldSize := a.buf, a.capacity
	if old != gpucore.InvalidID {
		if a.mapped != nil {
			a.dev.UnmapBuffer(old)
			a.mapped = nil
		}
		a.retire.RetireBuffer(a.dev, "uirender.upload", old)
		a.grows++
		uirender.Logger().Debug("stream: upload arena grew",
			"from", oldSize, "to", size, "generation", a.retire.Generation())
	}

	a.buf = id
	a.capacity = size
	a.used = 0
	a.epoch++

	if remap {
		mem, err := a.dev.MapBuffer(id)
		if err != nil {
			return fmt.Errorf("stream: map upload buffer: %w", err)
		}
		a.mapped = mem
	}
	return nil
}

// growSize returns the capacity a buffer grows to for a requirement.
func growSize(required uint64, factor float64) uint64 {
	size := uint64(math.Ceil(float64(required) * factor))
	if size < required {
		size = required
	}
	if size == 0 {
		size = 1
	}
	return size
}
