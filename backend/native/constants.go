// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// The HAL render pass has no push constants. Each draw's push constant block
// is instead copied into its own slot of a uniform buffer and selected with a
// dynamic offset on bind group 0.
const (
	// constantsSlotSize is the stride between slots, the minimum uniform
	// buffer offset alignment WebGPU guarantees.
	constantsSlotSize = 256

	// constantsMinSlots is the initial slot count of a constants buffer.
	constantsMinSlots = 64

	// constantsSets is how many constants buffers rotate between submissions.
	constantsSets = 3
)

// constantsBuffer is one uniform buffer of slots with its bind group.
type constantsBuffer struct {
	raw     hal.Buffer
	group   hal.BindGroup
	size    uint64
	lastUse uint64
}

func (c *constantsBuffer) destroy(dev hal.Device) {
	if c.group != nil {
		dev.DestroyBindGroup(c.group)
		c.group = nil
	}
	if c.raw != nil {
		dev.DestroyBuffer(c.raw)
		c.raw = nil
	}
	c.size = 0
}

// constantsRing rotates constants buffers so a submission never overwrites
// slots an earlier, unfinished submission still reads.
type constantsRing struct {
	sets [constantsSets]constantsBuffer
	next int
}

func (r *constantsRing) destroy(dev hal.Device) {
	for i := range r.sets {
		r.sets[i].destroy(dev)
	}
}

// acquireConstantsLocked returns the next constants buffer, grown to hold at
// least size bytes. If the GPU still reads it, acquireConstantsLocked waits
// for the device to go idle first.
func (d *HALDevice) acquireConstantsLocked(size uint64) (*constantsBuffer, error) {
	r := &d.constants
	c := &r.sets[r.next]
	r.next = (r.next + 1) % constantsSets

	if c.lastUse > d.queue.PollCompleted() {
		if err := d.device.WaitIdle(); err != nil {
			return nil, fmt.Errorf("native: wait for constants buffer: %w", err)
		}
		d.collectLocked()
	}
	if c.size >= size {
		return c, nil
	}

	newSize := max(size, 2*c.size, constantsSlotSize*constantsMinSlots)
	newSize = alignUp(newSize, constantsSlotSize)
	c.destroy(d.device)

	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "uirender.constants",
		Size:  newSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create constants buffer: %w", err)
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "uirender.constants",
		Layout: d.constantsLayout,
		Entries: []gputypes.BindGroupEntry{{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: raw.NativeHandle(), Size: constantsSlotSize},
		}},
	})
	if err != nil {
		d.device.DestroyBuffer(raw)
		return nil, fmt.Errorf("native: create constants bind group: %w", err)
	}
	c.raw, c.group, c.size = raw, group, newSize
	return c, nil
}
