// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
)

// DefaultRetireLatency is the number of frame sessions a retired resource
// stays alive. One frame is in flight at a time, so a resource retired while
// frame N is recorded is released when frame N+1 starts.
const DefaultRetireLatency = 1

// retired is one deferred free.
type retired struct {
	gen   uint64
	label string
	free  func()
}

// Retirer is a frame-generation-tagged deferred-free queue.
//
// Resources retired during generation G are released by the Advance call that
// moves the counter to G+latency. Advance is called once per frame session
// start, so nothing is ever released in the middle of a session.
//
// Retirer is not safe for concurrent use.
type Retirer struct {
	latency uint64
	gen     uint64
	pending []retired
}

// NewRetirer creates a queue with the given latency in frames.
// A latency below 1 is raised to 1.
func NewRetirer(latency int) *Retirer {
	if latency < 1 {
		latency = 1
	}
	return &Retirer{latency: uint64(latency)}
}

// Latency returns the configured latency in frames.
func (r *Retirer) Latency() int { return int(r.latency) }

// Generation returns the current frame generation.
func (r *Retirer) Generation() uint64 { return r.gen }

// Pending returns the number of resources waiting to be released.
func (r *Retirer) Pending() int { return len(r.pending) }

// Retire schedules free to run once the current generation has aged out.
func (r *Retirer) Retire(label string, free func()) {
	if free == nil {
		return
	}
	r.pending = append(r.pending, retired{gen: r.gen, label: label, free: free})
}

// RetireBuffer schedules a device buffer for destruction.
func (r *Retirer) RetireBuffer(dev gpucore.Device, label string, id gpucore.BufferID) {
	if id == gpucore.InvalidID {
		return
	}
	r.Retire(label, func() { dev.DestroyBuffer(id) })
}

// Advance moves to the next generation and releases every resource whose
// generation has aged out. It returns the number of released resources.
func (r *Retirer) Advance() int {
	r.gen++

	kept := r.pending[:0]
	freed := 0
	for _, e := range r.pending {
		if e.gen+r.latency <= r.gen {
			e.free()
			freed++
			continue
		}
		kept = append(kept, e)
	}
	// Drop references held by the tail so released closures can be collected.
	for i := len(kept); i < len(r.pending); i++ {
		r.pending[i] = retired{}
	}
	r.pending = kept

	if freed > 0 {
		uirender.Logger().Debug("stream: released retired resources",
			"count", freed, "generation", r.gen, "pending", len(r.pending))
	}
	return freed
}

// Flush releases everything immediately, regardless of generation.
// Use only when the device is idle, e.g. at shutdown.
func (r *Retirer) Flush() int {
	n := len(r.pending)
	for i := range r.pending {
		r.pending[i].free()
		r.pending[i] = retired{}
	}
	r.pending = r.pending[:0]
	return n
}
