// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"testing"

	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/gputest"
)

func TestRetirerLatencyOne(t *testing.T) {
	r := NewRetirer(1)
	var freed []string

	r.Advance() // session 1
	r.Retire("a", func() { freed = append(freed, "a") })
	if len(freed) != 0 {
		t.Fatalf("freed during the session: %v", freed)
	}

	r.Advance() // session 2
	if len(freed) != 1 || freed[0] != "a" {
		t.Fatalf("after next start freed = %v, want [a]", freed)
	}
	if r.Pending() != 0 {
		t.Errorf("pending = %d, want 0", r.Pending())
	}
}

func TestRetirerLatencyTwo(t *testing.T) {
	r := NewRetirer(2)
	freed := 0
	r.Retire("x", func() { freed++ })

	if n := r.Advance(); n != 0 || freed != 0 {
		t.Fatalf("first Advance freed %d (%d), want 0", n, freed)
	}
	if n := r.Advance(); n != 1 || freed != 1 {
		t.Fatalf("second Advance freed %d (%d), want 1", n, freed)
	}
}

func TestRetirerOrderAndPartialRelease(t *testing.T) {
	r := NewRetirer(1)
	var freed []int
	r.Retire("0", func() { freed = append(freed, 0) })
	r.Advance()
	r.Retire("1", func() { freed = append(freed, 1) })
	r.Retire("2", func() { freed = append(freed, 2) })

	if len(freed) != 1 || freed[0] != 0 {
		t.Fatalf("freed = %v, want [0]", freed)
	}
	if r.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", r.Pending())
	}
	r.Advance()
	want := []int{0, 1, 2}
	if len(freed) != len(want) {
		t.Fatalf("freed = %v, want %v", freed, want)
	}
	for i := range want {
		if freed[i] != want[i] {
			t.Errorf("freed[%d] = %d, want %d", i, freed[i], want[i])
		}
	}
}

func TestRetirerClampsLatency(t *testing.T) {
	if got := NewRetirer(0).Latency(); got != 1 {
		t.Errorf("NewRetirer(0).Latency() = %d, want 1", got)
	}
	if got := NewRetirer(-3).Latency(); got != 1 {
		t.Errorf("NewRetirer(-3).Latency() = %d, want 1", got)
	}
}

func TestRetirerIgnoresNil(t *testing.T) {
	r := NewRetirer(1)
	r.Retire("nil", nil)
	r.RetireBuffer(gputest.NewDevice(), "invalid", gpucore.InvalidID)
	if r.Pending() != 0 {
		t.Errorf("pending = %d, want 0", r.Pending())
	}
}

func TestRetirerFlush(t *testing.T) {
	dev := gputest.NewDevice()
	id, err := dev.CreateBuffer(&gpucore.BufferDesc{Size: 16, Usage: gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatal(err)
	}
	r := NewRetirer(3)
	r.RetireBuffer(dev, "vb", id)
	if n := r.Flush(); n != 1 {
		t.Errorf("Flush = %d, want 1", n)
	}
	if !dev.Destroyed(uint64(id)) {
		t.Error("Flush did not destroy the buffer")
	}
	if r.Pending() != 0 {
		t.Errorf("pending after Flush = %d", r.Pending())
	}
}

func TestRetirerGeneration(t *testing.T) {
	r := NewRetirer(1)
	for i := 1; i <= 3; i++ {
		r.Advance()
		if r.Generation() != uint64(i) {
			t.Errorf("Generation = %d, want %d", r.Generation(), i)
		}
	}
}
