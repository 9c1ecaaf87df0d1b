// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBridgeEmpty(t *testing.T) {
	b := NewBridge[int]()
	if !b.Empty() {
		t.Error("new bridge not empty")
	}
	if v, ok := b.TryPop(); ok {
		t.Errorf("TryPop on empty bridge = %d, true", v)
	}
	if n := b.Drain(func(int) { t.Error("callback on empty bridge") }); n != 0 {
		t.Errorf("Drain = %d, want 0", n)
	}
}

func TestBridgeFIFO(t *testing.T) {
	b := NewBridge[string]()
	for _, s := range []string{"down", "move", "up"} {
		b.Push(s)
	}
	if b.Len() != 3 || b.Empty() {
		t.Fatalf("Len = %d, Empty = %v", b.Len(), b.Empty())
	}

	var got []string
	n := b.Drain(func(s string) { got = append(got, s) })
	if n != 3 {
		t.Errorf("Drain = %d, want 3", n)
	}
	if diff := cmp.Diff([]string{"down", "move", "up"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !b.Empty() || b.Len() != 0 {
		t.Errorf("after drain: Empty = %v, Len = %d", b.Empty(), b.Len())
	}
}

func TestBridgeInterleaved(t *testing.T) {
	b := NewBridge[int]()
	b.Push(1)
	b.Push(2)
	if v, _ := b.TryPop(); v != 1 {
		t.Fatalf("TryPop = %d, want 1", v)
	}
	b.Push(3)
	var got []int
	b.Drain(func(v int) { got = append(got, v) })
	if diff := cmp.Diff([]int{2, 3}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestBridgeReleasesValues(t *testing.T) {
	b := NewBridge[*int]()
	v := new(int)
	b.Push(v)
	b.TryPop()
	if b.tail.value != nil {
		t.Error("popped value still referenced by the queue")
	}
}

type event struct {
	producer int
	seq      int
}

func TestBridgeConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 2000
	b := NewBridge[event]()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Push(event{producer: p, seq: i})
			}
		}(p)
	}

	next := make([]int, producers)
	total := 0
	consume := func(ev event) {
		if ev.seq != next[ev.producer] {
			t.Fatalf("producer %d: got seq %d, want %d", ev.producer, ev.seq, next[ev.producer])
		}
		next[ev.producer]++
		total++
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		b.Drain(consume)
	}
	b.Drain(consume)

	if total != producers*perProducer {
		t.Errorf("received %d events, want %d", total, producers*perProducer)
	}
	if !b.Empty() {
		t.Error("bridge not empty after exhaustive drain")
	}
}

// TestBridgeStalledProducer pauses one producer between claiming its slot
// and linking it. An event pushed completely by another producer after that
// must still be delivered by the next drain.
func TestBridgeStalledProducer(t *testing.T) {
	b := NewBridge[int]()

	// Producer A: the first half of Push.
	stalled := &node[int]{value: 1}
	b.length.Add(1)
	prev := b.head.Swap(stalled)

	// Producer B runs to completion.
	b.Push(2)

	if b.Empty() {
		t.Error("Empty = true with two pushes in progress or done")
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}

	type result struct {
		got []int
		n   int
	}
	drained := make(chan result)
	go func() {
		var r result
		r.n = b.Drain(func(v int) { r.got = append(r.got, v) })
		drained <- r
	}()

	// Producer A finishes.
	prev.next.Store(stalled)

	r := <-drained
	if r.n != 2 {
		t.Errorf("Drain = %d, want 2", r.n)
	}
	if diff := cmp.Diff([]int{1, 2}, r.got); diff != "" {
		t.Errorf("drained events mismatch (-want +got):\n%s", diff)
	}
	if !b.Empty() {
		t.Error("bridge not empty after exhaustive drain")
	}
}

func BenchmarkBridgePushPop(b *testing.B) {
	q := NewBridge[int]()
	for i := 0; i < b.N; i++ {
		q.Push(i)
		q.TryPop()
	}
}
