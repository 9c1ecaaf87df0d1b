// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package events

import (
	"runtime"
	"sync/atomic"
)

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// Bridge is a lock-free multi-producer single-consumer FIFO queue.
//
// Push is safe from any number of goroutines. TryPop, Drain and Empty must
// only be called from one consumer goroutine at a time. Events pushed by a
// single producer are popped in the order they were pushed.
//
// A Bridge must be created with NewBridge.
type Bridge[T any] struct {
	// head is the most recently pushed node; producers swap it.
	head atomic.Pointer[node[T]]
	// tail is the consumer's stub: its successor is the next event.
	tail *node[T]

	length atomic.Int64
}

// NewBridge returns an empty bridge.
func NewBridge[T any]() *Bridge[T] {
	b := &Bridge[T]{}
	stub := &node[T]{}
	b.head.Store(stub)
	b.tail = stub
	return b
}

// Push enqueues v. It never blocks.
func (b *Bridge[T]) Push(v T) {
	n := &node[T]{value: v}
	b.length.Add(1)
	prev := b.head.Swap(n)
	// Until this store TryPop waits at prev.
	prev.next.Store(n)
}

// TryPop removes and returns the oldest event. It reports false only when
// every Push that started has been popped. If a producer has swapped head but
// not yet linked its node, TryPop yields until that single store lands, so
// events pushed after it are not hidden.
func (b *Bridge[T]) TryPop() (T, bool) {
	next := b.tail.next.Load()
	for next == nil {
		if b.head.Load() == b.tail {
			var zero T
			return zero, false
		}
		runtime.Gosched()
		next = b.tail.next.Load()
	}
	v := next.value
	var zero T
	next.value = zero
	b.tail = next
	b.length.Add(-1)
	return v, true
}

// Drain pops events until the queue is empty, passing each to fn in FIFO
// order. It returns the number of events delivered.
func (b *Bridge[T]) Drain(fn func(T)) int {
	n := 0
	for {
		v, ok := b.TryPop()
		if !ok {
			return n
		}
		fn(v)
		n++
	}
}

// Empty reports whether every event pushed so far has been popped. An event
// whose Push is still in progress counts as present.
func (b *Bridge[T]) Empty() bool {
	return b.head.Load() == b.tail
}

// Len returns the number of pushed but not yet popped events. Under
// concurrent pushes it is a snapshot.
func (b *Bridge[T]) Len() int {
	return int(b.length.Load())
}
