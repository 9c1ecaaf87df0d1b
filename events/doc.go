// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package events carries input events from platform goroutines to the
// goroutine that renders the UI.
//
// A [Bridge] is an unbounded multi-producer single-consumer queue. Any
// goroutine may Push; exactly one goroutine, normally the frame loop,
// drains it once per frame before the UI processes input:
//
//	bridge := events.NewBridge[platform.Event]()
//
//	// input goroutine
//	bridge.Push(ev)
//
//	// frame loop
//	bridge.Drain(func(ev platform.Event) { ui.ProcessEvent(ev) })
//
// Push never blocks and never drops events. A drain delivers every event
// whose Push returned before the drain started; if another producer is
// between its two atomic steps, the consumer yields until it links.
package events
