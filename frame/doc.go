// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package frame drives a document UI once per frame.
//
// A [Controller] owns the loaded documents, one per [Menu], the input
// [events.Bridge] and the render session. The host calls Draw from its
// render loop with the frame's command recorder:
//
//	c := frame.NewController[platform.Event](ui, renderer, map[frame.Menu]string{
//	    frame.MenuLauncher: "assets/launcher.rml",
//	})
//	if err := c.LoadDocuments(); err != nil { ... }
//
//	// input goroutine
//	c.QueueEvent(ev)
//	c.ObserveReloadKey(keys.F11)
//
//	// render loop
//	c.Draw(recorder, width, height)
//
// SetMenu, QueueEvent, RequestReload and ObserveReloadKey are safe from any
// goroutine. Draw, LoadDocuments and Close belong to the render goroutine.
package frame
