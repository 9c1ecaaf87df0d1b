// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native implements gpucore.Device on a gogpu/wgpu HAL device.
//
// The host owns the HAL device and queue, typically obtained from a
// gpucontext.DeviceProvider, and renders each frame into a texture view of
// its own:
//
//	dev, _ := native.NewFromProvider(provider)
//	r, _ := render.New(dev)
//	rec := dev.NewRecorder()
//
//	// every frame
//	r.Start(rec, width, height)
//	engine.Render(r)
//	r.End()
//	rec.Submit(targetView)
//
// The HAL has no push constants. A layout with a push constant block gets an
// extra bind group 0 holding a dynamic uniform buffer, and every draw's block
// is stored in its own 256-byte slot of that buffer. Shaders therefore read
// their constants from @group(0) @binding(0) and number their other groups
// from 1.
//
// Mappable buffers are CPU shadows. UnmapBuffer writes the bytes that
// changed through the queue, after waiting for earlier frames that copied
// out of the same buffer.
//
// Destroyed resources are released once every submission made before the
// call has completed.
package native
