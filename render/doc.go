// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render is the GPU render backend for a document UI layer.
//
// A UI layout engine produces draw batches (vertices, indices, a texture and
// a translation), scissor changes, transforms and texture create/release
// requests. [Renderer] turns them into commands on a
// [gpucore.CommandRecorder] supplied by the host each frame.
//
// # Key Principle
//
// The renderer RECEIVES a device from the host, it does NOT create one.
// Any [gpucore.Device] works: backend/native wraps a wgpu HAL device, and
// internal/gputest provides an in-memory device for tests.
//
// # Frame Sessions
//
//	r, _ := render.New(dev)
//
//	// every frame
//	r.Start(recorder, width, height)
//	engine.Render(r) // calls r.RenderGeometry, r.SetScissorRegion, ...
//	r.End()
//
// Start releases resources retired in earlier sessions, maps the upload
// arena and binds the pipeline. End unmaps the arena. Draws and texture
// uploads require an open session.
//
// # Uploads
//
// Every draw stages its vertices and indices in one arena allocation and
// copies them into device-resident buffers that grow by Config.GrowthFactor
// when a batch does not fit. Textures are staged with rows padded to
// Config.RowAlignment and copied with a matching footprint. Image files
// store rows bottom-up, so LoadTexture flips them during staging.
//
// # Resource Lifetime
//
// Buffers replaced by growth and textures passed to ReleaseTexture are not
// destroyed immediately; they stay alive for Config.RetireLatency sessions
// so that commands already recorded against them remain valid.
package render
