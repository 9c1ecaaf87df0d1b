// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package uirender streams per-frame UI geometry and textures into GPU
// buffers for a document-based immediate-mode UI layer.
//
// # Overview
//
// An external UI/layout engine (documents, style cascade, font layout) turns
// its element tree into draw batches: a vertex list, an index list, a texture
// handle and a translation. uirender implements the render-backend side of
// that contract on top of a small device abstraction:
//
//	UI engine ──► render.Backend ──► render.Renderer ──► gpucore.Device
//	                                   │      │
//	                       stream.Arena    stream.GeometryPool
//
// # Packages
//
//   - gpucore: opaque-ID device abstraction and command recorder consumed by
//     the renderer.
//   - render: the draw translator (frame session state machine, scissor,
//     transform) and the texture uploader.
//   - events: lock-free multi-producer/single-consumer input bridge.
//   - frame: per-frame controller that swaps documents, drains input and
//     brackets one document render with Start/End.
//   - backend/native: gpucore.Device over gogpu/wgpu HAL.
//   - cmd/uidemo: headless driver that renders YAML box documents through
//     either the in-memory test device or backend/native.
//
// # Frame model
//
// Everything except the event bridge runs on one goroutine. Resources
// superseded during frame N (grown staging, vertex and index buffers,
// released textures) are destroyed when frame N+K starts, K being
// render.Config.RetireLatency (1 by default).
//
// # Logging
//
// uirender is silent by default. Call [SetLogger] to route diagnostics to a
// [log/slog] logger.
package uirender

// Version is the current version of the module.
const Version = "0.1.0"
