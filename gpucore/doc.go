// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the device abstraction the UI renderer consumes.
//
// The renderer never talks to a graphics API directly. It creates resources
// through a [Device] and records per-frame work into a [CommandRecorder]:
//
//	               +------------------+
//	               |      render      |
//	               | (draw translator)|
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          | internal/gputest|
//	|  (hal.Device)   |          | (recording fake)|
//	+-----------------+          +-----------------+
//
// # Resource Management
//
// Resources are managed via opaque IDs ([BufferID], [TextureID], etc.).
// [InvalidID] is never returned for a live resource, so a zero ID always
// means "not created".
//
// # Command Model
//
// The recorder follows explicit-API semantics: buffers and textures are
// moved between usage states with barriers, copies are issued from a mapped
// upload buffer into device-resident resources, and small per-draw data
// travels as push constants.
package gpucore
