// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"image"

	"golang.org/x/image/math/f32"
)

// Backend is what a UI layout engine needs from a render backend.
//
// The engine calls these from its render pass, between the host's Start and
// End. Outside that window Renderer ignores the state setters and returns
// ErrSessionClosed from the others; ReleaseTexture works at any time.
// Renderer is the implementation; tests and alternative hosts can substitute
// their own.
type Backend interface {
	// RenderGeometry draws indexed triangles with a texture, offset by translation.
	RenderGeometry(vertices []Vertex, indices []uint32, texture TextureHandle, translation f32.Vec2) error

	// EnableScissorRegion toggles clipping.
	EnableScissorRegion(enable bool)

	// SetScissorRegion sets the clip rectangle in target pixels.
	SetScissorRegion(x, y, width, height int)

	// LoadTexture loads a texture from a file and returns its handle and size.
	LoadTexture(source string) (TextureHandle, image.Point, error)

	// GenerateTexture creates a texture from RGBA pixels.
	GenerateTexture(pixels []byte, size image.Point) (TextureHandle, error)

	// ReleaseTexture releases a texture handle.
	ReleaseTexture(handle TextureHandle)

	// SetTransform sets the transform applied to subsequent geometry; nil resets it.
	SetTransform(m *f32.Mat4)
}

// Ensure Renderer implements Backend.
var _ Backend = (*Renderer)(nil)
