// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// Renderer errors.
var (
	// ErrNilDevice is returned by New when no device is given.
	ErrNilDevice = errors.New("render: nil device")

	// ErrSessionOpen is returned by Start while a frame session is open.
	ErrSessionOpen = errors.New("render: frame session already open")

	// ErrSessionClosed is returned by operations that need an open frame session.
	ErrSessionClosed = errors.New("render: no open frame session")

	// ErrInvalidTargetSize is returned by Start for a non-positive target size.
	ErrInvalidTargetSize = errors.New("render: invalid target size")

	// ErrUnknownTexture is matched by UnknownTextureError.
	ErrUnknownTexture = errors.New("render: unknown texture handle")

	// ErrUnsupportedSource is returned by LoadTexture for sources it cannot decode.
	ErrUnsupportedSource = errors.New("render: unsupported texture source")

	// ErrInvalidTextureSize is returned for textures with a zero or oversized dimension.
	ErrInvalidTextureSize = errors.New("render: invalid texture size")

	// ErrShortPixelData is returned when pixel data is smaller than width*height*4.
	ErrShortPixelData = errors.New("render: pixel data shorter than texture")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("render: renderer closed")
)

// UnknownTextureError reports a draw with a nonzero handle that was never
// created or was already released.
type UnknownTextureError struct {
	Handle TextureHandle
}

func (e *UnknownTextureError) Error() string {
	return fmt.Sprintf("render: unknown texture handle %d", e.Handle)
}

// Is reports whether target is ErrUnknownTexture.
func (e *UnknownTextureError) Is(target error) bool {
	return target == ErrUnknownTexture
}
