// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/uirender"
	"github.com/gogpu/uirender/gpucore"
	"github.com/gogpu/uirender/internal/tga"
)

// TextureHandle identifies a texture to the layout engine.
// Handle 0 is reserved for the 1×1 white fallback texture.
type TextureHandle uint64

// textureFormat is the internal format of every UI texture.
const textureFormat = gpucore.TextureFormatRGBA8Unorm

// whitePixel is the content of the fallback texture.
var whitePixel = []byte{255, 255, 255, 255}

// textureResource is a live texture and its bind group.
type textureResource struct {
	texture gpucore.TextureID
	group   gpucore.BindGroupID
	width   uint32
	height  uint32
}

func (t *textureResource) destroy(dev gpucore.Device) {
	dev.DestroyBindGroup(t.group)
	dev.DestroyTexture(t.texture)
}

// TextureSize returns the size of a live texture.
func (r *Renderer) TextureSize(handle TextureHandle) (image.Point, bool) {
	res, ok := r.textures[handle]
	if !ok {
		return image.Point{}, false
	}
	return image.Pt(int(res.width), int(res.height)), true
}

// resolveTexture returns the resource for handle, creating the fallback for 0.
func (r *Renderer) resolveTexture(handle TextureHandle) (*textureResource, error) {
	if res, ok := r.textures[handle]; ok {
		return res, nil
	}
	if handle != 0 {
		return nil, &UnknownTextureError{Handle: handle}
	}
	if err := r.createTexture(0, whitePixel, 1, 1, false); err != nil {
		return nil, fmt.Errorf("render: fallback texture: %w", err)
	}
	return r.textures[0], nil
}

// LoadTexture decodes an image file and uploads it. Only uncompressed 32-bit
// .tga files are supported. Loading needs an open frame session because the
// upload is recorded into the session's command stream.
func (r *Renderer) LoadTexture(source string) (TextureHandle, image.Point, error) {
	handle, size, err := r.loadTexture(source)
	if err != nil {
		uirender.Logger().Warn("render: texture load failed", "source", source, "err", err)
		return 0, image.Point{}, err
	}
	return handle, size, nil
}

func (r *Renderer) loadTexture(source string) (TextureHandle, image.Point, error) {
	if !strings.EqualFold(filepath.Ext(source), ".tga") {
		return 0, image.Point{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
	if r.rec == nil {
		return 0, image.Point{}, ErrSessionClosed
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return 0, image.Point{}, fmt.Errorf("render: load texture %q: %w (%w)", source, tga.ErrEmpty, err)
	}
	img, err := tga.Decode(data)
	if err != nil {
		return 0, image.Point{}, fmt.Errorf("render: load texture %q: %w", source, err)
	}

	handle := r.nextHandle
	// Container rows are stored bottom row first.
	if err := r.createTexture(handle, img.Pix, img.Width, img.Height, true); err != nil {
		return 0, image.Point{}, err
	}
	r.nextHandle++
	return handle, image.Pt(img.Width, img.Height), nil
}

// GenerateTexture uploads tightly packed top-down RGBA pixels of the given size.
func (r *Renderer) GenerateTexture(pixels []byte, size image.Point) (TextureHandle, error) {
	if r.rec == nil {
		return 0, ErrSessionClosed
	}
	handle := r.nextHandle
	if err := r.createTexture(handle, pixels, size.X, size.Y, false); err != nil {
		return 0, err
	}
	r.nextHandle++
	return handle, nil
}

// ReleaseTexture invalidates handle immediately. The texture and its bind
// group are destroyed once draws already recorded against them have
// completed, RetireLatency sessions later. Unknown handles are ignored.
func (r *Renderer) ReleaseTexture(handle TextureHandle) {
	res, ok := r.textures[handle]
	if !ok {
		return
	}
	delete(r.textures, handle)
	dev := r.dev
	r.retire.Retire(fmt.Sprintf("texture %d", handle), func() { res.destroy(dev) })
}

// createTexture creates a device texture for handle and records the upload
// of pixels into it.
func (r *Renderer) createTexture(handle TextureHandle, pixels []byte, width, height int, flipY bool) error {
	if r.rec == nil {
		return ErrSessionClosed
	}
	if width <= 0 || height <= 0 || width > 0xffff || height > 0xffff {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTextureSize, width, height)
	}
	rowPitch := width * BytesPerPixel
	if len(pixels) < rowPitch*height {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrShortPixelData, len(pixels), width, height)
	}
	paddedPitch := alignUp(rowPitch, int(r.cfg.RowAlignment))

	tex, err := r.dev.CreateTexture(&gpucore.TextureDesc{
		Label:  fmt.Sprintf("uirender.texture.%d", handle),
		Width:  uint32(width),
		Height: uint32(height),
		Format: textureFormat,
		Usage:  gpucore.TextureUsageCopyDst | gpucore.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("render: create texture %dx%d: %w", width, height, err)
	}
	group, err := r.pipe.bindTexture(tex)
	if err != nil {
		r.dev.DestroyTexture(tex)
		return err
	}
	res := &textureResource{texture: tex, group: group, width: uint32(width), height: uint32(height)}

	alloc, err := r.arena.AllocateAligned(uint64(paddedPitch*height), r.cfg.TextureOffsetAlignment)
	if err == nil {
		var dst []byte
		if dst, err = r.arena.Bytes(alloc); err == nil {
			copyRows(dst, pixels, rowPitch, paddedPitch, height, flipY)
		}
	}
	if err != nil {
		res.destroy(r.dev)
		return fmt.Errorf("render: stage texture: %w", err)
	}

	r.rec.TextureBarriers(gpucore.TextureBarrier{Texture: tex, State: gpucore.TextureStateCopyDst})
	r.rec.CopyBufferToTexture(tex, alloc.Buffer, gpucore.Footprint{
		Offset:   alloc.Offset,
		Width:    uint32(width),
		Height:   uint32(height),
		RowPitch: uint32(paddedPitch),
		Format:   textureFormat,
	})
	r.rec.TextureBarriers(gpucore.TextureBarrier{Texture: tex, State: gpucore.TextureStateShaderRead})

	r.textures[handle] = res
	uirender.Logger().Debug("render: texture created",
		"handle", uint64(handle), "width", width, "height", height, "flip_y", flipY, "row_pitch", paddedPitch)
	return nil
}

// copyRows copies height rows of rowPitch bytes from src into dst, whose rows
// are paddedPitch apart. With flipY the last source row lands first. Padding
// bytes in dst are left untouched.
func copyRows(dst, src []byte, rowPitch, paddedPitch, height int, flipY bool) {
	if rowPitch == paddedPitch && !flipY {
		copy(dst[:rowPitch*height], src[:rowPitch*height])
		return
	}
	for row := 0; row < height; row++ {
		from := row
		if flipY {
			from = height - 1 - row
		}
		copy(dst[row*paddedPitch:row*paddedPitch+rowPitch], src[from*rowPitch:(from+1)*rowPitch])
	}
}

// alignUp rounds n up to a multiple of align.
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
