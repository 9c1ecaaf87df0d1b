// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package tga decodes the uncompressed 32-bit true-color subset of the TGA
// container used for UI textures.
//
// Only image type 2 with no image ID, no color map, zero origin, 32 bits per
// pixel, 8 alpha bits and bottom-to-top, left-to-right row order is accepted.
// Every other variant fails with a distinct error.
//
// Importing the package registers the format with the image package.
package tga

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Decode errors.
var (
	ErrEmpty       = errors.New("tga: file not found or empty")
	ErrTruncated   = errors.New("tga: truncated data")
	ErrIDLength    = errors.New("tga: nonzero ID length not supported")
	ErrColorMap    = errors.New("tga: color map not supported")
	ErrCompression = errors.New("tga: only uncompressed true-color images supported")
	ErrOrigin      = errors.New("tga: nonzero origin not supported")
	ErrSize        = errors.New("tga: zero width or height")
	ErrBitDepth    = errors.New("tga: only 32bpp images supported")
	ErrAlphaDepth  = errors.New("tga: only 8-bit alpha supported")
	ErrRowOrder    = errors.New("tga: only bottom-to-top, left-to-right pixel order supported")
)

const (
	headerSize     = 18
	imageTypeTrue  = 2
	bitsPerPixel   = 32
	alphaBits      = 8
	descAlphaMask  = 0x0f
	descOrderMask  = 0x30
	bytesPerPixel  = 4
	colorMapFields = 5
)

// Image is a decoded texture. Pix holds RGBA bytes with rows in the
// container's order: the bottom row first.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// RowPitch returns the number of bytes in one row.
func (m *Image) RowPitch() int { return m.Width * bytesPerPixel }

// NRGBA converts the image to a top-down *image.NRGBA.
func (m *Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	pitch := m.RowPitch()
	for y := 0; y < m.Height; y++ {
		src := m.Pix[(m.Height-1-y)*pitch : (m.Height-y)*pitch]
		copy(out.Pix[y*out.Stride:y*out.Stride+pitch], src)
	}
	return out
}

type header struct {
	width  int
	height int
}

// cursor reads little-endian fields after checking the remaining length.
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) need(n int, field string) error {
	if len(c.b)-c.off < n {
		return fmt.Errorf("%w: %s at offset %d needs %d bytes, %d left",
			ErrTruncated, field, c.off, n, len(c.b)-c.off)
	}
	return nil
}

func (c *cursor) u8(field string) (byte, error) {
	if err := c.need(1, field); err != nil {
		return 0, err
	}
	v := c.b[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u16(field string) (uint16, error) {
	if err := c.need(2, field); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.b[c.off:])
	c.off += 2
	return v, nil
}

func (c *cursor) skip(n int, field string) error {
	if err := c.need(n, field); err != nil {
		return err
	}
	c.off += n
	return nil
}

func (c *cursor) bytes(n int, field string) ([]byte, error) {
	if err := c.need(n, field); err != nil {
		return nil, err
	}
	v := c.b[c.off : c.off+n]
	c.off += n
	return v, nil
}

// readHeader validates the 18-byte header, field by field.
func readHeader(c *cursor) (header, error) {
	if len(c.b) == 0 {
		return header{}, ErrEmpty
	}
	idLen, err := c.u8("id length")
	if err != nil {
		return header{}, err
	}
	if idLen != 0 {
		return header{}, fmt.Errorf("%w (%d)", ErrIDLength, idLen)
	}
	cmapType, err := c.u8("color map type")
	if err != nil {
		return header{}, err
	}
	if cmapType != 0 {
		return header{}, ErrColorMap
	}
	imageType, err := c.u8("image type")
	if err != nil {
		return header{}, err
	}
	if imageType != imageTypeTrue {
		return header{}, fmt.Errorf("%w (type %d)", ErrCompression, imageType)
	}
	if err := c.skip(colorMapFields, "color map spec"); err != nil {
		return header{}, err
	}
	ox, err := c.u16("origin x")
	if err != nil {
		return header{}, err
	}
	oy, err := c.u16("origin y")
	if err != nil {
		return header{}, err
	}
	if ox != 0 || oy != 0 {
		return header{}, fmt.Errorf("%w (%d,%d)", ErrOrigin, ox, oy)
	}
	w, err := c.u16("width")
	if err != nil {
		return header{}, err
	}
	h, err := c.u16("height")
	if err != nil {
		return header{}, err
	}
	bpp, err := c.u8("pixel depth")
	if err != nil {
		return header{}, err
	}
	if bpp != bitsPerPixel {
		return header{}, fmt.Errorf("%w (%d)", ErrBitDepth, bpp)
	}
	desc, err := c.u8("image descriptor")
	if err != nil {
		return header{}, err
	}
	if desc&descAlphaMask != alphaBits {
		return header{}, fmt.Errorf("%w (%d)", ErrAlphaDepth, desc&descAlphaMask)
	}
	if desc&descOrderMask != 0 {
		return header{}, fmt.Errorf("%w (descriptor %#02x)", ErrRowOrder, desc)
	}
	if w == 0 || h == 0 {
		return header{}, fmt.Errorf("%w (%dx%d)", ErrSize, w, h)
	}
	return header{width: int(w), height: int(h)}, nil
}

// Decode validates and unpacks an in-memory container.
func Decode(data []byte) (*Image, error) {
	c := &cursor{b: data}
	h, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	src, err := c.bytes(h.width*h.height*bytesPerPixel, "pixel data")
	if err != nil {
		return nil, err
	}
	pix := make([]byte, len(src))
	for i := 0; i < len(src); i += bytesPerPixel {
		pix[i+0] = src[i+2]
		pix[i+1] = src[i+1]
		pix[i+2] = src[i+0]
		pix[i+3] = src[i+3]
	}
	return &Image{Width: h.width, Height: h.height, Pix: pix}, nil
}

// DecodeReader reads all of r and decodes it.
func DecodeReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tga: read: %w", err)
	}
	return Decode(data)
}

// Encode writes m as an uncompressed 32-bit bottom-to-top container.
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 || b.Dx() > 0xffff || b.Dy() > 0xffff {
		return fmt.Errorf("%w (%dx%d)", ErrSize, b.Dx(), b.Dy())
	}
	out := make([]byte, headerSize+b.Dx()*b.Dy()*bytesPerPixel)
	out[2] = imageTypeTrue
	binary.LittleEndian.PutUint16(out[12:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(out[14:], uint16(b.Dy()))
	out[16] = bitsPerPixel
	out[17] = alphaBits

	i := headerSize
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			out[i+0], out[i+1], out[i+2], out[i+3] = c.B, c.G, c.R, c.A
			i += bytesPerPixel
		}
	}
	_, err := w.Write(out)
	return err
}

func decodeImage(r io.Reader) (image.Image, error) {
	m, err := DecodeReader(r)
	if err != nil {
		return nil, err
	}
	return m.NRGBA(), nil
}

func decodeConfig(r io.Reader) (image.Config, error) {
	var buf [headerSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil && n == 0 {
		return image.Config{}, ErrEmpty
	}
	h, herr := readHeader(&cursor{b: buf[:n]})
	if herr != nil {
		return image.Config{}, herr
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: h.width, Height: h.height}, nil
}

func init() {
	image.RegisterFormat("tga", "\x00\x00\x02", decodeImage, decodeConfig)
}
